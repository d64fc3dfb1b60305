package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/errors"
	"github.com/emberforum/ember-server/internal/id"
	"github.com/emberforum/ember-server/internal/similarity"
	"github.com/emberforum/ember-server/internal/slug"
	"github.com/emberforum/ember-server/internal/store"
)

const (
	// minSimilarityScore is the floor below which matches are not worth
	// reporting in a similarity scan.
	minSimilarityScore = 30

	// DefaultSimilarityThreshold flags near-duplicate tag names when no
	// threshold is configured.
	DefaultSimilarityThreshold = 85

	// defaultSimilarLimit caps a similarity scan's result when the caller
	// does not ask for a specific count.
	defaultSimilarLimit = 20

	maxTagNameLength = 50
)

// TagService orchestrates global tag operations: creation with
// near-duplicate detection, bulk creation, merging, and deletion.
type TagService struct {
	store     store.Store
	threshold int
	logger    *slog.Logger
}

// NewTagService creates a new tag service. threshold is the 0-100
// similarity score at or above which a new tag name is flagged as a
// near-duplicate; pass 0 to use the default.
func NewTagService(store store.Store, threshold int, logger *slog.Logger) *TagService {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &TagService{
		store:     store,
		threshold: threshold,
		logger:    logger,
	}
}

// CreateTagResult is the outcome of a tag creation. Warnings lists
// existing tags whose names are suspiciously close to the new one; the
// creation succeeds regardless.
type CreateTagResult struct {
	Tag      *domain.Tag         `json:"tag"`
	Warnings []domain.SimilarTag `json:"warnings,omitempty"`
}

// BulkCreateTagsResult partitions a bulk request into what happened to
// each name: created fresh, resolved to an already-existing tag, or
// failed with a reason. Tags created with near-duplicate warnings land
// in Created with their warnings pooled.
type BulkCreateTagsResult struct {
	Created  []*domain.Tag       `json:"created"`
	Existing []*domain.Tag       `json:"existing"`
	Failed   []FailedTag         `json:"failed"`
	Warnings []domain.SimilarTag `json:"warnings,omitempty"`
}

// FailedTag records why a requested name was not created.
type FailedTag struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// DeleteTagResult reports the outcome of a delete request. When the tag
// still has posts and force was not set, Deleted is false, HasPosts is
// true, and PostCount carries the number of posts blocking the delete.
type DeleteTagResult struct {
	Deleted   bool `json:"deleted"`
	HasPosts  bool `json:"has_posts"`
	PostCount int  `json:"post_count"`
}

// ListTags returns a page of tags ordered by popularity.
func (s *TagService) ListTags(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Tag], error) {
	return s.store.ListTags(ctx, params)
}

// GetTag returns a tag by ID.
func (s *TagService) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	t, err := s.store.GetTag(ctx, tagID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("tag not found")
	}
	return t, err
}

// GetTagBySlug returns a tag by its slug.
func (s *TagService) GetTagBySlug(ctx context.Context, slugStr string) (*domain.Tag, error) {
	t, err := s.store.GetTagBySlug(ctx, slugStr)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("tag not found")
	}
	return t, err
}

// FindSimilarTags scans every tag and scores it against name, returning
// the top limit matches at or above the reporting floor sorted by score
// descending (ties by tag ID). limit <= 0 applies the default cap. The
// scan honors context cancellation.
func (s *TagService) FindSimilarTags(ctx context.Context, name string, limit int) ([]domain.SimilarTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []domain.SimilarTag{}, nil
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	tags, err := s.store.ListAllTags(ctx)
	if err != nil {
		return nil, err
	}

	var matches []domain.SimilarTag
	for i, t := range tags {
		// The scan is O(n * name length^2); stay responsive on big tables.
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		score := similarity.Score(name, t.Name)
		if score < minSimilarityScore {
			continue
		}
		matches = append(matches, domain.SimilarTag{
			TagID:     t.ID,
			Name:      t.Name,
			Slug:      t.Slug,
			Score:     score,
			PostCount: t.PostCount,
		})
	}

	slices.SortStableFunc(matches, func(a, b domain.SimilarTag) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.TagID, b.TagID)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []domain.SimilarTag{}
	}
	return matches, nil
}

// CreateTag creates a tag from a display name. The slug is generated and
// made unique automatically. Existing tags with similar names come back
// as warnings; an exact match (same name ignoring case, or same slug) is
// a conflict.
func (s *TagService) CreateTag(ctx context.Context, name, createdBy string) (*CreateTagResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("tag name is required")
	}
	if len(name) > maxTagNameLength {
		return nil, errors.Validationf("tag name must not exceed %d characters", maxTagNameLength)
	}

	similar, err := s.FindSimilarTags(ctx, name, 0)
	if err != nil {
		return nil, err
	}

	var warnings []domain.SimilarTag
	for _, match := range similar {
		if strings.EqualFold(match.Name, name) {
			return nil, errors.AlreadyExistsf("tag %q already exists", match.Name)
		}
		if match.Score >= s.threshold {
			warnings = append(warnings, match)
		}
	}

	tag, err := s.insertTag(ctx, name, createdBy)
	if err != nil {
		return nil, err
	}

	if len(warnings) > 0 {
		s.logger.Info("created tag with near-duplicate warnings",
			"tag", tag.Slug, "warnings", len(warnings))
	}

	return &CreateTagResult{Tag: tag, Warnings: warnings}, nil
}

// insertTag generates a unique slug and writes the tag. If a concurrent
// creator wins the slug between the uniqueness probe and the insert, the
// insert is retried once with a random suffix.
func (s *TagService) insertTag(ctx context.Context, name, createdBy string) (*domain.Tag, error) {
	slugStr, err := slug.GenerateUnique(ctx, name, slug.DefaultMaxLength, s.store.TagSlugExists, "")
	if err != nil {
		return nil, err
	}

	tag := newTag(name, slugStr, createdBy)
	err = s.store.CreateTag(ctx, tag)
	if isAlreadyExists(err) {
		tag = newTag(name, slug.Generate(name, slug.DefaultMaxLength)+"-"+slug.Random(), createdBy)
		err = s.store.CreateTag(ctx, tag)
	}
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func newTag(name, slugStr, createdBy string) *domain.Tag {
	now := time.Now().UTC()
	return &domain.Tag{
		ID:        id.MustGenerate("tag"),
		Name:      name,
		Slug:      slugStr,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BulkCreateTags creates several tags in one request, resolving each
// name independently: a fresh name is created, a name matching an
// existing tag (or an earlier name in the same batch, case-insensitive)
// reuses that tag, and a name that cannot be created is recorded as
// failed without aborting the rest of the batch. Near-duplicate
// warnings from all created tags are pooled.
func (s *TagService) BulkCreateTags(ctx context.Context, names []string, createdBy string) (*BulkCreateTagsResult, error) {
	result := &BulkCreateTagsResult{
		Created:  []*domain.Tag{},
		Existing: []*domain.Tag{},
		Failed:   []FailedTag{},
	}

	batch := map[string]*domain.Tag{}
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			result.Failed = append(result.Failed, FailedTag{Name: raw, Reason: "empty name"})
			continue
		}

		key := strings.ToLower(name)
		if tag, ok := batch[key]; ok {
			result.Existing = append(result.Existing, tag)
			continue
		}

		created, err := s.CreateTag(ctx, name, createdBy)
		switch {
		case err == nil:
			batch[key] = created.Tag
			result.Created = append(result.Created, created.Tag)
			result.Warnings = append(result.Warnings, created.Warnings...)
		case errors.Is(err, errors.ErrAlreadyExists):
			existing, lookupErr := s.store.GetTagBySlug(ctx, slug.Generate(name, slug.DefaultMaxLength))
			if lookupErr != nil {
				result.Failed = append(result.Failed, FailedTag{Name: name, Reason: "already exists"})
				continue
			}
			batch[key] = existing
			result.Existing = append(result.Existing, existing)
		default:
			result.Failed = append(result.Failed, FailedTag{Name: name, Reason: err.Error()})
		}
	}

	return result, nil
}

// MergeTags folds the source tags into the target: post associations move
// over (deduplicated), sources are deleted, and the target's post count is
// recomputed. Returns the updated target.
func (s *TagService) MergeTags(ctx context.Context, sourceIDs []string, targetID string) (*domain.Tag, error) {
	if len(sourceIDs) == 0 {
		return nil, errors.Validation("at least one source tag is required")
	}

	unique := make([]string, 0, len(sourceIDs))
	seen := map[string]bool{}
	for _, srcID := range sourceIDs {
		if srcID == targetID {
			return nil, errors.Validation("target tag cannot be one of the sources")
		}
		if seen[srcID] {
			continue
		}
		seen[srcID] = true
		unique = append(unique, srcID)
	}

	// Fail before mutating anything if a source is missing.
	sources, err := s.store.GetTagsByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(sources) != len(unique) {
		return nil, errors.NotFound("one or more source tags not found")
	}

	target, err := s.store.MergeTags(ctx, unique, targetID)
	if err != nil {
		if err == store.ErrNotFound || isStoreNotFound(err) {
			return nil, errors.NotFound("target tag not found")
		}
		return nil, err
	}

	s.logger.Info("merged tags", "target", target.Slug, "sources", len(unique))
	return target, nil
}

// DeleteTag removes a tag. A tag still carried by posts is refused unless
// force is set; the refusal is reported in the result, not as an error, so
// callers can prompt for confirmation.
func (s *TagService) DeleteTag(ctx context.Context, tagID string, force bool) (*DeleteTagResult, error) {
	if _, err := s.store.GetTag(ctx, tagID); err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("tag not found")
		}
		return nil, err
	}

	postCount, err := s.store.CountPostsForTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if postCount > 0 && !force {
		return &DeleteTagResult{Deleted: false, HasPosts: true, PostCount: postCount}, nil
	}

	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return nil, err
	}
	return &DeleteTagResult{Deleted: true, HasPosts: postCount > 0, PostCount: postCount}, nil
}

// IsTooSimilar reports whether any existing tag's name clears the
// near-duplicate threshold against name.
func (s *TagService) IsTooSimilar(ctx context.Context, name string) (bool, error) {
	matches, err := s.FindSimilarTags(ctx, name, 1)
	if err != nil {
		return false, err
	}
	return len(matches) > 0 && matches[0].Score >= s.threshold, nil
}

// isAlreadyExists matches the store's duplicate-row sentinel.
func isAlreadyExists(err error) bool {
	var se *store.Error
	return errors.As(err, &se) && se.Code == store.ErrAlreadyExists.Code
}

// isStoreNotFound matches the store's missing-row sentinel, wrapped or not.
func isStoreNotFound(err error) bool {
	var se *store.Error
	return errors.As(err, &se) && se.Code == store.ErrNotFound.Code
}
