// Package main provides a tool to seed the database with demo content.
//
// It creates a handful of users, categories, tags, communities, and posts
// with comments, votes, and reactions so the API has something to serve
// during development.
//
// Usage:
//
//	DB_PATH=~/Ember/data/ember.db go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/emberforum/ember-server/internal/auth"
	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/id"
	"github.com/emberforum/ember-server/internal/service"
	"github.com/emberforum/ember-server/internal/store/sqlite"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, "Ember", "data", "ember.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	tags := service.NewTagService(st, 0, logger)
	categories := service.NewCategoryService(st, logger)
	posts := service.NewPostService(st, logger)
	comments := service.NewCommentService(st, logger)
	communities := service.NewCommunityService(st, 0, logger)

	users := seedUsers(ctx, st)
	admin := users[0]

	// Categories
	var categoryIDs []string
	for i, name := range []string{"Technology", "Science", "Culture", "Meta"} {
		c, err := categories.CreateCategory(ctx, service.CreateCategoryInput{
			Name:      name,
			SortOrder: i,
		})
		if err != nil {
			log.Fatalf("Failed to create category %q: %v", name, err)
		}
		categoryIDs = append(categoryIDs, c.ID)
	}
	fmt.Printf("Created %d categories\n", len(categoryIDs))

	// Tags
	created, err := tags.BulkCreateTags(ctx, []string{
		"go", "databases", "distributed-systems", "writing", "open-source",
	}, admin.ID)
	if err != nil {
		log.Fatalf("Failed to create tags: %v", err)
	}
	fmt.Printf("Created %d tags\n", len(created.Created))

	// A public community run by the admin
	community, err := communities.CreateCommunity(ctx, service.CreateCommunityInput{
		Name:        "Ember Builders",
		Description: "People building things with Ember.",
		CategoryID:  categoryIDs[0],
		CreatorID:   admin.ID,
	})
	if err != nil {
		log.Fatalf("Failed to create community: %v", err)
	}
	for _, u := range users[1:] {
		if _, err := communities.Join(ctx, community.ID, u.ID); err != nil {
			log.Fatalf("Failed to join community: %v", err)
		}
	}
	fmt.Printf("Created community %q with %d members\n", community.Name, len(users))

	// Posts with comments, votes, and reactions
	titles := []string{
		"Getting started with Ember",
		"Why slugs beat numeric IDs in URLs",
		"Merging duplicate tags without losing posts",
		"Running a healthy private community",
	}
	var tagIDs []string
	for _, t := range created.Created {
		tagIDs = append(tagIDs, t.ID)
	}

	for i, title := range titles {
		author := users[i%len(users)]
		post, err := posts.CreatePost(ctx, service.CreatePostInput{
			Title:      title,
			Content:    "Seeded post content for " + title + ".",
			AuthorID:   author.ID,
			CategoryID: categoryIDs[i%len(categoryIDs)],
			TagIDs:     tagIDs[:1+rng.Intn(3)],
			Publish:    true,
		})
		if err != nil {
			log.Fatalf("Failed to create post %q: %v", title, err)
		}

		for _, u := range users {
			if u.ID == author.ID {
				continue
			}
			comment, err := comments.CreateComment(ctx, service.CreateCommentInput{
				PostID:   post.ID,
				AuthorID: u.ID,
				Content:  "Thoughts from " + u.DisplayName + ".",
			})
			if err != nil {
				log.Fatalf("Failed to create comment: %v", err)
			}

			vote := domain.VoteUp
			if rng.Float32() < 0.2 {
				vote = domain.VoteDown
			}
			if _, err := comments.Vote(ctx, comment.ID, author.ID, vote); err != nil {
				log.Fatalf("Failed to vote: %v", err)
			}
			reactions := domain.ReactionTypes
			if _, err := comments.React(ctx, comment.ID, author.ID, reactions[rng.Intn(len(reactions))]); err != nil {
				log.Fatalf("Failed to react: %v", err)
			}
		}
	}
	fmt.Printf("Created %d posts with comments\n", len(titles))

	fmt.Println("Done")
}

// seedUsers creates the demo accounts. The first one is the admin.
func seedUsers(ctx context.Context, st *sqlite.Store) []*domain.User {
	specs := []struct {
		email string
		name  string
		role  domain.Role
	}{
		{"admin@ember.local", "Admin", domain.RoleAdmin},
		{"ada@ember.local", "Ada", domain.RoleMember},
		{"linus@ember.local", "Linus", domain.RoleMember},
		{"grace@ember.local", "Grace", domain.RoleMember},
	}

	hash, err := auth.HashPassword("seed-password")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	var users []*domain.User
	for _, spec := range specs {
		now := time.Now().UTC()
		u := &domain.User{
			ID:           id.MustGenerate("usr"),
			Email:        spec.email,
			DisplayName:  spec.name,
			PasswordHash: hash,
			Role:         spec.role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := st.CreateUser(ctx, u); err != nil {
			log.Fatalf("Failed to create user %s: %v", spec.email, err)
		}
		users = append(users, u)
	}

	fmt.Printf("Created %d users (password: seed-password)\n", len(users))
	return users
}
