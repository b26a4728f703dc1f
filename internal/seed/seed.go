// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumPosts    int
	ShouldClean bool
}

var categories = []string{"dev", "devops", "homelab", "books", "travel", "meta"}

var tagPool = []string{
	"go", "fiber", "postgres", "redis", "docker", "kubernetes", "linux",
	"markdown", "testing", "performance", "self-hosting", "notes",
}

// Seed populates the database with demo blog posts.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Seeding %d posts...", opts.NumPosts)
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: could not clear existing data, continuing anyway...")
		}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < opts.NumPosts; i++ {
		if err := createPost(db, r); err != nil {
			return fmt.Errorf("failed to create post %d: %w", i+1, err)
		}
	}

	log.Printf("✓ %d posts created", opts.NumPosts)
	return nil
}

func clearData(db *gorm.DB) error {
	if err := db.Exec("DELETE FROM images").Error; err != nil {
		return err
	}
	return db.Exec("DELETE FROM posts").Error
}

func createPost(db *gorm.DB, r *rand.Rand) error {
	title := strings.TrimSuffix(gofakeit.Sentence(r.Intn(5)+3), ".")
	createdAt := time.Now().Add(-time.Duration(r.Intn(180*24)) * time.Hour)

	post := &models.Post{
		Title:        title,
		Content:      markdownBody(r),
		Slug:         "seed-temporary",
		Excerpt:      gofakeit.Sentence(12),
		Tags:         pickTags(r),
		CategorySlug: categories[r.Intn(len(categories))],
		Status:       models.PostStatusDraft,
		ViewCount:    r.Intn(500),
		CreatedAt:    createdAt,
	}

	// Roughly four out of five seeded posts are published
	if r.Intn(5) > 0 {
		post.Status = models.PostStatusPublished
		publishedAt := createdAt.Add(time.Duration(r.Intn(48)) * time.Hour)
		post.PublishedAt = &publishedAt
	}

	if err := db.Create(post).Error; err != nil {
		return err
	}

	post.Slug = service.GenerateSlug(post.Title, post.ID)
	return db.Model(post).Update("slug", post.Slug).Error
}

func markdownBody(r *rand.Rand) string {
	var b strings.Builder
	paragraphs := r.Intn(4) + 2

	for i := 0; i < paragraphs; i++ {
		if i > 0 && r.Intn(3) == 0 {
			fmt.Fprintf(&b, "## %s\n\n", strings.TrimSuffix(gofakeit.Sentence(3), "."))
		}
		b.WriteString(gofakeit.Paragraph(1, 3, 12, " "))
		b.WriteString("\n\n")
	}

	if r.Intn(3) == 0 {
		fmt.Fprintf(&b, "![%s](https://picsum.photos/seed/%s/800/400)\n\n",
			gofakeit.Word(), gofakeit.UUID())
	}
	if r.Intn(4) == 0 {
		fmt.Fprintf(&b, "```go\nfunc main() {\n\tfmt.Println(%q)\n}\n```\n", gofakeit.HackerPhrase())
	}

	return strings.TrimSpace(b.String())
}

func pickTags(r *rand.Rand) []string {
	n := r.Intn(4) + 1
	picked := make([]string, 0, n)
	seen := make(map[string]bool)
	for len(picked) < n {
		tag := tagPool[r.Intn(len(tagPool))]
		if !seen[tag] {
			seen[tag] = true
			picked = append(picked, tag)
		}
	}
	return picked
}
