// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// PostStatus values accepted for Post.Status.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post represents a blog post authored in Markdown.
type Post struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:200;not null;index" json:"title"`
	Content      string     `gorm:"type:text;not null" json:"content,omitempty"`
	Slug         string     `gorm:"size:250;not null;uniqueIndex" json:"slug"`
	Excerpt      string     `gorm:"size:500" json:"excerpt"`
	Tags         []string   `gorm:"serializer:json" json:"tags"`
	CategorySlug string     `gorm:"size:50;index" json:"category_slug"`
	Status       string     `gorm:"size:20;default:'draft';index" json:"status"`
	ViewCount    int        `gorm:"default:0" json:"view_count"`
	Images       []Image    `gorm:"foreignKey:PostID" json:"images,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	// DeletedAt is managed explicitly (not gorm.DeletedAt) so that the
	// permanent-delete path and the admin trash view can query it directly.
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// IsDeleted reports whether the post has been soft-deleted.
func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// PostSummary is the listing shape: everything a card needs, without the
// full markdown body.
type PostSummary struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Excerpt      string     `json:"excerpt"`
	Tags         []string   `json:"tags"`
	CategorySlug string     `json:"category_slug"`
	Status       string     `json:"status"`
	ViewCount    int        `json:"view_count"`
	Thumbnail    string     `json:"thumbnail,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// PostList is the paginated listing envelope.
type PostList struct {
	Items []PostSummary `json:"items"`
	Total int64         `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

// Summary projects the post into its listing shape.
func (p *Post) Summary() PostSummary {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostSummary{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Excerpt:      p.Excerpt,
		Tags:         tags,
		CategorySlug: p.CategorySlug,
		Status:       p.Status,
		ViewCount:    p.ViewCount,
		Thumbnail:    p.Thumbnail(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		PublishedAt:  p.PublishedAt,
	}
}

// Thumbnail returns the storage key of the first active linked image, or "".
func (p *Post) Thumbnail() string {
	var best *Image
	for i := range p.Images {
		img := &p.Images[i]
		if img.DeletedAt != nil {
			continue
		}
		if best == nil || img.CreatedAt.Before(best.CreatedAt) {
			best = img
		}
	}
	if best == nil {
		return ""
	}
	return best.StorageKey
}
