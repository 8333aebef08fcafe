package models

import "time"

// Author is the denormalized creator snapshot embedded in a post. The name is
// captured at creation time and not refreshed afterwards.
type Author struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
}

// CategoryRef is the denormalized category snapshot embedded in a post.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post is a content entity. The JSON tags double as the cache wire format:
// cached copies are the marshalled struct and are a derived, time-bounded
// representation of the database row.
type Post struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Picture     string       `json:"picture,omitempty"`
	Content     string       `json:"content,omitempty"`
	CreatedBy   Author       `json:"created_by"`
	Category    *CategoryRef `json:"category,omitempty"`
	Likes       int64        `json:"likes"`
	Views       int64        `json:"views"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
