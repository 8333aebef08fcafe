package posts

import (
	"context"

	"github.com/dmitrijs2005/goblog/internal/server/models"
)

// ListFilter narrows and pages a post listing. A nil or zero field means
// "no constraint"; IDs restricts the result to the given post ids.
type ListFilter struct {
	CategoryID string
	AuthorID   string
	IDs        []string
	Offset     int64
	Limit      int64
}

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	UpdateViews(ctx context.Context, id string, views int64) error
	UpdateLikes(ctx context.Context, id string, likes int64) error
	List(ctx context.Context, filter *ListFilter) ([]*models.Post, error)
	Count(ctx context.Context, filter *ListFilter) (int64, error)
}
