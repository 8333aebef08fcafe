package users

import (
	"context"

	"github.com/dmitrijs2005/goblog/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	CountByUsername(ctx context.Context, username string) (int64, error)
	GetFullname(ctx context.Context, userID string) (string, error)
	GetFavorites(ctx context.Context, userID string) ([]string, error)
	UpdateFavorites(ctx context.Context, userID string, favorites []string) error
	HasFavorite(ctx context.Context, userID, postID string) (bool, error)
}
