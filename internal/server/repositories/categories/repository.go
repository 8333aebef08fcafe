package categories

import (
	"context"

	"github.com/dmitrijs2005/goblog/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
}
