package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
)

type CategoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCategoryService(db *sql.DB, m repomanager.RepositoryManager) *CategoryService {
	return &CategoryService{db: db, repomanager: m}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	repo := s.repomanager.Categories(s.db)

	categories, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	repo := s.repomanager.Categories(s.db)

	category, err := repo.Create(ctx, &models.Category{Name: name})
	if err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	return category, nil
}
