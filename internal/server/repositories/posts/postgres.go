// Package posts provides a PostgreSQL-backed repository for blog posts.
// Author and category are stored denormalized on the post row, snapshotted at
// write time the way a document store would embed them.
package posts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (id, title, description, picture, content,
			created_by_id, created_by_fullname, category_id, category_name, likes, views)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	var categoryID, categoryName sql.NullString
	if post.Category != nil {
		categoryID = sql.NullString{String: post.Category.ID, Valid: true}
		categoryName = sql.NullString{String: post.Category.Name, Valid: true}
	}

	post.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.Title, post.Description, post.Picture, post.Content,
		post.CreatedBy.ID, post.CreatedBy.Fullname,
		categoryID, categoryName, post.Likes, post.Views).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `
		SELECT id, title, description, picture, content,
			created_by_id, created_by_fullname, category_id, category_name,
			likes, views, created_at, updated_at
		FROM posts
		WHERE id = $1
	`

	post := &models.Post{}
	var categoryID, categoryName sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Description, &post.Picture, &post.Content,
		&post.CreatedBy.ID, &post.CreatedBy.Fullname, &categoryID, &categoryName,
		&post.Likes, &post.Views, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if categoryID.Valid {
		post.Category = &models.CategoryRef{ID: categoryID.String, Name: categoryName.String}
	}

	return post, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $2, description = $3, picture = $4, content = $5,
			category_id = $6, category_name = $7, updated_at = now()
		WHERE id = $1
	`

	var categoryID, categoryName sql.NullString
	if post.Category != nil {
		categoryID = sql.NullString{String: post.Category.ID, Valid: true}
		categoryName = sql.NullString{String: post.Category.Name, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Description, post.Picture, post.Content,
		categoryID, categoryName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateViews writes an absolute counter value. Concurrent writers overwrite
// each other, so the counter is approximate by construction.
func (r *PostgresRepository) UpdateViews(ctx context.Context, id string, views int64) error {
	query := `UPDATE posts SET views = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, views); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateLikes writes an absolute counter value, same semantics as UpdateViews.
func (r *PostgresRepository) UpdateLikes(ctx context.Context, id string, likes int64) error {
	query := `UPDATE posts SET likes = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, likes); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// buildWhere renders filter constraints as a WHERE clause with positional
// placeholders, returning the clause and its arguments.
func buildWhere(filter *ListFilter) (string, []any, error) {
	var clauses []string
	var args []any

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		clauses = append(clauses, fmt.Sprintf("created_by_id = $%d", len(args)))
	}
	if filter.IDs != nil {
		ids, err := json.Marshal(filter.IDs)
		if err != nil {
			return "", nil, fmt.Errorf("error encoding id filter: %w", err)
		}
		args = append(args, string(ids))
		clauses = append(clauses,
			fmt.Sprintf("id IN (SELECT jsonb_array_elements_text($%d::jsonb))", len(args)))
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// List returns a page of posts, newest first. The content column is left out
// on purpose: listings are summaries, the full body comes from GetByID.
func (r *PostgresRepository) List(ctx context.Context, filter *ListFilter) ([]*models.Post, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	args = append(args, filter.Offset)
	offsetArg := len(args)
	args = append(args, filter.Limit)
	limitArg := len(args)

	query := fmt.Sprintf(`
		SELECT id, title, description, picture,
			created_by_id, created_by_fullname, category_id, category_name,
			likes, views, created_at, updated_at
		FROM posts%s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d
	`, where, offsetArg, limitArg)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		post := &models.Post{}
		var categoryID, categoryName sql.NullString
		err := rows.Scan(
			&post.ID, &post.Title, &post.Description, &post.Picture,
			&post.CreatedBy.ID, &post.CreatedBy.Fullname, &categoryID, &categoryName,
			&post.Likes, &post.Views, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if categoryID.Valid {
			post.Category = &models.CategoryRef{ID: categoryID.String, Name: categoryName.String}
		}
		result = append(result, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, filter *ListFilter) (int64, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT count(*) FROM posts%s`, where)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
