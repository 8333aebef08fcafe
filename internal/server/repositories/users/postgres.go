// Package users provides a PostgreSQL-backed repository for user documents.
// The favorite list is stored as a JSON array on the user row, mirroring the
// document model: readers load the whole list and writers replace it.
package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	favorites, err := json.Marshal(user.Favorites)
	if err != nil {
		return nil, fmt.Errorf("error encoding favorites: %w", err)
	}
	if len(user.Favorites) == 0 {
		favorites = []byte("[]")
	}

	query := `
		INSERT INTO users (id, username, fullname, salt, password_hash, favorites)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	user.ID = uuid.NewString()
	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Fullname,
		user.Password.Salt, user.Password.Hash, string(favorites)).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, fullname, salt, password_hash, favorites, created_at
		FROM users
		WHERE username = $1
	`

	user := &models.User{}
	var favorites []byte
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Fullname,
		&user.Password.Salt, &user.Password.Hash, &favorites, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(favorites, &user.Favorites); err != nil {
		return nil, fmt.Errorf("error decoding favorites: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) CountByUsername(ctx context.Context, username string) (int64, error) {
	query := `SELECT count(*) FROM users WHERE username = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) GetFullname(ctx context.Context, userID string) (string, error) {
	query := `SELECT fullname FROM users WHERE id = $1`

	var fullname string
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&fullname); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return fullname, nil
}

func (r *PostgresRepository) GetFavorites(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT favorites FROM users WHERE id = $1`

	var raw []byte
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var favorites []string
	if err := json.Unmarshal(raw, &favorites); err != nil {
		return nil, fmt.Errorf("error decoding favorites: %w", err)
	}
	return favorites, nil
}

// UpdateFavorites replaces the whole favorite list. The last writer wins; the
// caller owns read-modify-write ordering.
func (r *PostgresRepository) UpdateFavorites(ctx context.Context, userID string, favorites []string) error {
	payload, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("error encoding favorites: %w", err)
	}
	if len(favorites) == 0 {
		payload = []byte("[]")
	}

	query := `UPDATE users SET favorites = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID, string(payload)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) HasFavorite(ctx context.Context, userID, postID string) (bool, error) {
	query := `SELECT favorites ? $2 FROM users WHERE id = $1`

	var liked bool
	if err := r.db.QueryRowContext(ctx, query, userID, postID).Scan(&liked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return liked, nil
}
