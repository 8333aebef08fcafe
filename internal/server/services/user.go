package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/auth"
	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/goblog/internal/server/revocation"
)

// Session is an issued bearer credential together with its subject and expiry.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	revocations           *revocation.Store
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, r *revocation.Store, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		revocations:           r,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

func (s *UserService) Register(ctx context.Context, username, fullname, password string) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	count, err := repo.CountByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if count > 0 {
		return nil, common.ErrorConflict
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username: username,
		Fullname: fullname,
		Password: hashed,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login checks the credentials and issues a session token. All credential
// failures collapse into ErrorUnauthorized so a caller cannot tell an unknown
// username from a wrong password.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := auth.CheckPassword(password, user.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenValidityDuration),
	}, nil
}

// Logout revokes the presented token. The token stays structurally valid
// until its natural expiry, so the revocation record is what keeps it out.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if err := s.revocations.Revoke(ctx, token); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}
