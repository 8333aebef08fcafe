package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
)

// FavoriteService keeps the two favorite aggregates in step: the id list on
// the user and the like counter on the post. There is no transaction across
// them; a failed half leaves a drift that an external reconciliation pass has
// to pick up, which is why partial failures get their own log line.
type FavoriteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewFavoriteService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *FavoriteService {
	return &FavoriteService{db: db, repomanager: m, logger: logger}
}

// AddFavorite appends the post to the user's favorites and bumps the post's
// like counter. Re-adding an existing favorite is a conflict, not a no-op.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, postID string) error {

	postRepo := s.repomanager.Posts(s.db)
	post, err := postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading post: %w", err)
	}

	userRepo := s.repomanager.Users(s.db)
	favorites, err := userRepo.GetFavorites(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading favorites: %w", err)
	}

	if slices.Contains(favorites, postID) {
		return common.ErrorConflict
	}

	return s.writeBoth(ctx, userID, postID,
		append(favorites, postID), post.Likes+1)
}

// RemoveFavorite is the symmetric operation. Removing a favorite that is not
// present is a conflict. A favorite pointing at an already deleted post is
// still removable; only the list write happens then.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, postID string) error {

	userRepo := s.repomanager.Users(s.db)
	favorites, err := userRepo.GetFavorites(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading favorites: %w", err)
	}

	idx := slices.Index(favorites, postID)
	if idx < 0 {
		return common.ErrorConflict
	}
	remaining := slices.Delete(slices.Clone(favorites), idx, idx+1)

	postRepo := s.repomanager.Posts(s.db)
	post, err := postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if err := userRepo.UpdateFavorites(ctx, userID, remaining); err != nil {
				return fmt.Errorf("error saving favorites: %w", err)
			}
			return nil
		}
		return fmt.Errorf("error loading post: %w", err)
	}

	return s.writeBoth(ctx, userID, postID, remaining, post.Likes-1)
}

// writeBoth issues the two aggregate writes concurrently and waits for both.
// Neither write is ordered before the other and neither is rolled back if
// its sibling fails.
func (s *FavoriteService) writeBoth(ctx context.Context, userID, postID string,
	favorites []string, likes int64) error {

	userRepo := s.repomanager.Users(s.db)
	postRepo := s.repomanager.Posts(s.db)

	var wg sync.WaitGroup
	var favErr, likeErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		favErr = userRepo.UpdateFavorites(ctx, userID, favorites)
	}()
	go func() {
		defer wg.Done()
		likeErr = postRepo.UpdateLikes(ctx, postID, likes)
	}()
	wg.Wait()

	if favErr == nil && likeErr == nil {
		return nil
	}

	if (favErr == nil) != (likeErr == nil) {
		// one aggregate updated, the other did not: the list and the counter
		// now disagree until reconciliation
		s.logger.Error(ctx, "partial favorite write",
			"user_id", userID, "post_id", postID,
			"favorites_error", favErr, "likes_error", likeErr)
	} else {
		s.logger.Error(ctx, "favorite write failed",
			"user_id", userID, "post_id", postID,
			"favorites_error", favErr, "likes_error", likeErr)
	}

	return fmt.Errorf("error saving favorite: %w", errors.Join(favErr, likeErr))
}

// ListFavorites returns a page of the user's favorite posts. Every entry is
// liked by construction. The total is the size of the favorite set itself,
// not the number of posts the page query can still resolve: ids left dangling
// by a post deletion keep counting until the user removes them.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID string, offset, limit int64) (*PostPage, error) {

	userRepo := s.repomanager.Users(s.db)
	favorites, err := userRepo.GetFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading favorites: %w", err)
	}

	if len(favorites) == 0 {
		return &PostPage{Posts: []*PostView{}}, nil
	}

	filter := &posts.ListFilter{IDs: favorites, Offset: offset, Limit: limit}
	repo := s.repomanager.Posts(s.db)

	list, err := repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing favorites: %w", err)
	}

	page := &PostPage{Total: int64(len(favorites)), Posts: make([]*PostView, 0, len(list))}
	for _, p := range list {
		page.Posts = append(page.Posts, &PostView{Post: p, Liked: true})
	}

	return page, nil
}
