package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/cache"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
)

const postCacheKeyPrefix = "post:"

// PostInput carries the author-editable fields of a post.
type PostInput struct {
	Title       string
	Description string
	Picture     string
	Content     string
	CategoryID  string
}

// ListOptions pages and filters a post listing.
type ListOptions struct {
	CategoryID string
	Offset     int64
	Limit      int64
}

// PostView is a post projected for a particular viewer.
type PostView struct {
	*models.Post
	Liked bool `json:"liked"`
}

// PostPage is one page of a listing plus the unpaginated total.
type PostPage struct {
	Posts []*PostView
	Total int64
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      logging.Logger

	// pending tracks write-behind view persistence so a shutdown can drain it.
	pending sync.WaitGroup
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, c cache.Cache,
	cacheTTL time.Duration, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		cache:       c,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func postCacheKey(id string) string {
	return postCacheKeyPrefix + id
}

// GetPost serves a single post through the cache and records a view.
//
// The entity is taken from the cache when present, otherwise from the store.
// Either way the view counter is incremented on the in-memory copy, the
// caller gets that copy immediately, and persistence (store write plus cache
// refresh) happens after the fact. Two concurrent readers can start from the
// same baseline and both write back the same value, so the counter is a
// monotonic approximation of read volume, not an exact tally.
//
// The liked flag is resolved per viewer and never enters the cache.
func (s *PostService) GetPost(ctx context.Context, id string, viewerID string) (*PostView, error) {

	post, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Views++
	s.recordView(ctx, post)

	liked := false
	if viewerID != "" {
		liked, err = s.repomanager.Users(s.db).HasFavorite(ctx, viewerID, id)
		if err != nil {
			return nil, fmt.Errorf("error checking favorites: %w", err)
		}
	}

	return &PostView{Post: post, Liked: liked}, nil
}

func (s *PostService) lookup(ctx context.Context, id string) (*models.Post, error) {
	cached, ok, err := s.cache.Get(ctx, postCacheKey(id))
	if err != nil {
		return nil, fmt.Errorf("error reading post cache: %w", err)
	}
	if ok {
		post := &models.Post{}
		if err := json.Unmarshal([]byte(cached), post); err == nil {
			return post, nil
		}
		// an undecodable entry falls through to the store and gets rewritten
		s.logger.Warn(ctx, "dropping corrupt cache entry", "post_id", id)
	}

	repo := s.repomanager.Posts(s.db)
	post, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	return post, nil
}

// recordView persists the incremented entity in the background. The work is
// detached from the request context so a client disconnect cannot cancel a
// write that the response already promised.
func (s *PostService) recordView(ctx context.Context, post *models.Post) {
	bgCtx := context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		payload, err := json.Marshal(post)
		if err != nil {
			s.logger.Error(bgCtx, "error encoding post for cache", "post_id", post.ID, "error", err)
		} else if err := s.cache.Set(bgCtx, postCacheKey(post.ID), string(payload), s.cacheTTL); err != nil {
			s.logger.Error(bgCtx, "error refreshing post cache", "post_id", post.ID, "error", err)
		}

		repo := s.repomanager.Posts(s.db)
		if err := repo.UpdateViews(bgCtx, post.ID, post.Views); err != nil {
			s.logger.Error(bgCtx, "error persisting view count", "post_id", post.ID, "error", err)
		}
	}()
}

// Wait blocks until all in-flight view persistence has finished.
func (s *PostService) Wait() {
	s.pending.Wait()
}

// CreatePost stores a new post with the author's display name snapshotted
// onto it. An unknown category id is dropped rather than rejected, matching
// the lenient create path.
func (s *PostService) CreatePost(ctx context.Context, authorID string, input *PostInput) (*models.Post, error) {

	userRepo := s.repomanager.Users(s.db)
	fullname, err := userRepo.GetFullname(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("error loading author: %w", err)
	}

	post := &models.Post{
		Title:       input.Title,
		Description: input.Description,
		Picture:     input.Picture,
		Content:     input.Content,
		CreatedBy:   models.Author{ID: authorID, Fullname: fullname},
	}

	if input.CategoryID != "" {
		category, err := s.repomanager.Categories(s.db).GetByID(ctx, input.CategoryID)
		if err == nil {
			post.Category = &models.CategoryRef{ID: category.ID, Name: category.Name}
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error loading category: %w", err)
		}
	}

	repo := s.repomanager.Posts(s.db)
	post, err = repo.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return post, nil
}

// UpdatePost applies author edits. Only the author may edit, and an unknown
// category id is a validation error here, unlike the create path.
// The cache entry is not touched: readers may see the stale copy until its
// TTL runs out.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID string, input *PostInput) (*models.Post, error) {

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}

	if post.CreatedBy.ID != userID {
		return nil, common.ErrorForbidden
	}

	post.Title = input.Title
	post.Description = input.Description
	post.Picture = input.Picture
	post.Content = input.Content

	post.Category = nil
	if input.CategoryID != "" {
		category, err := s.repomanager.Categories(s.db).GetByID(ctx, input.CategoryID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrorValidation
			}
			return nil, fmt.Errorf("error loading category: %w", err)
		}
		post.Category = &models.CategoryRef{ID: category.ID, Name: category.Name}
	}

	if err := repo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	return post, nil
}

// DeletePost removes a post. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading post: %w", err)
	}

	if post.CreatedBy.ID != userID {
		return common.ErrorForbidden
	}

	if err := repo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}

	return nil
}

// ListPosts returns a page of post summaries, newest first. When viewerID is
// set, each post carries a liked flag computed against the viewer's
// favorites; anonymous viewers get liked=false throughout.
func (s *PostService) ListPosts(ctx context.Context, opts *ListOptions, viewerID string) (*PostPage, error) {
	filter := &posts.ListFilter{
		CategoryID: opts.CategoryID,
		Offset:     opts.Offset,
		Limit:      opts.Limit,
	}
	return s.page(ctx, filter, viewerID)
}

// MyPosts returns a page of the given user's own posts.
func (s *PostService) MyPosts(ctx context.Context, userID string, offset, limit int64) (*PostPage, error) {
	filter := &posts.ListFilter{
		AuthorID: userID,
		Offset:   offset,
		Limit:    limit,
	}
	return s.page(ctx, filter, userID)
}

func (s *PostService) page(ctx context.Context, filter *posts.ListFilter, viewerID string) (*PostPage, error) {

	repo := s.repomanager.Posts(s.db)

	list, err := repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}

	liked := map[string]bool{}
	if viewerID != "" {
		favorites, err := s.repomanager.Users(s.db).GetFavorites(ctx, viewerID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error loading favorites: %w", err)
		}
		for _, id := range favorites {
			liked[id] = true
		}
	}

	page := &PostPage{Total: total, Posts: make([]*PostView, 0, len(list))}
	for _, p := range list {
		page.Posts = append(page.Posts, &PostView{Post: p, Liked: liked[p.ID]})
	}

	return page, nil
}
