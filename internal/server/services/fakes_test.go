package services

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"sync"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	categoriesrepo "github.com/dmitrijs2005/goblog/internal/server/repositories/categories"
	postsrepo "github.com/dmitrijs2005/goblog/internal/server/repositories/posts"
	usersrepo "github.com/dmitrijs2005/goblog/internal/server/repositories/users"
)

// --- in-memory fakes shared by the service tests ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	getFavoritesErr    error
	updateFavoritesErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = "u-" + u.Username
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) CountByUsername(ctx context.Context, username string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, u := range f.users {
		if u.Username == username {
			count++
		}
	}
	return count, nil
}

func (f *fakeUsersRepo) GetFullname(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return u.Fullname, nil
}

func (f *fakeUsersRepo) GetFavorites(ctx context.Context, userID string) ([]string, error) {
	if f.getFavoritesErr != nil {
		return nil, f.getFavoritesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return slices.Clone(u.Favorites), nil
}

func (f *fakeUsersRepo) UpdateFavorites(ctx context.Context, userID string, favorites []string) error {
	if f.updateFavoritesErr != nil {
		return f.updateFavoritesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.Favorites = slices.Clone(favorites)
	}
	return nil
}

func (f *fakeUsersRepo) HasFavorite(ctx context.Context, userID, postID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	return slices.Contains(u.Favorites, postID), nil
}

type fakePostsRepo struct {
	mu    sync.Mutex
	posts map[string]*models.Post

	getErr         error
	updateViewsErr error
	updateLikesErr error
}

func newFakePostsRepo() *fakePostsRepo {
	return &fakePostsRepo{posts: map[string]*models.Post{}}
}

func (f *fakePostsRepo) add(p *models.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[p.ID] = p
}

func (f *fakePostsRepo) get(id string) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id]
}

func (f *fakePostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = "p-" + p.Title
	}
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.posts[p.ID]; ok {
		stored.Title = p.Title
		stored.Description = p.Description
		stored.Picture = p.Picture
		stored.Content = p.Content
		stored.Category = p.Category
	}
	return nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostsRepo) UpdateViews(ctx context.Context, id string, views int64) error {
	if f.updateViewsErr != nil {
		return f.updateViewsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		p.Views = views
	}
	return nil
}

func (f *fakePostsRepo) UpdateLikes(ctx context.Context, id string, likes int64) error {
	if f.updateLikesErr != nil {
		return f.updateLikesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		p.Likes = likes
	}
	return nil
}

func (f *fakePostsRepo) matches(p *models.Post, filter *postsrepo.ListFilter) bool {
	if filter.CategoryID != "" && (p.Category == nil || p.Category.ID != filter.CategoryID) {
		return false
	}
	if filter.AuthorID != "" && p.CreatedBy.ID != filter.AuthorID {
		return false
	}
	if filter.IDs != nil && !slices.Contains(filter.IDs, p.ID) {
		return false
	}
	return true
}

func (f *fakePostsRepo) List(ctx context.Context, filter *postsrepo.ListFilter) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*models.Post
	for _, p := range f.posts {
		if f.matches(p, filter) {
			clone := *p
			all = append(all, &clone)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if filter.Offset >= int64(len(all)) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < int64(len(all)) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (f *fakePostsRepo) Count(ctx context.Context, filter *postsrepo.ListFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, p := range f.posts {
		if f.matches(p, filter) {
			count++
		}
	}
	return count, nil
}

type fakeCategoriesRepo struct {
	categories map[string]*models.Category
}

func newFakeCategoriesRepo() *fakeCategoriesRepo {
	return &fakeCategoriesRepo{categories: map[string]*models.Category{}}
}

func (f *fakeCategoriesRepo) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if c.ID == "" {
		c.ID = "c-" + c.Name
	}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCategoriesRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeCategoriesRepo) List(ctx context.Context) ([]*models.Category, error) {
	var result []*models.Category
	for _, c := range f.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakePostsRepo
	c *fakeCategoriesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		p: newFakePostsRepo(),
		c: newFakeCategoriesRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository           { return m.u }
func (m *fakeRepoManager) Posts(db dbx.DBTX) postsrepo.Repository           { return m.p }
func (m *fakeRepoManager) Categories(db dbx.DBTX) categoriesrepo.Repository { return m.c }

// fakeLogger records log messages so tests can assert on them.
type fakeLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *fakeLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *fakeLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.messages, msg)
}

func (l *fakeLogger) Debug(ctx context.Context, msg string, args ...any) { l.record(msg) }
func (l *fakeLogger) Info(ctx context.Context, msg string, args ...any)  { l.record(msg) }
func (l *fakeLogger) Warn(ctx context.Context, msg string, args ...any)  { l.record(msg) }
func (l *fakeLogger) Error(ctx context.Context, msg string, args ...any) { l.record(msg) }
func (l *fakeLogger) With(args ...any) logging.Logger                    { return l }
