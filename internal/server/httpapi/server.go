// Package httpapi exposes the blog services over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/revocation"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

type Server struct {
	addr       string
	logger     logging.Logger
	auth       *authenticator
	users      *services.UserService
	posts      *services.PostService
	favorites  *services.FavoriteService
	categories *services.CategoryService
	pictures   *services.PictureService
}

func NewServer(addr string, logger logging.Logger, jwtSecret []byte, revocations *revocation.Store,
	users *services.UserService, posts *services.PostService, favorites *services.FavoriteService,
	categories *services.CategoryService, pictures *services.PictureService) *Server {
	return &Server{
		addr:       addr,
		logger:     logger,
		auth:       &authenticator{secret: jwtSecret, revocations: revocations, logger: logger},
		users:      users,
		posts:      posts,
		favorites:  favorites,
		categories: categories,
		pictures:   pictures,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Get("/categories", s.handleListCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.optional)
			r.Get("/posts", s.handleListPosts)
			r.Get("/posts/{id}", s.handleGetPost)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.required)
			r.Get("/ping", s.handlePing)
			r.Post("/logout", s.handleLogout)

			r.Post("/posts", s.handleCreatePost)
			r.Put("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Get("/my-posts", s.handleMyPosts)

			r.Get("/favorites", s.handleListFavorites)
			r.Post("/favorites", s.handleAddFavorite)
			r.Delete("/favorites/{id}", s.handleRemoveFavorite)

			r.Get("/uploads", s.handleUploadURL)
		})
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully and
// drains the write-behind view persistence.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting http server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.posts.Wait()
	s.logger.Info(ctx, "http server stopped")

	return nil
}

// handlePing echoes the authenticated subject so a client can check whether
// its session is still good.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID(r.Context())})
}
