package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/goblog/internal/common"
)

type addFavoriteRequest struct {
	PostID string `json:"post_id"`
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PostID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Post id is required"))
		return
	}

	err := s.favorites.AddFavorite(r.Context(), userID(r.Context()), req.PostID)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			writeJSON(w, http.StatusConflict, errorBody("Already in favorites"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Added to favorites"})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	err := s.favorites.RemoveFavorite(r.Context(), userID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			writeJSON(w, http.StatusConflict, errorBody("Not in favorites"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from favorites"})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	page, err := s.favorites.ListFavorites(r.Context(), userID(r.Context()), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Posts: page.Posts, Total: page.Total})
}
