package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/goblog/internal/server/services"
)

const (
	defaultPageLimit = 5
	maxPageLimit     = 50
)

func pageParams(r *http.Request) (int64, int64) {
	offset, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	if err != nil || offset < 0 {
		offset = 0
	}
	// an explicit limit=0 is honored and yields an empty page with the total
	limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if err != nil || limit < 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}

type postRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Picture     string `json:"picture"`
	Content     string `json:"content"`
	CategoryID  string `json:"category_id"`
}

type pageResponse struct {
	Posts []*services.PostView `json:"posts"`
	Total int64                `json:"total"`
}

type postDetailResponse struct {
	*services.PostView
	PictureURL string `json:"picture_url,omitempty"`
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.GetPost(r.Context(), chi.URLParam(r, "id"), userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := postDetailResponse{PostView: post}
	if post.Picture != "" {
		url, err := s.pictures.GetDownloadURL(r.Context(), post.Picture)
		if err != nil {
			// the post is still servable without its picture link
			s.logger.Warn(r.Context(), "error presigning picture url", "post_id", post.ID, "error", err)
		} else {
			resp.PictureURL = url
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	opts := &services.ListOptions{
		CategoryID: r.URL.Query().Get("category"),
		Offset:     offset,
		Limit:      limit,
	}

	page, err := s.posts.ListPosts(r.Context(), opts, userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Posts: page.Posts, Total: page.Total})
}

func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	page, err := s.posts.MyPosts(r.Context(), userID(r.Context()), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Posts: page.Posts, Total: page.Total})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Title is required"))
		return
	}

	post, err := s.posts.CreatePost(r.Context(), userID(r.Context()), &services.PostInput{
		Title:       req.Title,
		Description: req.Description,
		Picture:     req.Picture,
		Content:     req.Content,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Title is required"))
		return
	}

	post, err := s.posts.UpdatePost(r.Context(), userID(r.Context()), chi.URLParam(r, "id"),
		&services.PostInput{
			Title:       req.Title,
			Description: req.Description,
			Picture:     req.Picture,
			Content:     req.Content,
			CategoryID:  req.CategoryID,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	err := s.posts.DeletePost(r.Context(), userID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}
