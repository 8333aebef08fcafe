package httpapi

import "net/http"

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// handleUploadURL hands the client a presigned PUT url; the upload itself
// goes straight to the object store.
func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.pictures.GetUploadURL(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Key: key, URL: url})
}
