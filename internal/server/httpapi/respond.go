package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/goblog/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(message string) map[string]string {
	return map[string]string{"message": message}
}

// writeError maps service errors onto HTTP statuses. Anything that is not a
// recognized client error is reported as a generic server failure.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request"))
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
	case errors.Is(err, common.ErrorForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("Forbidden"))
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
	case errors.Is(err, common.ErrorConflict):
		writeJSON(w, http.StatusConflict, errorBody("Conflict"))
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error"))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ErrorValidation
	}
	return nil
}
