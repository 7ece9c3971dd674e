package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"spendline/internal/auth"
	"spendline/internal/core"
	"spendline/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var validationErrs = []error{
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrInvalidCurrency,
	core.ErrNegativeBudget,
	core.ErrNegativeLiabilities,
	core.ErrUnknownCategory,
	core.ErrDescriptionTooLong,
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrInvalidTarget,
}

func isValidationErr(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// writeError maps the error taxonomy onto statuses. Store failures are
// reported generically; the detail only reaches the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case isValidationErr(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		s.log.ErrorContext(r.Context(), "Store operation failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// userID pulls the identity resolved by the auth middleware. All /api
// routes sit behind the gate, so a miss here is a programming error and is
// reported as unauthorized anyway.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	}
	return id, ok
}
