package http

import (
	"net/http"
	"strconv"
	"strings"

	"spendline/internal/core"
)

// monthParam extracts and validates the ?month=YYYY-MM query parameter.
func (s *Server) monthParam(w http.ResponseWriter, r *http.Request) (core.MonthKey, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		s.badRequest(w, "missing month")
		return "", false
	}
	month, err := core.ParseMonthKey(raw)
	if err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	return month, true
}

// idParam extracts the ?id= query parameter used by delete endpoints.
func (s *Server) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		s.badRequest(w, "missing id")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

// sanitizeText trims whitespace and strips control characters from
// free-form input.
func sanitizeText(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
