package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"spendline/internal/core"
)

type monthSettingsRequest struct {
	Month       string           `json:"month"`
	Currency    string           `json:"currency"`
	Budget      *decimal.Decimal `json:"budget"`
	Liabilities *decimal.Decimal `json:"liabilities"`
}

// handleGetMonthSettings returns the settings for (user, month), creating
// the row with defaults on first read.
func (s *Server) handleGetMonthSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	settings, err := s.repo.GetMonthSettings(r.Context(), userID, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthSettingsResponse(settings))
}

func (s *Server) handlePutMonthSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req monthSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = core.DefaultCurrency
	}

	settings := core.MonthSettings{
		UserID:   userID,
		Month:    month,
		Currency: currency,
	}
	if req.Budget == nil {
		s.badRequest(w, "missing budget")
		return
	}
	budgetCents, err := core.NonNegativeCents(*req.Budget)
	if err != nil {
		s.writeError(w, r, core.ErrNegativeBudget)
		return
	}
	settings.BudgetCents = budgetCents
	if req.Liabilities != nil {
		cents, err := core.NonNegativeCents(*req.Liabilities)
		if err != nil {
			s.writeError(w, r, core.ErrNegativeLiabilities)
			return
		}
		settings.LiabilitiesCents = cents
	}

	if err := settings.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	stored, err := s.repo.UpsertMonthSettings(r.Context(), settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Month settings saved",
		"month", string(month),
		"budget_cents", stored.BudgetCents)
	writeJSON(w, http.StatusOK, toMonthSettingsResponse(stored))
}
