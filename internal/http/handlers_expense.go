package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"spendline/internal/core"
	"spendline/internal/storage"
)

type createExpenseRequest struct {
	Month       string           `json:"month"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	OccurredAt  *time.Time       `json:"occurred_at"`
}

type updateExpenseRequest struct {
	ID          int64            `json:"id"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	expenses, err := s.repo.ListExpenses(r.Context(), userID, month, s.pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Amount == nil {
		s.badRequest(w, "missing amount")
		return
	}
	cents, err := core.PositiveCents(*req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	expense := core.Expense{
		UserID:      userID,
		Month:       month,
		AmountCents: cents,
		Category:    core.NormalizeCategory(req.Category),
		Description: sanitizeText(req.Description),
		OccurredAt:  occurredAt,
	}
	if err := expense.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.repo.CreateExpense(r.Context(), expense)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Expense created",
		"id", created.ID,
		"month", string(created.Month),
		"amount_cents", created.AmountCents,
		"category", created.Category)
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.ID <= 0 {
		s.badRequest(w, "missing id")
		return
	}

	var patch storage.ExpensePatch
	if req.Amount != nil {
		cents, err := core.PositiveCents(*req.Amount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.AmountCents = &cents
	}
	if req.Category != nil {
		category := core.NormalizeCategory(*req.Category)
		patch.Category = &category
	}
	if req.Description != nil {
		description := sanitizeText(*req.Description)
		patch.Description = &description
	}
	if patch.AmountCents == nil && patch.Category == nil && patch.Description == nil {
		s.badRequest(w, "nothing to update")
		return
	}

	updated, err := s.repo.UpdateExpense(r.Context(), userID, req.ID, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteExpense(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Expense deleted", "id", id)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
