package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"spendline/internal/core"
	"spendline/internal/storage"
)

type createGoalRequest struct {
	Month        string           `json:"month"`
	Title        string           `json:"title"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
}

// updateGoalRequest covers both patch modes: title/target edits, or a
// single add_amount progress step. The two modes are mutually exclusive.
type updateGoalRequest struct {
	ID           int64            `json:"id"`
	Title        *string          `json:"title"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	AddAmount    *decimal.Decimal `json:"add_amount"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	goals, err := s.repo.ListGoals(r.Context(), userID, month, s.pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponses(goals))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TargetAmount == nil {
		s.badRequest(w, "missing target_amount")
		return
	}
	targetCents, err := core.PositiveCents(*req.TargetAmount)
	if err != nil {
		s.writeError(w, r, core.ErrInvalidTarget)
		return
	}

	goal := core.SavingGoal{
		UserID:      userID,
		Month:       month,
		Title:       sanitizeText(req.Title),
		TargetCents: targetCents,
		CreatedAt:   time.Now().UTC(),
	}
	if err := goal.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.repo.CreateGoal(r.Context(), goal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Goal created",
		"id", created.ID,
		"month", string(created.Month),
		"target_cents", created.TargetCents)
	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.ID <= 0 {
		s.badRequest(w, "missing id")
		return
	}

	if req.AddAmount != nil {
		if req.Title != nil || req.TargetAmount != nil {
			s.badRequest(w, "add_amount cannot be combined with other fields")
			return
		}
		s.addGoalProgress(w, r, userID, req.ID, *req.AddAmount)
		return
	}

	var patch storage.GoalPatch
	if req.Title != nil {
		title := sanitizeText(*req.Title)
		patch.Title = &title
	}
	if req.TargetAmount != nil {
		targetCents, err := core.PositiveCents(*req.TargetAmount)
		if err != nil {
			s.writeError(w, r, core.ErrInvalidTarget)
			return
		}
		patch.TargetCents = &targetCents
	}
	if patch.Title == nil && patch.TargetCents == nil {
		s.badRequest(w, "nothing to update")
		return
	}

	updated, err := s.repo.UpdateGoal(r.Context(), userID, req.ID, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(updated))
}

// addGoalProgress applies a capped saved-amount increase: the stored value
// never passes the target while the target is positive.
func (s *Server) addGoalProgress(w http.ResponseWriter, r *http.Request, userID string, id int64, amount decimal.Decimal) {
	addCents, err := core.PositiveCents(amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, applied, err := s.repo.AddGoalProgress(r.Context(), userID, id, addCents)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Goal progress added",
		"id", id,
		"requested_cents", addCents,
		"applied_cents", applied,
		"saved_cents", updated.SavedCents)
	writeJSON(w, http.StatusOK, toGoalResponse(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteGoal(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Goal deleted", "id", id)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
