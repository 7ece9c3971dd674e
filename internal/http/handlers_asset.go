package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"spendline/internal/core"
)

type createAssetRequest struct {
	Month  string           `json:"month"`
	Amount *decimal.Decimal `json:"amount"`
	Note   string           `json:"note"`
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}

	assets, err := s.repo.ListAssetEvents(r.Context(), userID, month, s.pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetResponses(assets))
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req createAssetRequest
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

	asset := core.AssetEvent{
		UserID:      userID,
		Month:       month,
		AmountCents: cents,
		Note:        sanitizeText(req.Note),
		CreatedAt:   time.Now().UTC(),
	}
	if err := asset.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.repo.CreateAssetEvent(r.Context(), asset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Asset event created",
		"id", created.ID,
		"month", string(created.Month),
		"amount_cents", created.AmountCents)
	writeJSON(w, http.StatusCreated, toAssetResponse(created))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteAssetEvent(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "Asset event deleted", "id", id)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
