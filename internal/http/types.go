package http

import (
	"time"

	"spendline/internal/core"
)

// Response shapes. Amounts stored as cents are exposed as decimal numbers.

type monthSettingsResponse struct {
	Month       string  `json:"month"`
	Currency    string  `json:"currency"`
	Budget      float64 `json:"budget"`
	Liabilities float64 `json:"liabilities"`
}

type expenseResponse struct {
	ID          int64     `json:"id"`
	Month       string    `json:"month"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type assetResponse struct {
	ID        int64     `json:"id"`
	Month     string    `json:"month"`
	Amount    float64   `json:"amount"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type goalResponse struct {
	ID           int64     `json:"id"`
	Month        string    `json:"month"`
	Title        string    `json:"title"`
	TargetAmount float64   `json:"target_amount"`
	SavedAmount  float64   `json:"saved_amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toMonthSettingsResponse(s core.MonthSettings) monthSettingsResponse {
	return monthSettingsResponse{
		Month:       string(s.Month),
		Currency:    s.Currency,
		Budget:      core.CentsToAmount(s.BudgetCents),
		Liabilities: core.CentsToAmount(s.LiabilitiesCents),
	}
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Month:       string(e.Month),
		Amount:      core.CentsToAmount(e.AmountCents),
		Category:    e.Category,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
	}
}

func toAssetResponse(a core.AssetEvent) assetResponse {
	return assetResponse{
		ID:        a.ID,
		Month:     string(a.Month),
		Amount:    core.CentsToAmount(a.AmountCents),
		Note:      a.Note,
		CreatedAt: a.CreatedAt,
	}
}

func toGoalResponse(g core.SavingGoal) goalResponse {
	return goalResponse{
		ID:           g.ID,
		Month:        string(g.Month),
		Title:        g.Title,
		TargetAmount: core.CentsToAmount(g.TargetCents),
		SavedAmount:  core.CentsToAmount(g.SavedCents),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func toExpenseResponses(in []core.Expense) []expenseResponse {
	out := make([]expenseResponse, len(in))
	for i, e := range in {
		out[i] = toExpenseResponse(e)
	}
	return out
}

func toAssetResponses(in []core.AssetEvent) []assetResponse {
	out := make([]assetResponse, len(in))
	for i, a := range in {
		out[i] = toAssetResponse(a)
	}
	return out
}

func toGoalResponses(in []core.SavingGoal) []goalResponse {
	out := make([]goalResponse, len(in))
	for i, g := range in {
		out[i] = toGoalResponse(g)
	}
	return out
}
