package http

import (
	"net/http"
	"time"

	"spendline/internal/core"
)

type summaryTotals struct {
	Spent     float64 `json:"spent"`
	Assets    float64 `json:"assets"`
	Remaining float64 `json:"remaining"`
	NetWorth  float64 `json:"net_worth"`
	BudgetPct int     `json:"budget_pct"`
}

type goalProgressResponse struct {
	Goal      goalResponse `json:"goal"`
	Pct       int          `json:"pct"`
	Remaining float64      `json:"remaining"`
	Complete  bool         `json:"complete"`
}

type nextMoveResponse struct {
	GoalID  int64   `json:"goal_id"`
	Title   string  `json:"title"`
	Suggest float64 `json:"suggest"`
}

type analyticsResponse struct {
	DaysInMonth    int     `json:"days_in_month"`
	DaysElapsed    int     `json:"days_elapsed"`
	DaysLeft       int     `json:"days_left"`
	AvgDailySpend  float64 `json:"avg_daily_spend"`
	ProjectedSpend float64 `json:"projected_spend"`
	TopCategory    string  `json:"top_category,omitempty"`
}

type achievementResponse struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Unlocked bool   `json:"unlocked"`
}

type summaryResponse struct {
	Month        string                 `json:"month"`
	Settings     monthSettingsResponse  `json:"settings"`
	Totals       summaryTotals          `json:"totals"`
	Goals        []goalProgressResponse `json:"goals"`
	NextMove     *nextMoveResponse      `json:"next_move"`
	Analytics    analyticsResponse      `json:"analytics"`
	Achievements []achievementResponse  `json:"achievements"`
	Tier         string                 `json:"tier"`
}

// handleSummary loads the month's rows for the caller and recomputes the
// full derived state in one response. Nothing computed here is persisted.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	settings, err := s.repo.GetMonthSettings(ctx, userID, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	expenses, err := s.repo.ListExpenses(ctx, userID, month, s.pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	assets, err := s.repo.ListAssetEvents(ctx, userID, month, s.pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goals, err := s.repo.ListGoals(ctx, userID, month, s.pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	totals := core.Summarize(settings, expenses, assets)
	analytics := core.Analyze(month, expenses, time.Now().UTC())
	achievements := core.EvalAchievements(expenses, assets, goals, settings)

	resp := summaryResponse{
		Month:    string(month),
		Settings: toMonthSettingsResponse(settings),
		Totals: summaryTotals{
			Spent:     core.CentsToAmount(totals.SpentCents),
			Assets:    core.CentsToAmount(totals.AssetsCents),
			Remaining: core.CentsToAmount(totals.RemainingCents),
			NetWorth:  core.CentsToAmount(totals.NetWorthCents),
			BudgetPct: totals.BudgetPct,
		},
		Goals: []goalProgressResponse{},
		Analytics: analyticsResponse{
			DaysInMonth:    analytics.DaysInMonth,
			DaysElapsed:    analytics.DaysElapsed,
			DaysLeft:       analytics.DaysLeft,
			AvgDailySpend:  core.CentsToAmount(analytics.AvgDailySpendCents),
			ProjectedSpend: core.CentsToAmount(analytics.ProjectedSpendCents),
			TopCategory:    analytics.TopCategory,
		},
		Tier: core.TierLabel(achievements),
	}

	for _, g := range core.SortGoals(goals) {
		p := core.ProgressOf(g)
		resp.Goals = append(resp.Goals, goalProgressResponse{
			Goal:      toGoalResponse(g),
			Pct:       p.Pct,
			Remaining: core.CentsToAmount(p.RemainingCents),
			Complete:  p.Complete,
		})
	}

	if move, ok := core.SuggestNextMove(goals); ok {
		resp.NextMove = &nextMoveResponse{
			GoalID:  move.GoalID,
			Title:   move.Title,
			Suggest: core.CentsToAmount(move.SuggestCents),
		}
	}

	for _, a := range achievements {
		resp.Achievements = append(resp.Achievements, achievementResponse{
			Code:     a.Code,
			Label:    a.Label,
			Unlocked: a.Unlocked,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
