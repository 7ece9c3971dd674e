package core

import (
	"sort"
	"time"
)

// Derived state is never persisted: every value in this file is recomputed
// from the record lists currently loaded for one (user, month) pair.

type (
	// MonthSummary aggregates the plain totals for one month.
	MonthSummary struct {
		SpentCents     int64
		AssetsCents    int64
		RemainingCents int64
		NetWorthCents  int64
		BudgetPct      int
	}

	// GoalProgress is the derived view of a single saving goal.
	GoalProgress struct {
		Goal           SavingGoal
		Pct            int
		RemainingCents int64
		Complete       bool
	}

	// NextMove is the suggested top-up for the most promising goal.
	NextMove struct {
		GoalID       int64
		Title        string
		SuggestCents int64
	}

	// Analytics holds the month-relative mini statistics.
	Analytics struct {
		DaysInMonth         int
		DaysElapsed         int
		DaysLeft            int
		AvgDailySpendCents  int64
		ProjectedSpendCents int64
		TopCategory         string
	}

	// Achievement is a purely presentational unlock flag.
	Achievement struct {
		Code     string
		Label    string
		Unlocked bool
	}
)

// roundRatio computes round(100*num/den) with integer half-up rounding.
func roundRatio(num, den int64) int {
	if den <= 0 {
		return 0
	}
	return int((num*100 + den/2) / den)
}

func clampPct(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Summarize computes the aggregate totals for a month from its loaded rows.
func Summarize(settings MonthSettings, expenses []Expense, assets []AssetEvent) MonthSummary {
	var spent, assetTotal int64
	for _, e := range expenses {
		spent += e.AmountCents
	}
	for _, a := range assets {
		assetTotal += a.AmountCents
	}

	s := MonthSummary{
		SpentCents:     spent,
		AssetsCents:    assetTotal,
		RemainingCents: settings.BudgetCents - spent,
		NetWorthCents:  assetTotal - settings.LiabilitiesCents,
	}
	if settings.BudgetCents > 0 {
		s.BudgetPct = clampPct(roundRatio(spent, settings.BudgetCents))
	}
	return s
}

// ProgressOf derives the progress view of one goal. Negative stored values
// are treated as zero so a damaged row cannot produce nonsense percentages.
func ProgressOf(g SavingGoal) GoalProgress {
	target := g.TargetCents
	if target < 0 {
		target = 0
	}
	saved := g.SavedCents
	if saved < 0 {
		saved = 0
	}

	p := GoalProgress{Goal: g}
	if target > 0 {
		p.Pct = clampPct(roundRatio(saved, target))
		p.Complete = saved >= target
	}
	if remaining := target - saved; remaining > 0 {
		p.RemainingCents = remaining
	}
	return p
}

// SortGoals returns a ranked copy: incomplete goals first, then higher
// percentage, ties broken by newest creation time.
func SortGoals(goals []SavingGoal) []SavingGoal {
	ranked := make([]SavingGoal, len(goals))
	copy(ranked, goals)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := ProgressOf(ranked[i]), ProgressOf(ranked[j])
		if pi.Complete != pj.Complete {
			return !pi.Complete
		}
		if pi.Pct != pj.Pct {
			return pi.Pct > pj.Pct
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return ranked
}

// SuggestNextMove picks the first incomplete goal from the ranking (or the
// top-ranked goal when everything is complete) and suggests a top-up:
// below the 50% mark the suggestion reaches 50%, from there it reaches the
// target. Returns false when there are no goals at all.
func SuggestNextMove(goals []SavingGoal) (NextMove, bool) {
	if len(goals) == 0 {
		return NextMove{}, false
	}

	ranked := SortGoals(goals)
	pick := ranked[0]
	for _, g := range ranked {
		if !ProgressOf(g).Complete {
			pick = g
			break
		}
	}

	progress := ProgressOf(pick)
	move := NextMove{GoalID: pick.ID, Title: pick.Title}
	switch {
	case progress.Complete:
		move.SuggestCents = 0
	case progress.Pct < 50:
		half := (pick.TargetCents + 1) / 2
		if suggest := half - pick.SavedCents; suggest > 0 {
			move.SuggestCents = suggest
		}
	default:
		move.SuggestCents = progress.RemainingCents
	}
	return move, true
}

// Analyze computes the month-relative statistics. The clock is an explicit
// argument so past, current, and future months are handled deterministically.
func Analyze(month MonthKey, expenses []Expense, now time.Time) Analytics {
	a := Analytics{DaysInMonth: month.DaysInMonth()}

	nowKey := MonthKey(now.Format("2006-01"))
	switch {
	case month < nowKey:
		a.DaysElapsed = a.DaysInMonth
	case month > nowKey:
		a.DaysElapsed = 0
	default:
		a.DaysElapsed = now.Day()
	}
	a.DaysLeft = a.DaysInMonth - a.DaysElapsed

	var spent int64
	sums := make(map[string]int64)
	var order []string
	for _, e := range expenses {
		spent += e.AmountCents
		if _, seen := sums[e.Category]; !seen {
			order = append(order, e.Category)
		}
		sums[e.Category] += e.AmountCents
	}

	if a.DaysElapsed > 0 {
		elapsed := int64(a.DaysElapsed)
		a.AvgDailySpendCents = (spent + elapsed/2) / elapsed
		a.ProjectedSpendCents = a.AvgDailySpendCents * int64(a.DaysInMonth)
	}

	// First encountered category wins ties.
	var best int64
	for _, cat := range order {
		if sums[cat] > best {
			best = sums[cat]
			a.TopCategory = cat
		}
	}
	return a
}

// EvalAchievements derives the fixed unlock set from the loaded lists.
func EvalAchievements(expenses []Expense, assets []AssetEvent, goals []SavingGoal, settings MonthSettings) []Achievement {
	anyGoalHalf := false
	anyGoalDone := false
	for _, g := range goals {
		p := ProgressOf(g)
		if p.Pct >= 50 {
			anyGoalHalf = true
		}
		if p.Complete {
			anyGoalDone = true
		}
	}

	return []Achievement{
		{Code: "first_expense", Label: "First expense logged", Unlocked: len(expenses) >= 1},
		{Code: "five_expenses", Label: "5 expenses logged", Unlocked: len(expenses) >= 5},
		{Code: "ten_expenses", Label: "10 expenses logged", Unlocked: len(expenses) >= 10},
		{Code: "first_asset", Label: "First asset recorded", Unlocked: len(assets) >= 1},
		{Code: "first_goal", Label: "First goal created", Unlocked: len(goals) >= 1},
		{Code: "goal_halfway", Label: "A goal reached 50%", Unlocked: anyGoalHalf},
		{Code: "goal_complete", Label: "A goal reached 100%", Unlocked: anyGoalDone},
		{Code: "budget_set", Label: "Monthly budget set", Unlocked: settings.BudgetCents > 0},
	}
}

// TierLabel maps the number of unlocked achievements onto the highest
// satisfied tier.
func TierLabel(achievements []Achievement) string {
	unlocked := 0
	for _, a := range achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	switch {
	case unlocked >= 8:
		return "Platinum"
	case unlocked >= 6:
		return "Gold"
	case unlocked >= 4:
		return "Silver"
	case unlocked >= 2:
		return "Bronze"
	default:
		return "Starter"
	}
}
