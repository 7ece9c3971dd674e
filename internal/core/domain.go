package core

import (
	"regexp"
	"strings"
	"time"
)

// Expense categories form a closed set; anything unknown falls back to
// CategoryOther at the boundary.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryHousing       = "Housing"
	CategoryUtilities     = "Utilities"
	CategoryHealth        = "Health"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
	CategoryEducation     = "Education"
	CategoryOther         = "Other"
)

// DefaultCurrency is applied when month settings are created lazily.
const DefaultCurrency = "GHS"

type (
	// MonthKey identifies a budgeting period as "YYYY-MM".
	MonthKey string

	// MonthSettings holds per-user configuration for one month.
	// Budget and liabilities are informational amounts in cents.
	MonthSettings struct {
		UserID           string
		Month            MonthKey
		Currency         string
		BudgetCents      int64
		LiabilitiesCents int64
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	// Expense is a single spend entry within a month.
	Expense struct {
		ID          int64
		UserID      string
		Month       MonthKey
		AmountCents int64
		Category    string
		Description string
		OccurredAt  time.Time
	}

	// AssetEvent records an amount added to the user's assets.
	AssetEvent struct {
		ID          int64
		UserID      string
		Month       MonthKey
		AmountCents int64
		Note        string
		CreatedAt   time.Time
	}

	// SavingGoal tracks progress toward a target amount. SavedCents only
	// grows, and never past TargetCents while the target is positive.
	SavingGoal struct {
		ID          int64
		UserID      string
		Month       MonthKey
		Title       string
		TargetCents int64
		SavedCents  int64
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var categories = map[string]bool{
	CategoryFood:          true,
	CategoryTransport:     true,
	CategoryHousing:       true,
	CategoryUtilities:     true,
	CategoryHealth:        true,
	CategoryEntertainment: true,
	CategoryShopping:      true,
	CategoryEducation:     true,
	CategoryOther:         true,
}

// ParseMonthKey validates and normalizes a "YYYY-MM" month key.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if !monthKeyPattern.MatchString(s) {
		return "", ErrInvalidMonth
	}
	return MonthKey(s), nil
}

// Year returns the four-digit year of the key.
func (m MonthKey) Year() int {
	t, _ := time.Parse("2006-01", string(m))
	return t.Year()
}

// Month returns the month number (1-12) of the key.
func (m MonthKey) Month() int {
	t, _ := time.Parse("2006-01", string(m))
	return int(t.Month())
}

// DaysInMonth returns the number of calendar days in the keyed month.
func (m MonthKey) DaysInMonth() int {
	first, _ := time.Parse("2006-01", string(m))
	return first.AddDate(0, 1, -1).Day()
}

// Validate checks a month key already held as MonthKey (e.g. read back
// from storage).
func (m MonthKey) Validate() error {
	if !monthKeyPattern.MatchString(string(m)) {
		return ErrInvalidMonth
	}
	return nil
}

// NormalizeCategory maps free-form input onto the closed category set.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !categories[s] {
		return CategoryOther
	}
	return s
}

// ValidCategory reports whether s is one of the known categories.
func ValidCategory(s string) bool {
	return categories[s]
}

func (s MonthSettings) Validate() error {
	if err := s.Month.Validate(); err != nil {
		return err
	}
	if len(s.Currency) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range s.Currency {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrency
		}
	}
	if s.BudgetCents < 0 {
		return ErrNegativeBudget
	}
	if s.LiabilitiesCents < 0 {
		return ErrNegativeLiabilities
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Month.Validate(); err != nil {
		return err
	}
	if e.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if !ValidCategory(e.Category) {
		return ErrUnknownCategory
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (a AssetEvent) Validate() error {
	if err := a.Month.Validate(); err != nil {
		return err
	}
	if a.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if len(a.Note) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (g SavingGoal) Validate() error {
	if err := g.Month.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(g.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(g.Title) > 120 {
		return ErrTitleTooLong
	}
	if g.TargetCents <= 0 {
		return ErrInvalidTarget
	}
	if g.SavedCents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// CapProgress returns how much of addCents may actually be applied to a
// goal so that saved never exceeds a positive target. A target of zero or
// below means the goal is unbounded and the addition passes through.
func CapProgress(targetCents, savedCents, addCents int64) int64 {
	if targetCents <= 0 {
		return addCents
	}
	room := targetCents - savedCents
	if room < 0 {
		room = 0
	}
	if addCents > room {
		return room
	}
	return addCents
}
