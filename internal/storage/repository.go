// Package storage implements the SQLite row store. Every query carries an
// explicit user_id filter in addition to any id filter, so a caller can
// never read or mutate another user's rows even if a handler bug slips an
// arbitrary id through.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendline/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an id does not resolve under the caller's
// scope. Foreign rows are indistinguishable from absent ones.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetMonthSettings returns the settings row for (user, month), creating it
// with defaults on first read.
func (r *Repository) GetMonthSettings(ctx context.Context, userID string, month core.MonthKey) (core.MonthSettings, error) {
	s, err := r.scanMonthSettings(ctx, userID, month)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.MonthSettings{}, fmt.Errorf("get month settings: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO month_settings (user_id, month, currency, budget_cents, liabilities_cents, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, ?)
		ON CONFLICT (user_id, month) DO NOTHING`,
		userID, string(month), core.DefaultCurrency, now.Unix(), now.Unix())
	if err != nil {
		return core.MonthSettings{}, fmt.Errorf("create default month settings: %w", err)
	}

	s, err = r.scanMonthSettings(ctx, userID, month)
	if err != nil {
		return core.MonthSettings{}, fmt.Errorf("reread month settings: %w", err)
	}

	slog.InfoContext(ctx, "Month settings created lazily",
		"month", string(month))
	return s, nil
}

// UpsertMonthSettings writes budget, currency, and liabilities for
// (user, month) and returns the stored row.
func (r *Repository) UpsertMonthSettings(ctx context.Context, s core.MonthSettings) (core.MonthSettings, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO month_settings (user_id, month, currency, budget_cents, liabilities_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, month) DO UPDATE SET
			currency = excluded.currency,
			budget_cents = excluded.budget_cents,
			liabilities_cents = excluded.liabilities_cents,
			updated_at = excluded.updated_at`,
		s.UserID, string(s.Month), s.Currency, s.BudgetCents, s.LiabilitiesCents, now.Unix(), now.Unix())
	if err != nil {
		return core.MonthSettings{}, fmt.Errorf("upsert month settings: %w", err)
	}

	stored, err := r.scanMonthSettings(ctx, s.UserID, s.Month)
	if err != nil {
		return core.MonthSettings{}, fmt.Errorf("reread month settings: %w", err)
	}
	return stored, nil
}

func (r *Repository) scanMonthSettings(ctx context.Context, userID string, month core.MonthKey) (core.MonthSettings, error) {
	var (
		s                core.MonthSettings
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, month, currency, budget_cents, liabilities_cents, created_at, updated_at
		FROM month_settings
		WHERE user_id = ? AND month = ?`,
		userID, string(month)).
		Scan(&s.UserID, &s.Month, &s.Currency, &s.BudgetCents, &s.LiabilitiesCents, &created, &updated)
	if err != nil {
		return core.MonthSettings{}, err
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.UpdatedAt = time.Unix(updated, 0).UTC()
	return s, nil
}

// ListExpenses returns the month's expenses newest first, capped at limit.
func (r *Repository) ListExpenses(ctx context.Context, userID string, month core.MonthKey, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, month, amount_cents, category, description, occurred_at
		FROM expenses
		WHERE user_id = ? AND month = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`,
		userID, string(month), limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var (
			e        core.Expense
			occurred int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Month, &e.AmountCents, &e.Category, &e.Description, &occurred); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.OccurredAt = time.Unix(occurred, 0).UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, month, amount_cents, category, description, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, string(e.Month), e.AmountCents, e.Category, e.Description, e.OccurredAt.Unix())
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	return e, nil
}

// ExpensePatch carries the optional fields of an expense update; nil means
// leave unchanged.
type ExpensePatch struct {
	AmountCents *int64
	Category    *string
	Description *string
}

// UpdateExpense patches the expense scoped to (id, user) and returns the
// updated row.
func (r *Repository) UpdateExpense(ctx context.Context, userID string, id int64, patch ExpensePatch) (core.Expense, error) {
	e, err := r.getExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}

	if patch.AmountCents != nil {
		e.AmountCents = *patch.AmountCents
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount_cents = ?, category = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		e.AmountCents, e.Category, e.Description, id, userID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return e, nil
}

func (r *Repository) getExpense(ctx context.Context, userID string, id int64) (core.Expense, error) {
	var (
		e        core.Expense
		occurred int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, month, amount_cents, category, description, occurred_at
		FROM expenses
		WHERE id = ? AND user_id = ?`,
		id, userID).
		Scan(&e.ID, &e.UserID, &e.Month, &e.AmountCents, &e.Category, &e.Description, &occurred)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	e.OccurredAt = time.Unix(occurred, 0).UTC()
	return e, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, userID string, id int64) error {
	return r.deleteScoped(ctx, "expenses", userID, id)
}

// ListAssetEvents returns the month's asset events newest first.
func (r *Repository) ListAssetEvents(ctx context.Context, userID string, month core.MonthKey, limit int) ([]core.AssetEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, month, amount_cents, note, created_at
		FROM asset_events
		WHERE user_id = ? AND month = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, string(month), limit)
	if err != nil {
		return nil, fmt.Errorf("list asset events: %w", err)
	}
	defer rows.Close()

	events := []core.AssetEvent{}
	for rows.Next() {
		var (
			a       core.AssetEvent
			created int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Month, &a.AmountCents, &a.Note, &created); err != nil {
			return nil, fmt.Errorf("scan asset event: %w", err)
		}
		a.CreatedAt = time.Unix(created, 0).UTC()
		events = append(events, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list asset events: %w", err)
	}
	return events, nil
}

func (r *Repository) CreateAssetEvent(ctx context.Context, a core.AssetEvent) (core.AssetEvent, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO asset_events (user_id, month, amount_cents, note, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.UserID, string(a.Month), a.AmountCents, a.Note, a.CreatedAt.Unix())
	if err != nil {
		return core.AssetEvent{}, fmt.Errorf("create asset event: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.AssetEvent{}, fmt.Errorf("asset event insert id: %w", err)
	}
	return a, nil
}

func (r *Repository) DeleteAssetEvent(ctx context.Context, userID string, id int64) error {
	return r.deleteScoped(ctx, "asset_events", userID, id)
}

// ListGoals returns the month's saving goals newest first.
func (r *Repository) ListGoals(ctx context.Context, userID string, month core.MonthKey, limit int) ([]core.SavingGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, month, title, target_cents, saved_cents, created_at, updated_at
		FROM saving_goals
		WHERE user_id = ? AND month = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, string(month), limit)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	goals := []core.SavingGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.SavingGoal) (core.SavingGoal, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO saving_goals (user_id, month, title, target_cents, saved_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		g.UserID, string(g.Month), g.Title, g.TargetCents, g.CreatedAt.Unix(), g.CreatedAt.Unix())
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("create goal: %w", err)
	}
	g.SavedCents = 0
	g.UpdatedAt = g.CreatedAt
	g.ID, err = res.LastInsertId()
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("goal insert id: %w", err)
	}
	return g, nil
}

// GoalPatch carries the optional fields of a goal edit; nil means leave
// unchanged.
type GoalPatch struct {
	Title       *string
	TargetCents *int64
}

// UpdateGoal patches title and target scoped to (id, user). Lowering the
// target clamps the saved amount so the invariant saved <= target holds.
func (r *Repository) UpdateGoal(ctx context.Context, userID string, id int64, patch GoalPatch) (core.SavingGoal, error) {
	g, err := r.GetGoal(ctx, userID, id)
	if err != nil {
		return core.SavingGoal{}, err
	}

	if patch.Title != nil {
		g.Title = *patch.Title
	}
	if patch.TargetCents != nil {
		g.TargetCents = *patch.TargetCents
		if g.TargetCents > 0 && g.SavedCents > g.TargetCents {
			g.SavedCents = g.TargetCents
		}
	}
	if err := g.Validate(); err != nil {
		return core.SavingGoal{}, err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		UPDATE saving_goals
		SET title = ?, target_cents = ?, saved_cents = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		g.Title, g.TargetCents, g.SavedCents, now.Unix(), id, userID)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("update goal: %w", err)
	}
	g.UpdatedAt = now
	return g, nil
}

// AddGoalProgress applies addCents to the goal's saved amount, capped so
// saved never exceeds a positive target. The read-modify-write runs in one
// transaction so concurrent additions cannot break the cap. Returns the
// updated goal and the amount actually applied.
func (r *Repository) AddGoalProgress(ctx context.Context, userID string, id int64, addCents int64) (core.SavingGoal, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.SavingGoal{}, 0, fmt.Errorf("begin add progress: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, month, title, target_cents, saved_cents, created_at, updated_at
		FROM saving_goals
		WHERE id = ? AND user_id = ?`,
		id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingGoal{}, 0, ErrNotFound
	}
	if err != nil {
		return core.SavingGoal{}, 0, err
	}

	applied := core.CapProgress(g.TargetCents, g.SavedCents, addCents)
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE saving_goals
		SET saved_cents = saved_cents + ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		applied, now.Unix(), id, userID)
	if err != nil {
		return core.SavingGoal{}, 0, fmt.Errorf("add goal progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.SavingGoal{}, 0, fmt.Errorf("commit add progress: %w", err)
	}

	g.SavedCents += applied
	g.UpdatedAt = now
	return g, applied, nil
}

// GetGoal returns the goal scoped to (id, user).
func (r *Repository) GetGoal(ctx context.Context, userID string, id int64) (core.SavingGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, month, title, target_cents, saved_cents, created_at, updated_at
		FROM saving_goals
		WHERE id = ? AND user_id = ?`,
		id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingGoal{}, ErrNotFound
	}
	return g, err
}

func (r *Repository) DeleteGoal(ctx context.Context, userID string, id int64) error {
	return r.deleteScoped(ctx, "saving_goals", userID, id)
}

// deleteScoped removes one row by (id, user). A miss surfaces ErrNotFound
// rather than silent success: foreign and absent ids look identical.
func (r *Repository) deleteScoped(ctx context.Context, table, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id = ? AND user_id = ?",
		id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (core.SavingGoal, error) {
	var (
		g                core.SavingGoal
		created, updated int64
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Month, &g.Title, &g.TargetCents, &g.SavedCents, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SavingGoal{}, err
		}
		return core.SavingGoal{}, fmt.Errorf("scan goal: %w", err)
	}
	g.CreatedAt = time.Unix(created, 0).UTC()
	g.UpdatedAt = time.Unix(updated, 0).UTC()
	return g, nil
}
