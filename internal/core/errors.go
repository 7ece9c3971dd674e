package core

import "errors"

var (
	ErrInvalidMonth        = errors.New("invalid month key")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrNegativeBudget      = errors.New("budget cannot be negative")
	ErrNegativeLiabilities = errors.New("liabilities cannot be negative")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyTitle          = errors.New("empty title")
	ErrTitleTooLong        = errors.New("title too long (max 120 characters)")
	ErrInvalidTarget       = errors.New("target amount must be positive")
)
