package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

type (
	TransactionKind string

	Money struct {
		Cents int64
	}

	// Wallet is a named account that owns a list of transactions.
	Wallet struct {
		ID          int64
		Name        string
		Currency    string
		Description string
		CreatedAt   time.Time
	}

	// Transaction is a single concrete ledger entry. OriginID carries the
	// id of the recurring template that materialized it, empty for one-off
	// entries recorded directly by the user.
	Transaction struct {
		ID          string
		Amount      Money
		Kind        TransactionKind
		Category    string
		Description string
		CreatedAt   time.Time
		OriginID    string
	}

	// WalletOverview is a wallet plus the totals derived from its entries.
	WalletOverview struct {
		Wallet       Wallet
		Balance      Money
		TotalIncome  Money
		TotalExpense Money
		Entries      int
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyWalletName  = errors.New("empty wallet name")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrTemplateNotFound = errors.New("recurring template not found")
)

// NewEntryID returns a short random identifier for a transaction.
func NewEntryID() string {
	return uuid.NewString()[:8]
}

// SignedCents returns the amount with its sign: negative for expenses,
// positive for income.
func (t Transaction) SignedCents() int64 {
	cents := t.Amount.Cents
	if cents < 0 {
		cents = -cents
	}
	if t.Kind == Expense {
		return -cents
	}
	return cents
}

func (k TransactionKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Sign returns "+" for income and "-" for expense, used in display strings.
func (k TransactionKind) Sign() string {
	if k == Expense {
		return "-"
	}
	return "+"
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.CreatedAt.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	return nil
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyWalletName
	}
	if len(w.Name) > 64 {
		return errors.New("wallet name too long (max 64 characters)")
	}
	if len(w.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// SameDay reports whether two timestamps fall on the same calendar day,
// ignoring time-of-day. Exception-set comparisons use this granularity.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
