package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecurringTemplate pairs a RecurrenceRule with the transaction fields it
// stamps onto each occurrence, plus the scheduling watermarks. Templates are
// mutable and owned exclusively by the scheduler; everything outside holds
// only the ID.
type RecurringTemplate struct {
	ID          string
	Amount      Money
	Kind        TransactionKind
	Category    string
	Description string
	WalletName  string
	Rule        RecurrenceRule
	StartDate   time.Time

	IsActive       bool
	GeneratedCount int
	// LastGenerated is the watermark: the most recent occurrence already
	// turned into a ledger entry. Zero until the first materialization.
	LastGenerated time.Time
	// Exceptions holds skipped dates keyed by calendar day (2006-01-02).
	Exceptions map[string]struct{}
}

// NewTemplateID returns a fresh template identifier ("rec-" plus a short
// uuid fragment).
func NewTemplateID() string {
	return "rec-" + uuid.NewString()[:8]
}

// NewRecurringTemplate builds an active template with a fresh ID and no
// watermark. The caller validates before handing it to the scheduler.
func NewRecurringTemplate(amount Money, kind TransactionKind, category, description, walletName string, rule RecurrenceRule, startDate time.Time) *RecurringTemplate {
	return &RecurringTemplate{
		ID:          NewTemplateID(),
		Amount:      amount,
		Kind:        kind,
		Category:    category,
		Description: description,
		WalletName:  walletName,
		Rule:        rule,
		StartDate:   startDate,
		IsActive:    true,
		Exceptions:  make(map[string]struct{}),
	}
}

func (t *RecurringTemplate) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.WalletName) == "" {
		return ErrEmptyWalletName
	}
	if t.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if err := t.Rule.Validate(); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	if t.Rule.End == EndOnDate && t.Rule.EndDate.Before(t.StartDate) {
		return errors.New("end date precedes start date")
	}
	return nil
}

// Transaction materializes one occurrence into a concrete ledger entry dated
// at the occurrence's exact timestamp.
func (t *RecurringTemplate) Transaction(date time.Time) Transaction {
	return Transaction{
		ID:          NewEntryID(),
		Amount:      t.Amount,
		Kind:        t.Kind,
		Category:    t.Category,
		Description: t.Description,
		CreatedAt:   date,
		OriginID:    t.ID,
	}
}

// AddException marks a calendar day as skipped. Days already behind the
// watermark are unaffected: exceptions only prevent future materialization.
func (t *RecurringTemplate) AddException(date time.Time) {
	if t.Exceptions == nil {
		t.Exceptions = make(map[string]struct{})
	}
	t.Exceptions[date.Format(time.DateOnly)] = struct{}{}
}

// IsException reports whether the occurrence's calendar day is skipped.
// Time-of-day is ignored here, while the watermark guard compares full
// timestamps; the two granularities are deliberately different.
func (t *RecurringTemplate) IsException(date time.Time) bool {
	_, ok := t.Exceptions[date.Format(time.DateOnly)]
	return ok
}

// ExceptionDates returns the skipped days sorted ascending.
func (t *RecurringTemplate) ExceptionDates() []string {
	out := make([]string, 0, len(t.Exceptions))
	for day := range t.Exceptions {
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy, used to hand snapshots to callers without
// aliasing the scheduler-owned record.
func (t *RecurringTemplate) Clone() *RecurringTemplate {
	cp := *t
	cp.Exceptions = make(map[string]struct{}, len(t.Exceptions))
	for day := range t.Exceptions {
		cp.Exceptions[day] = struct{}{}
	}
	if t.Rule.MonthWeekday != nil {
		wd := *t.Rule.MonthWeekday
		cp.Rule.MonthWeekday = &wd
	}
	cp.Rule.Weekdays = append([]Weekday(nil), t.Rule.Weekdays...)
	return &cp
}

// Summary returns a one-line display string, e.g.
// "[Active] Rent - -850.00 (Monthly)".
func (t *RecurringTemplate) Summary() string {
	status := "Active"
	if !t.IsActive {
		status = "Paused"
	}
	return fmt.Sprintf("[%s] %s - %s%s (%s)",
		status, t.Category, t.Kind.Sign(), t.Amount.Format(), t.Rule.Describe())
}
