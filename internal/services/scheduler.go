package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moneta/internal/core"
)

// Scheduler owns the recurring templates and materializes their due
// occurrences into the ledger. Templates never leave the scheduler: callers
// get clones and refer to templates by id.
//
// All operations serialize on one mutex, so at most one ProcessDue or
// template mutation is in flight at a time regardless of how many goroutines
// the hosting application runs.
type Scheduler struct {
	mu        sync.Mutex
	ledger    Ledger
	store     TemplateStore // optional, nil disables persistence
	templates map[string]*core.RecurringTemplate
}

// TemplateEdit carries optional field updates; nil fields are left unchanged.
type TemplateEdit struct {
	Amount      *core.Money
	Category    *string
	Description *string
}

func NewScheduler(ledger Ledger, store TemplateStore) *Scheduler {
	return &Scheduler{
		ledger:    ledger,
		store:     store,
		templates: make(map[string]*core.RecurringTemplate),
	}
}

// Restore seeds the scheduler from the template store. Called once at boot,
// before any ProcessDue.
func (s *Scheduler) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tmpl := range templates {
		s.templates[tmpl.ID] = tmpl
	}

	slog.InfoContext(ctx, "Restored recurring templates", "count", len(templates))
	return nil
}

// Add validates and registers a template, returning its id.
func (s *Scheduler) Add(ctx context.Context, tmpl *core.RecurringTemplate) (string, error) {
	if err := tmpl.Validate(); err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tmpl.ID] = tmpl
	s.persist(ctx, tmpl)

	slog.InfoContext(ctx, "Recurring template added",
		"id", tmpl.ID,
		"wallet", tmpl.WalletName,
		"pattern", tmpl.Rule.Describe())
	return tmpl.ID, nil
}

// Remove deletes a template. The policy decides the fate of entries already
// generated from it; cleanup is delegated to the ledger. Returns a snapshot
// of the removed template and how many ledger entries were deleted.
func (s *Scheduler) Remove(ctx context.Context, id string, policy DeletePolicy, now time.Time) (*core.RecurringTemplate, int, error) {
	if !policy.Valid() {
		return nil, 0, fmt.Errorf("unknown delete policy %q", policy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return nil, 0, core.ErrTemplateNotFound
	}

	removed := 0
	var err error
	switch policy {
	case RemoveFuture:
		removed, err = s.ledger.RemoveFutureByOrigin(ctx, tmpl.WalletName, id, now)
	case RemoveAll:
		removed, err = s.ledger.RemoveAllByOrigin(ctx, tmpl.WalletName, id)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("remove generated entries: %w", err)
	}

	delete(s.templates, id)
	if s.store != nil {
		if serr := s.store.DeleteTemplate(ctx, id); serr != nil {
			slog.WarnContext(ctx, "Failed to delete persisted template",
				"id", id, "error", serr)
		}
	}

	slog.InfoContext(ctx, "Recurring template removed",
		"id", id, "policy", string(policy), "entries_removed", removed)
	return tmpl.Clone(), removed, nil
}

// Get returns a snapshot of one template.
func (s *Scheduler) Get(id string) (*core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return nil, core.ErrTemplateNotFound
	}
	return tmpl.Clone(), nil
}

// List returns snapshots of every template, in no particular order.
func (s *Scheduler) List() []*core.RecurringTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.RecurringTemplate, 0, len(s.templates))
	for _, tmpl := range s.templates {
		out = append(out, tmpl.Clone())
	}
	return out
}

// EditFields updates the transaction template fields. The rule, start date,
// and watermarks are not editable; replace the template instead.
func (s *Scheduler) EditFields(ctx context.Context, id string, edit TemplateEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return core.ErrTemplateNotFound
	}

	if edit.Amount != nil {
		if err := edit.Amount.Validate(); err != nil {
			return err
		}
		tmpl.Amount = *edit.Amount
	}
	if edit.Category != nil {
		if *edit.Category == "" {
			return core.ErrEmptyCategory
		}
		tmpl.Category = *edit.Category
	}
	if edit.Description != nil {
		tmpl.Description = *edit.Description
	}
	s.persist(ctx, tmpl)
	return nil
}

// AddException marks a calendar day as skipped for future materialization
// passes. Dates already behind the watermark are unaffected.
func (s *Scheduler) AddException(ctx context.Context, id string, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return core.ErrTemplateNotFound
	}
	tmpl.AddException(day)
	s.persist(ctx, tmpl)

	slog.InfoContext(ctx, "Exception date added",
		"id", id, "date", day.Format(time.DateOnly))
	return nil
}

// SetActive pauses or resumes a template. Resuming picks up from the
// existing watermark, so occurrences due while paused are backfilled on the
// next ProcessDue.
func (s *Scheduler) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return core.ErrTemplateNotFound
	}
	tmpl.IsActive = active
	s.persist(ctx, tmpl)
	return nil
}

// ProcessDue materializes every due occurrence of every active template up
// to now and returns how many ledger entries were created. Calling it twice
// with the same now creates nothing on the second call.
//
// Template failures are isolated: a failing template is reported in the
// joined error while the others still process.
func (s *Scheduler) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	var errs []error
	for _, tmpl := range s.templates {
		created, err := s.processTemplate(ctx, tmpl, now)
		total += created
		if err != nil {
			slog.ErrorContext(ctx, "Template materialization failed",
				"id", tmpl.ID,
				"wallet", tmpl.WalletName,
				"created_before_failure", created,
				"error", err)
			errs = append(errs, fmt.Errorf("template %s: %w", tmpl.ID, err))
		}
	}

	slog.InfoContext(ctx, "Materialization pass complete",
		"created", total,
		"templates", len(s.templates),
		"as_of", now.Format(time.DateOnly))
	return total, errors.Join(errs...)
}

func (s *Scheduler) processTemplate(ctx context.Context, tmpl *core.RecurringTemplate, now time.Time) (int, error) {
	if !tmpl.IsActive {
		return 0, nil
	}

	ok, err := s.ledger.HasWallet(ctx, tmpl.WalletName)
	if err != nil {
		return 0, fmt.Errorf("find wallet %q: %w", tmpl.WalletName, err)
	}
	if !ok {
		// The wallet may be deleted or temporarily unavailable; skip this
		// pass without touching the watermark so a reappearing wallet is
		// backfilled.
		slog.InfoContext(ctx, "Wallet not found, skipping template this pass",
			"id", tmpl.ID, "wallet", tmpl.WalletName)
		return 0, nil
	}

	scanStart := tmpl.StartDate
	if !tmpl.LastGenerated.IsZero() {
		scanStart = tmpl.LastGenerated
	}

	created := 0
	for _, occ := range tmpl.Rule.OccurrencesInRange(scanStart, now, tmpl.StartDate) {
		// The scan window includes its start bound, so the occurrence that
		// set the watermark comes back; skip it and anything older.
		if !tmpl.LastGenerated.IsZero() && !occ.After(tmpl.LastGenerated) {
			continue
		}
		if tmpl.IsException(occ) {
			continue
		}

		tx := tmpl.Transaction(occ)
		if err := s.ledger.Append(ctx, tmpl.WalletName, tx); err != nil {
			// Watermark stays behind the failed date; the next pass
			// retries it and everything after it.
			if created > 0 {
				s.persist(ctx, tmpl)
			}
			return created, fmt.Errorf("submit occurrence %s: %w", occ.Format(time.DateOnly), err)
		}

		// Advance immediately, not at loop end, so a later failure leaves
		// the watermark consistent with the entries actually created.
		tmpl.GeneratedCount++
		tmpl.LastGenerated = occ
		created++
	}

	if created > 0 {
		s.persist(ctx, tmpl)
		slog.InfoContext(ctx, "Materialized occurrences",
			"id", tmpl.ID,
			"wallet", tmpl.WalletName,
			"created", created,
			"watermark", tmpl.LastGenerated.Format(time.DateOnly))
	}
	return created, nil
}

// persist writes the template through to the store. Best-effort: the caller
// holds the lock and materialization results never depend on it.
func (s *Scheduler) persist(ctx context.Context, tmpl *core.RecurringTemplate) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTemplate(ctx, tmpl); err != nil {
		slog.WarnContext(ctx, "Failed to persist template",
			"id", tmpl.ID, "error", err)
	}
}
