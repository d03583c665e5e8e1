// Package services provides business logic and orchestration: the
// materialization scheduler and the wallet service that backs it.
package services

import (
	"context"
	"time"

	"moneta/internal/core"
)

// Ledger is the narrow interface the scheduler consumes. Submissions are
// synchronous; a failed Append is reported and the scheduler's watermark is
// left behind the failed date so the next pass retries it.
type Ledger interface {
	// HasWallet reports whether a wallet with the given name exists.
	HasWallet(ctx context.Context, name string) (bool, error)
	// Append records one transaction in the named wallet.
	Append(ctx context.Context, walletName string, tx core.Transaction) error
	// RemoveFutureByOrigin deletes generated entries dated after the given
	// time that originate from a template, returning how many were removed.
	RemoveFutureByOrigin(ctx context.Context, walletName, originID string, after time.Time) (int, error)
	// RemoveAllByOrigin deletes every generated entry originating from a
	// template, returning how many were removed.
	RemoveAllByOrigin(ctx context.Context, walletName, originID string) (int, error)
}

// TemplateStore persists template state across restarts. The scheduler
// writes through best-effort: persistence failures are logged and never
// affect materialization results.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, t *core.RecurringTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context) ([]*core.RecurringTemplate, error)
}

// DeletePolicy selects what happens to already-generated ledger entries when
// a template is removed.
type DeletePolicy string

const (
	// KeepGenerated leaves every generated entry in place.
	KeepGenerated DeletePolicy = "keep"
	// RemoveFuture deletes generated entries dated after the removal time.
	RemoveFuture DeletePolicy = "future"
	// RemoveAll deletes every entry the template ever generated.
	RemoveAll DeletePolicy = "all"
)

func (p DeletePolicy) Valid() bool {
	switch p {
	case KeepGenerated, RemoveFuture, RemoveAll:
		return true
	}
	return false
}
