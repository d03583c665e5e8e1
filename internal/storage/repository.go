// Package storage persists wallets, transactions and recurring templates
// in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"moneta/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateWallet inserts a wallet and returns its id. Wallet names are
// unique; inserting a duplicate fails.
func (r *SQLiteRepository) CreateWallet(ctx context.Context, w core.Wallet) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (name, currency, description, created_at) VALUES (?, ?, ?, ?)`,
		w.Name, w.Currency, w.Description, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("create wallet: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("wallet insert id: %w", err)
	}

	slog.InfoContext(ctx, "Wallet created", "id", id, "name", w.Name, "currency", w.Currency)
	return id, nil
}

// GetWalletByName returns core.ErrWalletNotFound when no wallet carries
// the given name.
func (r *SQLiteRepository) GetWalletByName(ctx context.Context, name string) (core.Wallet, error) {
	var w core.Wallet
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, description, created_at FROM wallets WHERE name = ?`,
		name).Scan(&w.ID, &w.Name, &w.Currency, &w.Description, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, core.ErrWalletNotFound
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet by name: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, description, created_at FROM wallets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		var w core.Wallet
		if err := rows.Scan(&w.ID, &w.Name, &w.Currency, &w.Description, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

// WalletOverview aggregates a wallet's entries into balance and totals.
func (r *SQLiteRepository) WalletOverview(ctx context.Context, name string) (core.WalletOverview, error) {
	w, err := r.GetWalletByName(ctx, name)
	if err != nil {
		return core.WalletOverview{}, err
	}

	overview := core.WalletOverview{Wallet: w}
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions WHERE wallet_id = ?`, w.ID).
		Scan(&overview.Entries, &overview.TotalIncome.Cents, &overview.TotalExpense.Cents)
	if err != nil {
		return core.WalletOverview{}, fmt.Errorf("wallet overview: %w", err)
	}

	overview.Balance = core.Money{Cents: overview.TotalIncome.Cents - overview.TotalExpense.Cents}
	return overview, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, walletName string) ([]core.Transaction, error) {
	w, err := r.GetWalletByName(ctx, walletName)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, kind, category, description, origin_id, created_at
		FROM transactions WHERE wallet_id = ? ORDER BY created_at, id`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		if err := rows.Scan(&tx.ID, &tx.Amount.Cents, &tx.Kind, &tx.Category,
			&tx.Description, &tx.OriginID, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, walletName string, tx core.Transaction) error {
	w, err := r.GetWalletByName(ctx, walletName)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, wallet_id, amount_cents, kind, category, description, origin_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, w.ID, tx.Amount.Cents, string(tx.Kind), tx.Category, tx.Description, tx.OriginID, tx.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"wallet", walletName,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents,
		"origin_id", tx.OriginID)
	return nil
}

// DeleteTransactionsByOrigin removes entries materialized by a template.
// A nil after removes every entry; otherwise only entries strictly after
// the given instant go.
func (r *SQLiteRepository) DeleteTransactionsByOrigin(ctx context.Context, walletName, originID string, after *time.Time) (int64, error) {
	w, err := r.GetWalletByName(ctx, walletName)
	if err != nil {
		return 0, err
	}

	query := `DELETE FROM transactions WHERE wallet_id = ? AND origin_id = ?`
	args := []any{w.ID, originID}
	if after != nil {
		query += ` AND created_at > ?`
		args = append(args, after.UTC())
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete transactions by origin: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete transactions rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Transactions removed by origin",
		"wallet", walletName, "origin_id", originID, "removed", n)
	return n, nil
}

// SaveTemplate upserts the full template state, watermark included.
func (r *SQLiteRepository) SaveTemplate(ctx context.Context, t *core.RecurringTemplate) error {
	var monthWeekday any
	if t.Rule.MonthWeekday != nil {
		monthWeekday = int(*t.Rule.MonthWeekday)
	}
	var endDate, lastGenerated any
	if !t.Rule.EndDate.IsZero() {
		endDate = t.Rule.EndDate.UTC()
	}
	if !t.LastGenerated.IsZero() {
		lastGenerated = t.LastGenerated.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_templates (
			id, amount_cents, kind, category, description, wallet_name,
			frequency, interval, weekdays, month_week, month_weekday,
			end_condition, end_date, max_count,
			start_date, is_active, generated_count, last_generated, exceptions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			kind = excluded.kind,
			category = excluded.category,
			description = excluded.description,
			wallet_name = excluded.wallet_name,
			frequency = excluded.frequency,
			interval = excluded.interval,
			weekdays = excluded.weekdays,
			month_week = excluded.month_week,
			month_weekday = excluded.month_weekday,
			end_condition = excluded.end_condition,
			end_date = excluded.end_date,
			max_count = excluded.max_count,
			start_date = excluded.start_date,
			is_active = excluded.is_active,
			generated_count = excluded.generated_count,
			last_generated = excluded.last_generated,
			exceptions = excluded.exceptions`,
		t.ID, t.Amount.Cents, string(t.Kind), t.Category, t.Description, t.WalletName,
		string(t.Rule.Frequency), t.Rule.Interval, encodeWeekdays(t.Rule.Weekdays),
		t.Rule.MonthWeek, monthWeekday,
		string(t.Rule.End), endDate, t.Rule.MaxCount,
		t.StartDate.UTC(), t.IsActive, t.GeneratedCount, lastGenerated,
		strings.Join(t.ExceptionDates(), ","))
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recurring_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context) ([]*core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, kind, category, description, wallet_name,
			frequency, interval, weekdays, month_week, month_weekday,
			end_condition, end_date, max_count,
			start_date, is_active, generated_count, last_generated, exceptions
		FROM recurring_templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

func scanTemplate(rows *sql.Rows) (*core.RecurringTemplate, error) {
	var (
		t             core.RecurringTemplate
		kind, freq    string
		end           string
		weekdays      string
		exceptions    string
		monthWeekday  sql.NullInt64
		endDate       sql.NullTime
		lastGenerated sql.NullTime
	)
	err := rows.Scan(&t.ID, &t.Amount.Cents, &kind, &t.Category, &t.Description, &t.WalletName,
		&freq, &t.Rule.Interval, &weekdays, &t.Rule.MonthWeek, &monthWeekday,
		&end, &endDate, &t.Rule.MaxCount,
		&t.StartDate, &t.IsActive, &t.GeneratedCount, &lastGenerated, &exceptions)
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}

	t.Kind = core.TransactionKind(kind)
	t.Rule.Frequency = core.Frequency(freq)
	t.Rule.End = core.EndCondition(end)
	t.Rule.Weekdays, err = decodeWeekdays(weekdays)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.ID, err)
	}
	if monthWeekday.Valid {
		wd := core.Weekday(monthWeekday.Int64)
		t.Rule.MonthWeekday = &wd
	}
	if endDate.Valid {
		t.Rule.EndDate = endDate.Time
	}
	if lastGenerated.Valid {
		t.LastGenerated = lastGenerated.Time
	}
	for _, day := range strings.Split(exceptions, ",") {
		if day == "" {
			continue
		}
		parsed, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("template %s: parse exception %q: %w", t.ID, day, err)
		}
		t.AddException(parsed)
	}
	return &t, nil
}

// encodeWeekdays renders the weekday set as comma-joined integers, empty
// for rules without one.
func encodeWeekdays(days []core.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) ([]core.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]core.Weekday, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse weekday %q: %w", p, err)
		}
		days[i] = core.Weekday(n)
	}
	return days, nil
}

// AppendEvent journals a consumed broker message for audit.
func (r *SQLiteRepository) AppendEvent(ctx context.Context, eventType string, payload []byte, occurredAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (event_type, payload, occurred_at) VALUES (?, ?, ?)`,
		eventType, string(payload), occurredAt.UTC())
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
