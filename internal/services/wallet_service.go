package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/storage"
)

// WalletService is the ledger collaborator: it persists wallets and
// transactions in SQLite and publishes an event per recorded entry. It
// implements the Ledger interface the scheduler consumes.
type WalletService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewWalletService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *WalletService {
	return &WalletService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateWallet validates and persists a new wallet.
func (s *WalletService) CreateWallet(ctx context.Context, w core.Wallet) (int64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateWallet(ctx, w)
	if err != nil {
		return 0, fmt.Errorf("create wallet: %w", err)
	}
	slog.InfoContext(ctx, "Wallet created", "id", id, "name", w.Name)
	return id, nil
}

func (s *WalletService) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	return s.storage.ListWallets(ctx)
}

// Overview returns a wallet with its balance and totals.
func (s *WalletService) Overview(ctx context.Context, name string) (core.WalletOverview, error) {
	return s.storage.WalletOverview(ctx, name)
}

func (s *WalletService) ListTransactions(ctx context.Context, walletName string) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, walletName)
}

// Record validates and appends a one-off transaction entered by the user.
func (s *WalletService) Record(ctx context.Context, walletName string, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return s.Append(ctx, walletName, tx)
}

// HasWallet implements Ledger.
func (s *WalletService) HasWallet(ctx context.Context, name string) (bool, error) {
	_, err := s.storage.GetWalletByName(ctx, name)
	if errors.Is(err, core.ErrWalletNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Append implements Ledger: the entry is saved to SQLite first, then an
// event is published best-effort. A publish failure never fails the append;
// the entry is already durable locally.
func (s *WalletService) Append(ctx context.Context, walletName string, tx core.Transaction) error {
	if err := s.storage.AppendTransaction(ctx, walletName, tx); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	if s.amqpClient == nil {
		return nil
	}
	msg := amqp.NewTransactionRecorded(tx.ID, walletName, tx.OriginID, tx.SignedCents(), tx.CreatedAt)
	if err := s.amqpClient.PublishTransactionRecorded(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"entry_id", tx.ID, "wallet", walletName, "error", err)
	}
	return nil
}

// RemoveFutureByOrigin implements Ledger.
func (s *WalletService) RemoveFutureByOrigin(ctx context.Context, walletName, originID string, after time.Time) (int, error) {
	n, err := s.storage.DeleteTransactionsByOrigin(ctx, walletName, originID, &after)
	if err != nil {
		return 0, fmt.Errorf("delete future entries: %w", err)
	}
	return int(n), nil
}

// RemoveAllByOrigin implements Ledger.
func (s *WalletService) RemoveAllByOrigin(ctx context.Context, walletName, originID string) (int, error) {
	n, err := s.storage.DeleteTransactionsByOrigin(ctx, walletName, originID, nil)
	if err != nil {
		return 0, fmt.Errorf("delete generated entries: %w", err)
	}
	return int(n), nil
}

// Close closes both storage and AMQP connections.
func (s *WalletService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
