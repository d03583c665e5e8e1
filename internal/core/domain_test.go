package core

import (
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		ID:        NewEntryID(),
		Amount:    Money{Cents: 1250},
		Kind:      Expense,
		Category:  "Groceries",
		CreatedAt: date(2024, 1, 15),
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -100 }, ErrInvalidAmount},
		{"unknown kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_SignedCents(t *testing.T) {
	tx := validTransaction()
	if got := tx.SignedCents(); got != -1250 {
		t.Errorf("expense SignedCents() = %d, want -1250", got)
	}
	tx.Kind = Income
	if got := tx.SignedCents(); got != 1250 {
		t.Errorf("income SignedCents() = %d, want 1250", got)
	}
}

func TestWallet_Validate(t *testing.T) {
	w := Wallet{Name: "Main", Currency: "EUR"}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	w.Name = "   "
	if err := w.Validate(); err != ErrEmptyWalletName {
		t.Errorf("Validate() = %v, want %v", err, ErrEmptyWalletName)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	if !SameDay(a, b) {
		t.Error("SameDay() = false for timestamps on the same day")
	}
	if SameDay(a, a.AddDate(0, 0, 1)) {
		t.Error("SameDay() = true for consecutive days")
	}
}
