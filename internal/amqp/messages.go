package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecorded announces a ledger entry that was just written.
// It carries enough to journal the event without a database round trip;
// origin_id is empty for entries recorded directly by the user.
type TransactionRecorded struct {
	EntryID     string    `json:"entry_id"`
	Wallet      string    `json:"wallet"`
	OriginID    string    `json:"origin_id,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionRecorded(entryID, wallet, originID string, amountCents int64, timestamp time.Time) *TransactionRecorded {
	return &TransactionRecorded{
		EntryID:     entryID,
		Wallet:      wallet,
		OriginID:    originID,
		AmountCents: amountCents,
		Timestamp:   timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedFromJSON creates a message from JSON bytes
func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
