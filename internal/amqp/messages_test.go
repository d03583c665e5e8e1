package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestTransactionRecordedRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	msg := NewTransactionRecorded("ab12cd34", "Main", "rec-deadbeef", -85000, ts)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := TransactionRecordedFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.EntryID != msg.EntryID || got.Wallet != msg.Wallet ||
		got.OriginID != msg.OriginID || got.AmountCents != msg.AmountCents {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestTransactionRecordedOmitsEmptyOrigin(t *testing.T) {
	msg := NewTransactionRecorded("ab12cd34", "Main", "", 1200, time.Now())

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if strings.Contains(string(data), "origin_id") {
		t.Errorf("one-off entry serialized an origin_id: %s", data)
	}
}

func TestTransactionRecordedFromJSONRejectsGarbage(t *testing.T) {
	if _, err := TransactionRecordedFromJSON([]byte("not json")); err == nil {
		t.Error("FromJSON() accepted garbage")
	}
}
