package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names what changed.
type EventKind string

const (
	TransactionRecorded EventKind = "transaction.recorded"
	TransactionDeleted  EventKind = "transaction.deleted"
	ProfileRecomputed   EventKind = "profile.recomputed"
)

func (k EventKind) Valid() bool {
	switch k {
	case TransactionRecorded, TransactionDeleted, ProfileRecomputed:
		return true
	}
	return false
}

// FinanceEvent is a lightweight change notification. It carries only
// identifiers; consumers reload whatever they need from storage.
// Year and Month locate the affected calendar month for transaction events.
type FinanceEvent struct {
	Kind      EventKind `json:"kind"`
	UserID    string    `json:"user_id"`
	EntityID  string    `json:"entity_id"`
	Year      int       `json:"year,omitempty"`
	Month     int       `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for a transaction dated in year/month.
func NewTransactionEvent(kind EventKind, userID, txID string, year, month int) *FinanceEvent {
	return &FinanceEvent{
		Kind:      kind,
		UserID:    userID,
		EntityID:  txID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func NewProfileEvent(userID string) *FinanceEvent {
	return &FinanceEvent{
		Kind:      ProfileRecomputed,
		UserID:    userID,
		EntityID:  userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *FinanceEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FinanceEventFromJSON decodes and sanity-checks an event.
func FinanceEventFromJSON(data []byte) (*FinanceEvent, error) {
	var ev FinanceEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.UserID == "" {
		return nil, fmt.Errorf("event without user id")
	}
	return &ev, nil
}
