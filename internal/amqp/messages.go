package amqp

import (
	"encoding/json"
	"time"
)

// Event actions carried on the expense stream.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionApplied = "applied"
)

// ExpenseEventMessage is a lightweight change notification. It carries
// only identifiers; the mirror worker fetches the full expense from the
// database when it needs one.
type ExpenseEventMessage struct {
	OwnerID   string    `json:"ownerId"`
	ExpenseID string    `json:"expenseId"`
	Action    string    `json:"action"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEventMessage creates an event stamped with the current time.
func NewExpenseEventMessage(ownerID, expenseID, action, month string) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		OwnerID:   ownerID,
		ExpenseID: expenseID,
		Action:    action,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventMessageFromJSON creates a message from JSON bytes
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
