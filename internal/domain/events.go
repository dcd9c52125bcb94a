package domain

import "time"

// Event types
const (
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypeTransactionCancelled = "transaction.cancelled"
	EventTypeAccountCreated       = "account.created"
	EventTypeAccountStatusChanged = "account.status_changed"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent is a notification written inside the atomic commit and
// delivered to the notification collaborator after it, fire-and-forget.
type OutboxEvent struct {
	ID            string
	UserID        string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionCompletedEvent payload
type TransactionCompletedEvent struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Type          string `json:"type"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// TransactionFailedEvent payload
type TransactionFailedEvent struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Type          string `json:"type"`
	Reason        string `json:"reason"`
}

// AccountStatusChangedEvent payload
type AccountStatusChangedEvent struct {
	AccountID string `json:"account_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}
