package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
)

// AccountRepository defines data access for accounts. ApplyDelta is the
// only write path for balances.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	ApplyDelta(ctx context.Context, tx Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// HistoryFilter narrows a ledger history query.
type HistoryFilter struct {
	From   *time.Time
	To     *time.Time
	Type   *domain.TransactionType
	Status *domain.TransactionStatus
	Limit  int
	Offset int
}

// TypeTotal is one row of a monthly summary aggregation.
type TypeTotal struct {
	Type  domain.TransactionType
	Count int64
	Total decimal.Decimal
	Fees  decimal.Decimal
}

// ConservationReport holds the system-wide sums used to verify that no
// money is created or destroyed.
type ConservationReport struct {
	TotalBalance   decimal.Decimal
	TotalFees      decimal.Decimal
	TotalDeposited decimal.Decimal
	TotalWithdrawn decimal.Decimal
}

// TransactionRepository defines data access for ledger entries. Status
// updates are conditional on the current status so concurrent writers
// cannot race a terminal entry back to life.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus, at time.Time) error
	FinalizeCompleted(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	MarkFailed(ctx context.Context, id string, at time.Time) error
	History(ctx context.Context, accountID string, filter HistoryFilter) ([]*domain.Transaction, error)
	MonthlySummary(ctx context.Context, accountID string, year int, month time.Month) ([]TypeTotal, error)
	SumDebits(ctx context.Context, tx Transaction, accountID string, from, to time.Time, excludeID string) (decimal.Decimal, error)
	UpdateFlag(ctx context.Context, id string, flagged bool, reason string, at time.Time) error
}

// LedgerRepository defines ledger-wide read operations.
type LedgerRepository interface {
	Conservation(ctx context.Context) (*ConservationReport, error)
}

// OutboxRepository defines data access for notification outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates identifiers: internal IDs, human-readable
// time-ordered references, and account numbers.
type IDGenerator interface {
	Generate() string
	Reference(at time.Time) string
	AccountNumber() string
}

// Notifier is the notification collaborator. Delivery failures never roll
// back a transfer.
type Notifier interface {
	Notify(ctx context.Context, userID string, event *domain.OutboxEvent) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
