package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc             func(ctx context.Context, account *domain.Account) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Account, error)
	GetByAccountNumberFunc func(ctx context.Context, number string) (*domain.Account, error)
	GetByIDsForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	ApplyDeltaFunc         func(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error
	UpdateStatusFunc       func(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
	ListFunc               func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error) {
	if m.GetByAccountNumberFunc != nil {
		return m.GetByAccountNumberFunc(ctx, number)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.AccountNumber == number {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, tx, id, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	next := acc.Balance.Add(delta)
	if delta.IsNegative() && next.LessThan(acc.MinimumBalance) {
		return fmt.Errorf("%w: balance floor", domain.ErrCommitFailed)
	}
	acc.Balance = next
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Status = status
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction

	CreateFunc            func(ctx context.Context, txn *domain.Transaction) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateStatusFunc      func(ctx context.Context, id string, from, to domain.TransactionStatus, at time.Time) error
	FinalizeCompletedFunc func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	MarkFailedFunc        func(ctx context.Context, id string, at time.Time) error
	HistoryFunc           func(ctx context.Context, accountID string, filter usecase.HistoryFilter) ([]*domain.Transaction, error)
	MonthlySummaryFunc    func(ctx context.Context, accountID string, year int, month time.Month) ([]usecase.TypeTotal, error)
	SumDebitsFunc         func(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time, excludeID string) (decimal.Decimal, error)
	UpdateFlagFunc        func(ctx context.Context, id string, flagged bool, reason string, at time.Time) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Snapshot the entry like a real repository row; callers keep mutating
	// their own copy and reconcile through UpdateStatus/FinalizeCompleted.
	stored := *txn
	m.txns[txn.ID] = &stored
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.txns[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus, at time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if t.Status != from {
		return domain.ErrIllegalTransition
	}
	t.Status = to
	if to.Terminal() {
		t.ProcessedAt = &at
	}
	return nil
}

func (m *MockTransactionRepository) FinalizeCompleted(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.FinalizeCompletedFunc != nil {
		return m.FinalizeCompletedFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.txns[txn.ID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if stored.Status != domain.TransactionStatusProcessing {
		return domain.ErrIllegalTransition
	}
	*stored = *txn
	return nil
}

func (m *MockTransactionRepository) MarkFailed(ctx context.Context, id string, at time.Time) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if t.Status.Terminal() {
		return domain.ErrIllegalTransition
	}
	t.Status = domain.TransactionStatusFailed
	t.ProcessedAt = &at
	return nil
}

func (m *MockTransactionRepository) History(ctx context.Context, accountID string, filter usecase.HistoryFilter) ([]*domain.Transaction, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, accountID, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, t := range m.txns {
		if !participates(t, accountID) {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !t.CreatedAt.Before(*filter.To) {
			continue
		}
		txns = append(txns, t)
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.After(txns[j].CreatedAt) })
	return txns, nil
}

func (m *MockTransactionRepository) MonthlySummary(ctx context.Context, accountID string, year int, month time.Month) ([]usecase.TypeTotal, error) {
	if m.MonthlySummaryFunc != nil {
		return m.MonthlySummaryFunc(ctx, accountID, year, month)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	byType := make(map[domain.TransactionType]*usecase.TypeTotal)
	for _, t := range m.txns {
		if !participates(t, accountID) || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if t.CreatedAt.Before(start) || !t.CreatedAt.Before(end) {
			continue
		}
		tt, ok := byType[t.Type]
		if !ok {
			tt = &usecase.TypeTotal{Type: t.Type}
			byType[t.Type] = tt
		}
		tt.Count++
		tt.Total = tt.Total.Add(t.Amount)
		tt.Fees = tt.Fees.Add(t.Fees.TotalFees)
	}
	var totals []usecase.TypeTotal
	for _, tt := range byType {
		totals = append(totals, *tt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Type < totals[j].Type })
	return totals, nil
}

func (m *MockTransactionRepository) SumDebits(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time, excludeID string) (decimal.Decimal, error) {
	if m.SumDebitsFunc != nil {
		return m.SumDebitsFunc(ctx, tx, accountID, from, to, excludeID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.txns {
		if t.ID == excludeID {
			continue
		}
		if t.FromAccountID == nil || *t.FromAccountID != accountID {
			continue
		}
		if t.Status != domain.TransactionStatusCompleted && t.Status != domain.TransactionStatusProcessing {
			continue
		}
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		sum = sum.Add(t.DebitTotal())
	}
	return sum, nil
}

func (m *MockTransactionRepository) UpdateFlag(ctx context.Context, id string, flagged bool, reason string, at time.Time) error {
	if m.UpdateFlagFunc != nil {
		return m.UpdateFlagFunc(ctx, id, flagged, reason, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.Flagged = flagged
	t.FlagReason = reason
	return nil
}

func participates(t *domain.Transaction, accountID string) bool {
	if t.FromAccountID != nil && *t.FromAccountID == accountID {
		return true
	}
	if t.ToAccountID != nil && *t.ToAccountID == accountID {
		return true
	}
	return false
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	ConservationFunc func(ctx context.Context) (*usecase.ConservationReport, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) Conservation(ctx context.Context) (*usecase.ConservationReport, error) {
	if m.ConservationFunc != nil {
		return m.ConservationFunc(ctx)
	}
	return &usecase.ConservationReport{}, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	Events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			events = append(events, e)
		}
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Events[:0]
	for _, e := range m.Events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc      func() string
	ReferenceFunc     func(at time.Time) string
	AccountNumberFunc func() string

	mu      sync.Mutex
	counter int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

func (m *MockIDGenerator) Reference(at time.Time) string {
	if m.ReferenceFunc != nil {
		return m.ReferenceFunc(at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("TXN-%s-%08d", at.UTC().Format("20060102"), m.counter)
}

func (m *MockIDGenerator) AccountNumber() string {
	if m.AccountNumberFunc != nil {
		return m.AccountNumberFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%012d", m.counter)
}

// MockRetrier is a mock implementation of Retrier that runs the operation
// once, without backoff.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockNotifier is a mock implementation of Notifier.
type MockNotifier struct {
	mu       sync.Mutex
	Notified []*domain.OutboxEvent

	NotifyFunc func(ctx context.Context, userID string, event *domain.OutboxEvent) error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, userID string, event *domain.OutboxEvent) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, userID, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, event)
	return nil
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
