package notifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/infrastructure/notifier"
	"github.com/corebank/ledger/internal/usecase/mocks"
)

func seedEvent(repo *mocks.MockOutboxRepository, id string) *domain.OutboxEvent {
	event := &domain.OutboxEvent{
		ID:            id,
		UserID:        "user-1",
		AggregateID:   "txn-1",
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionCompleted,
		Payload:       map[string]any{"amount": "100"},
		CreatedAt:     time.Now().UTC(),
	}
	_ = repo.Create(context.Background(), nil, event)
	return event
}

func TestDispatcher_DeliversAndMarksPublished(t *testing.T) {
	outboxRepo := mocks.NewMockOutboxRepository()
	mockNotifier := mocks.NewMockNotifier()
	seedEvent(outboxRepo, "evt-1")
	seedEvent(outboxRepo, "evt-2")

	d := notifier.NewDispatcher(notifier.Config{
		OutboxRepo: outboxRepo,
		Notifier:   mockNotifier,
		Logger:     zerolog.Nop(),
		Interval:   10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = d.Start(ctx)

	if len(mockNotifier.Notified) != 2 {
		t.Fatalf("delivered = %d, want 2", len(mockNotifier.Notified))
	}

	unpublished, _ := outboxRepo.GetUnpublished(context.Background(), 10)
	if len(unpublished) != 0 {
		t.Errorf("unpublished = %d, want 0 after dispatch", len(unpublished))
	}
}

func TestDispatcher_FailedDeliveryStaysUnpublished(t *testing.T) {
	outboxRepo := mocks.NewMockOutboxRepository()
	mockNotifier := mocks.NewMockNotifier()
	mockNotifier.NotifyFunc = func(ctx context.Context, userID string, event *domain.OutboxEvent) error {
		return errors.New("gateway down")
	}
	seedEvent(outboxRepo, "evt-1")

	d := notifier.NewDispatcher(notifier.Config{
		OutboxRepo: outboxRepo,
		Notifier:   mockNotifier,
		Logger:     zerolog.Nop(),
		Interval:   10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = d.Start(ctx)

	// The event stays in the outbox for the next cycle.
	unpublished, _ := outboxRepo.GetUnpublished(context.Background(), 10)
	if len(unpublished) != 1 {
		t.Errorf("unpublished = %d, want 1 after failed delivery", len(unpublished))
	}
}

func TestLogNotifier_Notify(t *testing.T) {
	n := notifier.NewLogNotifier(zerolog.Nop())
	event := &domain.OutboxEvent{
		ID:        "evt-1",
		UserID:    "user-1",
		EventType: domain.EventTypeTransactionCompleted,
		Payload:   map[string]any{"amount": "100"},
	}

	if err := n.Notify(context.Background(), "user-1", event); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
