package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/infrastructure/metrics"
	"github.com/corebank/ledger/internal/usecase"
)

// Dispatcher drains the notification outbox and hands events to the
// notification collaborator. Delivery is asynchronous and best-effort; a
// failed delivery never affects the transaction it describes.
type Dispatcher struct {
	outboxRepo usecase.OutboxRepository
	notifier   usecase.Notifier
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	batchSize  int
	interval   time.Duration
	retention  time.Duration
}

// Config for Dispatcher. Metrics may be nil.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Notifier   usecase.Notifier
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	BatchSize  int
	Interval   time.Duration
	Retention  time.Duration
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Retention == 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}

	return &Dispatcher{
		outboxRepo: cfg.OutboxRepo,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().
		Int("batch_size", d.batchSize).
		Dur("interval", d.interval).
		Msg("notification dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	if err := d.dispatch(ctx); err != nil {
		d.logger.Error().Err(err).Msg("dispatch failed on start")
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("notification dispatcher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := d.dispatch(ctx); err != nil {
				d.logger.Error().Err(err).Msg("dispatch failed")
			}
			if err := d.outboxRepo.DeletePublished(ctx, time.Now().Add(-d.retention)); err != nil {
				d.logger.Error().Err(err).Msg("outbox cleanup failed")
			}
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) error {
	events, err := d.outboxRepo.GetUnpublished(ctx, d.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := d.notifier.Notify(ctx, event.UserID, event); err != nil {
			d.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("notification delivery failed")
			if d.metrics != nil {
				d.metrics.NotificationFailures.Inc()
			}
			continue
		}

		if d.metrics != nil {
			d.metrics.NotificationsDispatched.Inc()
		}

		if err := d.outboxRepo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			d.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event published")
		}
	}

	return nil
}

// LogNotifier delivers notifications to the log. Stands in for a push or
// email gateway in development.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(ctx context.Context, userID string, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	n.logger.Info().
		Str("user_id", userID).
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("notification delivered")

	return nil
}
