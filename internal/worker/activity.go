package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// Sender delivers a notification, normally apiclient.Notifier.
type Sender interface {
	Send(ctx context.Context, msg model.Notification) error
}

type ActivityForwarderConfig struct {
	Channel       string
	Recipient     string
	RetryAttempts int
	RetryDelay    time.Duration
}

// ActivityForwarder turns console activities published on the broker into
// notifications for the clinic notification service.
type ActivityForwarder struct {
	broker  messaging.Broker
	sender  Sender
	config  ActivityForwarderConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewActivityForwarder(
	broker messaging.Broker,
	sender Sender,
	config ActivityForwarderConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *ActivityForwarder {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &ActivityForwarder{
		broker:  broker,
		sender:  sender,
		config:  config,
		logger:  logger.With().Str("component", "activity-forwarder").Str("channel", config.Channel).Logger(),
		metrics: m,
	}
}

// Start blocks until ctx is cancelled or the subscription closes.
func (f *ActivityForwarder) Start(ctx context.Context) error {
	f.logger.Info().Msg("Activity forwarder started")
	err := messaging.Consume(ctx, f.broker, f.config.Channel, f.handle, func(err error) {
		f.logger.Error().Err(err).Msg("Error forwarding activity")
	})
	f.logger.Info().Msg("Activity forwarder stopped")
	return err
}

func (f *ActivityForwarder) handle(ctx context.Context, payload []byte) error {
	var a model.Activity
	if err := json.Unmarshal(payload, &a); err != nil {
		f.metrics.ActivitiesForwarded.WithLabelValues("invalid").Inc()
		return fmt.Errorf("failed to decode activity: %w", err)
	}

	msg := model.Notification{
		Recipient: f.config.Recipient,
		Message:   a.Summary(),
	}

	var sendErr error
	for attempt := 0; attempt < f.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * f.config.RetryDelay):
			}
		}

		if sendErr = f.sender.Send(ctx, msg); sendErr == nil {
			f.metrics.ActivitiesForwarded.WithLabelValues("forwarded").Inc()
			f.logger.Debug().Str("activity_id", a.ID.String()).Msg("activity forwarded")
			return nil
		}
		f.logger.Warn().Str("activity_id", a.ID.String()).Int("attempt", attempt+1).Err(sendErr).Msg("Retry forwarding activity")
	}

	f.metrics.ActivitiesForwarded.WithLabelValues("failed").Inc()
	return fmt.Errorf("failed to forward activity %s after %d attempts: %w", a.ID, f.config.RetryAttempts, sendErr)
}
