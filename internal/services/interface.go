// Package services orchestrates the engine packages with persistence and
// event publishing. Handlers call services; services never render output.
package services

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// ErrContributionTarget is returned when a contribution names a goal that is
// missing or is not a savings goal.
var ErrContributionTarget = errors.New("contributions must reference an existing savings goal")

// EventPublisher announces changes to the export worker. Services treat
// publish failures as non-fatal.
//
//go:generate mockgen -destination=mocks/mock_services.go -source=interface.go EventPublisher
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.FinanceEvent) error
}

// Clock returns the current instant. Services default to time.Now.
type Clock func() time.Time

// Today is the calendar date of the clock.
func (c Clock) Today() core.Date {
	if c == nil {
		return core.DateOf(time.Now())
	}
	return core.DateOf(c())
}

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// publish sends ev when a publisher is configured and logs failures. The
// write that triggered the event has already succeeded.
func publish(ctx context.Context, events EventPublisher, logger *applog.Logger, ev *amqp.FinanceEvent) {
	if events == nil {
		logger.DebugContext(ctx, "Event publisher not configured, skipping event", applog.FieldEventKind, ev.Kind)
		return
	}
	if err := events.Publish(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event",
			applog.FieldError, err,
			applog.FieldEventKind, ev.Kind,
			applog.FieldEntityID, ev.EntityID)
	}
}
