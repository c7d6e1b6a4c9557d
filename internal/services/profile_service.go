package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/tax"
)

// ProfileService reads and writes income profiles. Every write recomputes the
// derived fields before persisting.
type ProfileService struct {
	profiles store.ProfileStore
	events   EventPublisher
	logger   *applog.Logger
	clock    Clock
}

func NewProfileService(profiles store.ProfileStore, events EventPublisher, logger *applog.Logger) *ProfileService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ProfileService{
		profiles: profiles,
		events:   events,
		logger:   logger.WithComponent(applog.ComponentProfile),
	}
}

// WithClock sets the clock stamping UpdatedAt. A nil clock means time.Now.
func (s *ProfileService) WithClock(c Clock) *ProfileService {
	s.clock = c
	return s
}

// Get returns the stored profile. Derived fields are those computed at the
// last write.
func (s *ProfileService) Get(ctx context.Context, userID string) (core.IncomeProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return core.IncomeProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Update validates p, recomputes its derived fields and stores it for userID.
// Any Derived values supplied by the caller are discarded.
func (s *ProfileService) Update(ctx context.Context, userID string, p core.IncomeProfile) (core.IncomeProfile, error) {
	p.UserID = userID
	p.Derived = core.IncomeBreakdown{}

	recomputed, err := tax.Recompute(p)
	if err != nil {
		return core.IncomeProfile{}, err
	}
	recomputed.UpdatedAt = s.clock.Now().UTC()

	if err := s.profiles.SaveProfile(ctx, recomputed); err != nil {
		return core.IncomeProfile{}, fmt.Errorf("save profile: %w", err)
	}

	s.logger.InfoContext(ctx, "Income profile recomputed",
		applog.FieldUserID, userID,
		applog.FieldOperation, applog.OpRecompute,
		"net_annual_income", recomputed.Derived.NetAnnualIncome.StringFixed(2))

	publish(ctx, s.events, s.logger, amqp.NewProfileEvent(userID))
	return recomputed, nil
}
