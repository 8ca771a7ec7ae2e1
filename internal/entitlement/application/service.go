package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	billingDomain "github.com/fernhq/fern/internal/billing/domain"
	"github.com/fernhq/fern/internal/entitlement/domain"
	"github.com/fernhq/fern/internal/shared/infrastructure/eventbus"
)

// Request is an inbound gated action evaluation.
type Request struct {
	UserID    uuid.UUID     `json:"user_id"`
	Action    domain.Action `json:"action"`
	Params    domain.Params `json:"params"`
	Timestamp time.Time     `json:"timestamp"`
}

// Config tunes the decision service.
type Config struct {
	// BreakerMaxRequests is the number of probe requests allowed while the
	// breaker is half-open.
	BreakerMaxRequests uint32
	// BreakerInterval is the cyclic period of the closed state.
	BreakerInterval time.Duration
	// BreakerTimeout is the open-state period before probing resumes.
	BreakerTimeout time.Duration
	// BreakerFailureThreshold trips the breaker after this many consecutive
	// store failures.
	BreakerFailureThreshold uint32
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BreakerMaxRequests:      3,
		BreakerInterval:         60 * time.Second,
		BreakerTimeout:          10 * time.Second,
		BreakerFailureThreshold: 5,
	}
}

// Service evaluates gated actions. The decision itself is a pure table
// lookup; this service owns the impure edges around it: loading inputs,
// bootstrapping trials, the atomic quota increment, prompt logging, and
// failing closed when the store is unreachable.
type Service struct {
	subscriptions billingDomain.SubscriptionRepository
	usage         domain.UsageRepository
	prompts       domain.PromptLogRepository
	publisher     eventbus.Publisher
	breaker       *gobreaker.CircuitBreaker[any]
	logger        *slog.Logger
}

// NewService creates a new decision service.
func NewService(
	subscriptions billingDomain.SubscriptionRepository,
	usage domain.UsageRepository,
	prompts domain.PromptLogRepository,
	publisher eventbus.Publisher,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = eventbus.NewNoopPublisher(logger)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "entitlement-store",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// Domain outcomes are not store failures.
			return err == nil ||
				errors.Is(err, domain.ErrConflict) ||
				errors.Is(err, domain.ErrNotFound) ||
				errors.Is(err, billingDomain.ErrSubscriptionNotFound)
		},
	})

	return &Service{
		subscriptions: subscriptions,
		usage:         usage,
		prompts:       prompts,
		publisher:     publisher,
		breaker:       breaker,
		logger:        logger,
	}
}

// Decide evaluates a gated action request server-side. This is the
// authoritative path: client-held snapshots render hints, but every
// mutating action is re-validated here before it takes effect.
//
// Store unavailability fails closed: the caller receives ErrUnavailable
// and must treat the action as denied.
func (s *Service) Decide(ctx context.Context, req Request) (domain.Decision, error) {
	if !req.Action.IsValid() {
		return domain.Decision{}, fmt.Errorf("%w: %q", domain.ErrUnknownAction, req.Action)
	}

	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	day := domain.DayOf(now)

	sub, err := s.loadOrBootstrapSubscription(ctx, req.UserID, now)
	if err != nil {
		return domain.Decision{}, err
	}

	usage, err := s.loadUsage(ctx, req.UserID, day)
	if err != nil {
		return domain.Decision{}, err
	}

	decision := domain.Decide(sub, usage, now, req.Action, req.Params)

	if decision.Allowed && req.Action.Mutating() {
		decision = s.consumeQuota(ctx, sub, usage, now, req, decision)
	}

	if !decision.Allowed && decision.TriggerCode != "" {
		s.recordDenial(ctx, req.UserID, sub, now, req.Action, decision.TriggerCode)
	}

	return decision, nil
}

// TrialStatus returns the computed trial phase for a user.
func (s *Service) TrialStatus(ctx context.Context, userID uuid.UUID, now time.Time) (domain.TrialPhase, error) {
	now = now.UTC()
	sub, err := s.loadOrBootstrapSubscription(ctx, userID, now)
	if err != nil {
		return domain.TrialPhase{}, err
	}
	return domain.ComputeTrialPhase(now, sub.TrialStart, sub.TrialEnd), nil
}

// Usage returns the daily counter record for the UTC day containing now.
func (s *Service) Usage(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.DailyUsage, error) {
	return s.loadUsage(ctx, userID, domain.DayOf(now.UTC()))
}

// DecisionInputs returns the subscription and current-day usage record a
// snapshot is projected from, bootstrapping the trial for new users.
func (s *Service) DecisionInputs(ctx context.Context, userID uuid.UUID, now time.Time) (*billingDomain.Subscription, *domain.DailyUsage, error) {
	now = now.UTC()
	sub, err := s.loadOrBootstrapSubscription(ctx, userID, now)
	if err != nil {
		return nil, nil, err
	}
	usage, err := s.loadUsage(ctx, userID, domain.DayOf(now))
	if err != nil {
		return nil, nil, err
	}
	return sub, usage, nil
}

// ShouldPrompt reports whether a scheduled (non-denial) upgrade prompt is
// due for the user, recording it when due so the same threshold never
// fires twice.
func (s *Service) ShouldPrompt(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	now = now.UTC()
	sub, err := s.loadOrBootstrapSubscription(ctx, userID, now)
	if err != nil {
		return false, err
	}
	if sub.AccessState(now) == billingDomain.AccessPremium {
		return false, nil
	}

	history, err := s.prompts.List(ctx, userID)
	if err != nil {
		return false, s.storeErr("failed to load prompt history", err)
	}

	elapsed := domain.ElapsedTrialDays(now, sub.TrialStart)
	threshold, due := domain.NextPromptThreshold(domain.TriggerTrialProgress, elapsed, history)
	if !due {
		return false, nil
	}

	event := domain.PromptEvent{
		UserID:    userID,
		Trigger:   domain.TriggerTrialProgress,
		DayShown:  threshold,
		CreatedAt: now,
	}
	if err := s.prompts.Append(ctx, event); err != nil {
		return false, s.storeErr("failed to record prompt", err)
	}
	return true, nil
}

func (s *Service) loadOrBootstrapSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (*billingDomain.Subscription, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.subscriptions.FindByUserID(ctx, userID)
	})
	if err == nil {
		return result.(*billingDomain.Subscription), nil
	}
	if !errors.Is(err, billingDomain.ErrSubscriptionNotFound) {
		return nil, s.storeErr("failed to load subscription", err)
	}

	// First gated action of a brand-new account: start the trial clock.
	sub := billingDomain.NewTrialSubscription(userID, now)
	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.subscriptions.Upsert(ctx, sub)
	})
	if err != nil {
		return nil, s.storeErr("failed to bootstrap trial subscription", err)
	}

	s.logger.Info("bootstrapped trial subscription",
		"user_id", userID,
		"trial_end", sub.TrialEnd,
	)
	return sub, nil
}

func (s *Service) loadUsage(ctx context.Context, userID uuid.UUID, day domain.Day) (*domain.DailyUsage, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.usage.GetOrCreate(ctx, userID, day)
	})
	if err != nil {
		return nil, s.storeErr("failed to load usage", err)
	}
	return result.(*domain.DailyUsage), nil
}

// consumeQuota performs the atomic check-and-increment backing an allowed
// mutating action. A conflict means another device consumed the last slot
// between our read and the increment: retry once against fresh state, then
// fail closed with the action's quota trigger.
func (s *Service) consumeQuota(ctx context.Context, sub *billingDomain.Subscription, usage *domain.DailyUsage, now time.Time, req Request, decision domain.Decision) domain.Decision {
	field, limit := quotaFor(req.Action)
	if sub.AccessState(now) == billingDomain.AccessPremium {
		limit = 0 // unmetered, counter still tracks totals
	}

	for attempt := 0; attempt < 2; attempt++ {
		_, err := s.breaker.Execute(func() (any, error) {
			_, incErr := s.usage.IncrementIfBelow(ctx, req.UserID, usage.Day, field, limit)
			return nil, incErr
		})
		if err == nil {
			return decision
		}
		if !errors.Is(err, domain.ErrConflict) {
			// Store failure mid-action: fail closed.
			s.logger.Error("quota increment failed",
				"user_id", req.UserID,
				"action", req.Action,
				"error", err,
			)
			return domain.Decision{
				Action:  req.Action,
				Allowed: false,
				Reason:  "entitlement store unavailable",
			}
		}
	}

	trigger := domain.TriggerMessageLimit
	if req.Action == domain.ActionImportData {
		trigger = domain.TriggerDataImportLimit
	}
	return domain.Decision{
		Action:      req.Action,
		Allowed:     false,
		Reason:      "quota consumed by concurrent request",
		TriggerCode: trigger,
	}
}

// recordDenial logs an immediate upgrade prompt for the denial and emits a
// limit event for quota triggers. Failures here never affect the decision.
func (s *Service) recordDenial(ctx context.Context, userID uuid.UUID, sub *billingDomain.Subscription, now time.Time, action domain.Action, trigger domain.TriggerCode) {
	history, err := s.prompts.List(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load prompt history", "user_id", userID, "error", err)
		return
	}

	elapsed := domain.ElapsedTrialDays(now, sub.TrialStart)
	if domain.ShouldPromptOnDenial(trigger, elapsed, history) {
		event := domain.PromptEvent{
			UserID:    userID,
			Trigger:   trigger,
			DayShown:  elapsed,
			CreatedAt: now,
		}
		if err := s.prompts.Append(ctx, event); err != nil {
			s.logger.Warn("failed to record denial prompt", "user_id", userID, "error", err)
		}
	}

	if trigger == domain.TriggerMessageLimit || trigger == domain.TriggerDataImportLimit {
		event := domain.NewLimitReached(userID, action, trigger)
		if err := eventbus.PublishDomainEvent(ctx, s.publisher, event, event.Payload()); err != nil {
			s.logger.Warn("failed to publish limit event", "user_id", userID, "error", err)
		}
	}
}

// storeErr maps infrastructure failures (including an open breaker) onto
// ErrUnavailable while preserving the cause for logging.
func (s *Service) storeErr(msg string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %w", msg, domain.ErrUnavailable, err)
	}
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrUnavailable, err)
}

func quotaFor(action domain.Action) (domain.UsageField, int) {
	if action == domain.ActionImportData {
		return domain.FieldDataImportsUsed, domain.TrialDataImportLimit
	}
	return domain.FieldMessagesSent, domain.TrialDailyMessageLimit
}
