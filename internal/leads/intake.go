package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/agency-leads/internal/observability/metrics"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

var (
	intakeTracer = otel.Tracer("agency.internal.leads.intake")
	storeTracer  = otel.Tracer("agency.internal.leads.store")
)

// Notifier delivers a best-effort notification about an accepted lead.
type Notifier interface {
	NotifyLead(ctx context.Context, lead Lead) error
}

// EventPublisher announces accepted leads to downstream consumers.
type EventPublisher interface {
	PublishLeadCreated(ctx context.Context, lead Lead) error
}

// Outcome is the caller-visible result of a submission.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeRateLimited Outcome = "rate_limited"
)

// SubmitResult reports what happened to a submission. StorageErr, NotifyErr
// and PublishErr never change Outcome; they are kept so callers and tests
// can see that a side effect failed even though the submitter was told the
// lead was accepted.
type SubmitResult struct {
	Outcome     Outcome
	LeadID      string
	Lead        *Lead
	FieldErrors map[string]string
	RetryAfter  time.Duration

	StorageErr error
	NotifyErr  error
	PublishErr error
}

// Degraded reports whether any best-effort step failed.
func (r SubmitResult) Degraded() bool {
	return r.StorageErr != nil || r.NotifyErr != nil || r.PublishErr != nil
}

// IntakeConfig wires an Intake. Limiter and Store are required.
type IntakeConfig struct {
	// Name labels logs and metrics, e.g. "lead" or "contact".
	Name      string
	Limiter   RateLimiter
	Store     Store
	Notifier  Notifier
	Publisher EventPublisher
	// DefaultSource fills Submission.Source when the form leaves it blank.
	DefaultSource string
	NewID         IDFunc
	Clock         func() time.Time
	Logger        *logging.Logger
	Metrics       *metrics.LeadMetrics
}

// Intake runs the submission pipeline: rate limit, validate, stamp, persist,
// then notify.
type Intake struct {
	name          string
	limiter       RateLimiter
	store         Store
	notifier      Notifier
	publisher     EventPublisher
	defaultSource string
	newID         IDFunc
	clock         func() time.Time
	logger        *logging.Logger
	metrics       *metrics.LeadMetrics
}

// NewIntake creates an intake pipeline.
func NewIntake(cfg IntakeConfig) *Intake {
	if cfg.Limiter == nil {
		panic("leads: rate limiter required")
	}
	if cfg.Store == nil {
		panic("leads: store required")
	}
	if cfg.Name == "" {
		cfg.Name = "lead"
	}
	if cfg.NewID == nil {
		cfg.NewID = NewID
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Intake{
		name:          cfg.Name,
		limiter:       cfg.Limiter,
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		publisher:     cfg.Publisher,
		defaultSource: cfg.DefaultSource,
		newID:         cfg.NewID,
		clock:         cfg.Clock,
		logger:        cfg.Logger.With("intake", cfg.Name),
		metrics:       cfg.Metrics,
	}
}

// Name returns the intake label.
func (in *Intake) Name() string {
	return in.name
}

// Now returns the intake clock's current time.
func (in *Intake) Now() time.Time {
	return in.clock()
}

// CheckRateLimit records an attempt for clientKey if it fits the window.
// Limiter errors are logged and the limiter's own decision is used.
func (in *Intake) CheckRateLimit(ctx context.Context, clientKey string, now time.Time) Decision {
	decision, err := in.limiter.Allow(ctx, clientKey, now)
	if err != nil {
		in.logger.Warn("rate limiter error", "error", err, "client_key", clientKey, "allowed", decision.Allowed)
	}
	return decision
}

// Submit runs the pipeline for an already decoded payload. The error return
// is reserved for unexpected faults; validation and rate limiting are
// reported through the result.
func (in *Intake) Submit(ctx context.Context, payload map[string]any, clientKey string, now time.Time) (SubmitResult, error) {
	return in.submit(ctx, clientKey, now, func() (map[string]any, error) {
		return payload, nil
	})
}

// SubmitJSON is Submit for a raw request body. The rate limit is checked
// before the body is read so abusive clients are turned away cheaply.
func (in *Intake) SubmitJSON(ctx context.Context, body io.Reader, clientKey string, now time.Time) (SubmitResult, error) {
	return in.submit(ctx, clientKey, now, func() (map[string]any, error) {
		return decodePayload(body)
	})
}

func (in *Intake) submit(ctx context.Context, clientKey string, now time.Time, load func() (map[string]any, error)) (SubmitResult, error) {
	ctx, span := intakeTracer.Start(ctx, "leads.intake.submit")
	defer span.End()
	span.SetAttributes(attribute.String("leads.intake", in.name))

	start := time.Now()
	defer func() { in.metrics.ObserveLatency(in.name, time.Since(start).Seconds()) }()

	decision := in.CheckRateLimit(ctx, clientKey, now)
	if !decision.Allowed {
		in.metrics.ObserveSubmission(in.name, string(OutcomeRateLimited))
		in.logger.Info("submission rate limited",
			"client_key", clientKey,
			"count", decision.Count,
			"limit", decision.Limit,
			"retry_after_ms", decision.RetryAfter.Milliseconds(),
		)
		span.SetAttributes(attribute.String("leads.outcome", string(OutcomeRateLimited)))
		return SubmitResult{Outcome: OutcomeRateLimited, RetryAfter: decision.RetryAfter}, nil
	}

	payload, err := load()
	if err != nil {
		in.metrics.ObserveSubmission(in.name, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode payload")
		return SubmitResult{}, err
	}

	sub, err := Validate(payload)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return SubmitResult{}, err
		}
		in.metrics.ObserveSubmission(in.name, string(OutcomeInvalid))
		in.logger.Info("submission failed validation", "client_key", clientKey, "fields", len(verr.Fields))
		span.SetAttributes(attribute.String("leads.outcome", string(OutcomeInvalid)))
		return SubmitResult{Outcome: OutcomeInvalid, FieldErrors: verr.Fields}, nil
	}
	if sub.Source == "" {
		sub.Source = in.defaultSource
	}

	id, err := in.newID()
	if err != nil {
		in.metrics.ObserveSubmission(in.name, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate id")
		return SubmitResult{}, err
	}
	lead := newLead(id, sub, now)
	span.SetAttributes(attribute.String("leads.id", lead.ID))

	result := SubmitResult{Outcome: OutcomeAccepted, LeadID: lead.ID, Lead: &lead}

	if err := in.store.Append(ctx, lead); err != nil {
		result.StorageErr = err
		in.metrics.ObserveSideEffectFailure(in.name, "storage")
		// The full record is logged so it can be replayed into the store.
		in.logger.Alert("lead store append failed", "error", err, "lead_id", lead.ID, "lead", lead)
		span.RecordError(err)
	}

	if in.notifier != nil {
		if err := in.notifier.NotifyLead(ctx, lead); err != nil {
			result.NotifyErr = err
			in.metrics.ObserveSideEffectFailure(in.name, "notify")
			in.logger.Alert("lead notification failed", "error", err, "lead_id", lead.ID)
		}
	}

	if in.publisher != nil {
		if err := in.publisher.PublishLeadCreated(ctx, lead); err != nil {
			result.PublishErr = err
			in.metrics.ObserveSideEffectFailure(in.name, "publish")
			in.logger.Alert("lead event publish failed", "error", err, "lead_id", lead.ID)
		}
	}

	in.metrics.ObserveSubmission(in.name, string(OutcomeAccepted))
	in.logger.Info("lead accepted", "lead_id", lead.ID, "service", lead.Service, "degraded", result.Degraded())
	span.SetAttributes(
		attribute.String("leads.outcome", string(OutcomeAccepted)),
		attribute.Bool("leads.degraded", result.Degraded()),
	)
	return result, nil
}

func decodePayload(body io.Reader) (map[string]any, error) {
	if body == nil {
		return nil, ErrInvalidPayload
	}
	var payload map[string]any
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload == nil {
		return nil, ErrInvalidPayload
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidPayload)
	}
	return payload, nil
}
