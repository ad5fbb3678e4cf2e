// Package gate is the enforcement façade in front of entity payloads. It
// combines the declared policy matrix with the break-glass ledger to decide,
// per field, how much of a value a subject may see — and whether a mutation
// may proceed at all.
//
// The read path is total: redact and AuthorizeWrite never return errors to
// the caller. Anything unexpected degrades to the most restrictive outcome
// so a bug upstream cannot widen disclosure.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	bgmodels "github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
	"github.com/Vumbi2018/lgis-sub001/internal/gate/tracer"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/metrics"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/privacy"
	policymodels "github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

// Source names where a decision's level came from.
type Source string

const (
	SourcePolicy     Source = "policy"
	SourceBreakGlass Source = "break_glass"
)

// Subject is the authenticated caller as the gate sees it: a role tier plus
// an optional break-glass grant the subject claims to hold.
type Subject struct {
	UserID  string
	Role    policymodels.Role
	GrantID string
}

// Decision is the ephemeral outcome of resolving one (subject, field) pair.
// GrantID is set only when the level came from an active break-glass grant.
type Decision struct {
	Level   policymodels.AccessLevel
	Source  Source
	GrantID string
}

// PolicySource resolves stored field policies. Satisfied by
// evaluator.Evaluator.
type PolicySource interface {
	Policy(ctx context.Context, entityType policymodels.EntityType, fieldName string) (*policymodels.FieldPolicy, error)
}

// Grants reads break-glass requests for elevation checks. Satisfied by the
// break-glass service.
type Grants interface {
	Get(ctx context.Context, requestID string) (*bgmodels.Request, error)
}

// Option configures the Gate.
type Option func(*Gate)

// WithMetrics sets the metrics instance for the gate
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithTracer sets the tracer used on every decision path.
func WithTracer(t tracer.Tracer) Option {
	return func(g *Gate) {
		if t != nil {
			g.tracer = t
		}
	}
}

// Gate enforces field-level disclosure. Construct one per process and share
// it; all state lives in the stores behind the policy source and ledger.
type Gate struct {
	policies PolicySource
	grants   Grants
	masker   *privacy.Masker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

// New constructs a gate over the policy source and grant ledger. The masker
// key determines identifier tokenization and must be stable per deployment.
func New(policies PolicySource, grants Grants, masker *privacy.Masker, logger *slog.Logger, opts ...Option) *Gate {
	g := &Gate{
		policies: policies,
		grants:   grants,
		masker:   masker,
		logger:   logger,
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ResolveField decides the access level for one field. The base level comes
// from the policy matrix; a subject holding an active grant whose scope
// covers the entity type is elevated to the field's break-glass column when
// that column is more permissive. Elevation is monotonic: the result is
// never below the unescalated level.
//
// Errors carry CodeConfiguration for an unknown entity type and CodeInternal
// for store failures. Grant lookup problems do not error: the subject simply
// keeps its base level.
func (g *Gate) ResolveField(ctx context.Context, subject Subject, entityType policymodels.EntityType, fieldName string, now time.Time) (Decision, error) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanResolveField,
		tracer.String(tracer.AttrEntityType, string(entityType)),
		tracer.String(tracer.AttrFieldName, fieldName),
		tracer.String(tracer.AttrRole, string(subject.Role)),
	)
	start := time.Now()
	decision, err := g.resolveField(ctx, span, subject, entityType, fieldName, now)
	if g.metrics != nil {
		g.metrics.ObserveResolveLatency(time.Since(start).Seconds())
		if err == nil {
			g.metrics.IncrementFieldDecisions(string(decision.Level), string(decision.Source))
		}
	}
	span.SetAttributes(
		tracer.String(tracer.AttrLevel, string(decision.Level)),
		tracer.String(tracer.AttrSource, string(decision.Source)),
	)
	span.End(err)
	return decision, err
}

func (g *Gate) resolveField(ctx context.Context, span tracer.Span, subject Subject, entityType policymodels.EntityType, fieldName string, now time.Time) (Decision, error) {
	policy, err := g.policies.Policy(ctx, entityType, fieldName)
	if err != nil {
		return Decision{Level: policymodels.LevelNone, Source: SourcePolicy}, err
	}

	decision := Decision{Level: policy.LevelFor(subject.Role), Source: SourcePolicy}
	if subject.GrantID == "" {
		return decision, nil
	}

	grant := g.activeGrant(ctx, subject, now)
	if grant == nil {
		span.SetAttributes(tracer.Bool(tracer.AttrGrantActive, false))
		return decision, nil
	}
	span.SetAttributes(tracer.Bool(tracer.AttrGrantActive, true))

	if !grant.Scope.CoversEntity(entityType) {
		return decision, nil
	}
	if !decision.Level.AtLeast(policy.BreakGlass) {
		decision = Decision{Level: policy.BreakGlass, Source: SourceBreakGlass, GrantID: grant.ID}
		span.AddEvent(tracer.EventGrantElevated, tracer.String("grant_id", grant.ID))
	}
	return decision, nil
}

// activeGrant returns the subject's grant when it exists, belongs to the
// subject, and its window is open at the given instant. Any failure along
// the way means no elevation.
func (g *Gate) activeGrant(ctx context.Context, subject Subject, now time.Time) *bgmodels.Request {
	grant, err := g.grants.Get(ctx, subject.GrantID)
	if err != nil {
		g.logger.WarnContext(ctx, "grant_lookup_failed",
			"grant_id", subject.GrantID,
			"error", err,
		)
		return nil
	}
	if grant.UserID != subject.UserID {
		g.logger.WarnContext(ctx, "grant_subject_mismatch",
			"grant_id", subject.GrantID,
			"grant_user_id", grant.UserID,
			"subject_user_id", subject.UserID,
		)
		return nil
	}
	if !grant.IsActive(now) {
		return nil
	}
	return grant
}

// Redact returns a copy of the record filtered for the subject. Fields
// resolved to none are absent from the output, not nulled, so the caller
// cannot distinguish "hidden" from "does not exist". Masked and partial
// values are rendered by the field kind's formatter. Redact never fails:
// any resolution error drops the field.
func (g *Gate) Redact(ctx context.Context, subject Subject, entityType policymodels.EntityType, record map[string]any, now time.Time) map[string]any {
	ctx, span := g.tracer.Start(ctx, tracer.SpanRedact,
		tracer.String(tracer.AttrEntityType, string(entityType)),
		tracer.String(tracer.AttrRole, string(subject.Role)),
		tracer.Int64(tracer.AttrFieldsTotal, int64(len(record))),
	)
	defer span.End(nil)

	out := make(map[string]any, len(record))
	removed := int64(0)
	for field, value := range record {
		decision, err := g.ResolveField(ctx, subject, entityType, field, now)
		if err != nil {
			g.logger.WarnContext(ctx, "field_resolution_failed",
				"entity_type", string(entityType),
				"field_name", field,
				"error", err,
			)
			removed++
			continue
		}
		switch decision.Level {
		case policymodels.LevelFull:
			out[field] = value
		case policymodels.LevelNone:
			removed++
		default:
			out[field] = g.renderField(ctx, entityType, field, decision.Level, value)
			if g.metrics != nil {
				g.metrics.IncrementFieldsRedacted(string(decision.Level))
			}
		}
	}
	span.SetAttributes(tracer.Int64(tracer.AttrFieldsRemoved, removed))
	return out
}

// AuthorizeWrite reports whether the subject may mutate the field: only a
// resolved level of full permits a write. It never errors; resolution
// failures deny.
func (g *Gate) AuthorizeWrite(ctx context.Context, subject Subject, entityType policymodels.EntityType, fieldName string, now time.Time) bool {
	ctx, span := g.tracer.Start(ctx, tracer.SpanAuthorizeWrite,
		tracer.String(tracer.AttrEntityType, string(entityType)),
		tracer.String(tracer.AttrFieldName, fieldName),
		tracer.String(tracer.AttrRole, string(subject.Role)),
	)
	defer span.End(nil)

	decision, err := g.ResolveField(ctx, subject, entityType, fieldName, now)
	if err != nil || decision.Level != policymodels.LevelFull {
		if g.metrics != nil {
			g.metrics.IncrementWriteDenials(string(entityType))
		}
		return false
	}
	return true
}

// renderField applies the field kind's formatter for the masked and partial
// levels. Formatters are deterministic and non-reversible without the
// original value (identifier tokens additionally need the masker key).
func (g *Gate) renderField(ctx context.Context, entityType policymodels.EntityType, fieldName string, level policymodels.AccessLevel, value any) any {
	policy, err := g.policies.Policy(ctx, entityType, fieldName)
	kind := policymodels.KindText
	if err == nil {
		kind = policy.FieldKind
	}

	if level == policymodels.LevelMasked {
		return g.maskValue(kind, value)
	}
	return partialValue(kind, value)
}

func (g *Gate) maskValue(kind policymodels.FieldKind, value any) any {
	switch kind {
	case policymodels.KindIdentifier:
		return g.masker.Token(asString(value))
	case policymodels.KindName:
		return privacy.Initials(asString(value))
	case policymodels.KindAddress:
		return "[address withheld]"
	case policymodels.KindAmount:
		return "•••"
	default:
		return "[redacted]"
	}
}

func partialValue(kind policymodels.FieldKind, value any) any {
	switch kind {
	case policymodels.KindIdentifier:
		return privacy.LastN(asString(value), 4)
	case policymodels.KindName:
		return privacy.GivenNameOnly(asString(value))
	case policymodels.KindAddress:
		return privacy.LastSegment(asString(value))
	case policymodels.KindAmount:
		if f, ok := asFloat(value); ok {
			return privacy.RoundAmount(f, 100)
		}
		return "•••"
	default:
		return privacy.Truncate(asString(value), 16)
	}
}

func asString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
