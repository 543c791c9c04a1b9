package datastore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/resolvers"
	"github.com/roach88/qbridge/internal/sqlexpr"
	"github.com/roach88/qbridge/internal/store"
)

// TracerName is the instrumentation name of datastore spans.
const TracerName = "github.com/roach88/qbridge/internal/datastore"

// DefaultMaxTries bounds attempts at a statement hitting lock contention.
const DefaultMaxTries = 5

// Datastore runs queries built from the abstract model.
type Datastore struct {
	store   *store.Store
	catalog *catalog.Catalog
	tracer  trace.Tracer

	maxTries uint
	backoff  func() backoff.BackOff

	mu       sync.RWMutex
	registry *resolve.Registry
}

// Option configures a Datastore.
type Option func(*Datastore)

// WithResolver adds resolvers to the datastore-level set.
func WithResolver(rs ...resolve.Resolver) Option {
	return func(d *Datastore) { d.registry.Register(rs...) }
}

// WithTracerProvider sets the provider of datastore spans. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Datastore) { d.tracer = tp.Tracer(TracerName) }
}

// WithMaxTries bounds attempts of a statement failing with a transient error.
func WithMaxTries(n uint) Option {
	return func(d *Datastore) { d.maxTries = n }
}

// WithBackOff sets the retry schedule factory.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(d *Datastore) { d.backoff = fn }
}

// New creates a datastore over st. The built-in resolvers are always
// registered.
func New(st *store.Store, cat *catalog.Catalog, opts ...Option) *Datastore {
	d := &Datastore{
		store:    st,
		catalog:  cat,
		tracer:   otel.Tracer(TracerName),
		maxTries: DefaultMaxTries,
		backoff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		registry: resolvers.NewRegistry(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds resolvers to the shared set. Queries created afterwards
// see them; existing queries do not.
func (d *Datastore) Register(rs ...resolve.Resolver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry.Register(rs...)
}

// Catalog returns the entity catalog.
func (d *Datastore) Catalog() *catalog.Catalog { return d.catalog }

func (d *Datastore) snapshot() *resolve.Registry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registry.Clone()
}

// fromContext is a query context over target, for statements that are not
// assembled by resolvers.BuildSelect.
func fromContext(reg *resolve.Registry, cat *catalog.Catalog, target *queryir.Target) (*resolve.Context, sqlexpr.Entity, error) {
	if err := target.Validate(); err != nil {
		return nil, sqlexpr.Entity{}, resolve.NewInvalidExpressionError(target.String(), err)
	}
	base := resolve.NewContext(reg, cat)
	entity, err := resolve.Must[sqlexpr.Entity](base, target)
	if err != nil {
		return nil, sqlexpr.Entity{}, err
	}
	ctx := base.Child(resolve.Join{Source: target.Name, Target: entity, Kind: resolve.JoinFrom})
	return ctx, entity, nil
}

// execute runs fn under a span, an optional timeout and the transient
// error retry loop.
func execute[T any](ctx context.Context, d *Datastore, op, statement string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	id := newOperationID()
	ctx, span := d.tracer.Start(ctx, "datastore."+op, trace.WithAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.statement", statement),
		attribute.String("qbridge.op_id", id),
	))
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	attempts := 0
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := fn(ctx)
		if err != nil && !store.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(d.backoff()), backoff.WithMaxTries(d.maxTries))

	span.SetAttributes(attribute.Int("qbridge.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("statement failed",
			"op", op,
			"op_id", id,
			"attempts", attempts,
			"error", err,
		)
		return res, err
	}

	slog.Info("statement executed",
		"op", op,
		"op_id", id,
		"sql", statement,
		"attempts", attempts,
		"duration", time.Since(start),
	)
	return res, nil
}

func newOperationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
