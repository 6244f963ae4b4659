package store

import (
	"context"
	"time"

	"github.com/zx8086/url-shortener/internal/metrics"
	"github.com/zx8086/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// Repository implements shortener.Repository on a Connector. It is the only
// place store errors are classified; everything it returns is either
// shortener.ErrNotFound or a *shortener.Error.
type Repository struct {
	connector *Connector
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewRepository creates a repository. timeout bounds each store operation on
// top of the caller's deadline; zero means the caller's deadline only.
func NewRepository(connector *Connector, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Repository {
	return &Repository{
		connector: connector,
		timeout:   timeout,
		logger:    logger,
		metrics:   m,
	}
}

func (r *Repository) FindByLongURL(ctx context.Context, longURL string) (*shortener.Mapping, error) {
	var (
		rec   Record
		found bool
	)

	err := r.run(ctx, "find_by_long_url", func(ctx context.Context, s Session) error {
		var err error
		rec, found, err = s.Lookup(ctx, longURL)

		return err
	})
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, shortener.ErrNotFound
	}

	return rec.mapping(rec.Key), nil
}

func (r *Repository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Mapping, error) {
	var doc Document

	err := r.run(ctx, "get_by_code", func(ctx context.Context, s Session) error {
		var err error
		doc, err = s.Get(ctx, string(code))

		return err
	})
	if err != nil {
		return nil, err
	}

	return doc.mapping(string(code)), nil
}

func (r *Repository) Upsert(ctx context.Context, mapping *shortener.Mapping) error {
	return r.run(ctx, "upsert", func(ctx context.Context, s Session) error {
		return s.Upsert(ctx, string(mapping.Code), newDocument(mapping))
	})
}

// run executes one store operation. It is never retried: a repeated upsert
// after an ambiguous timeout could race with a concurrent writer.
func (r *Repository) run(ctx context.Context, op string, fn func(context.Context, Session) error) error {
	s, err := r.connector.Acquire(ctx)
	if err != nil {
		return err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err = fn(ctx, s)

	if err == nil {
		r.metrics.StoreOperation(r.connector.Backend(), op, "ok", time.Since(start))

		return nil
	}

	class := r.connector.Classify(err)
	r.metrics.StoreOperation(r.connector.Backend(), op, class.String(), time.Since(start))

	return r.translate(op, s, class, err)
}

func (r *Repository) translate(op string, s Session, class Class, err error) error {
	switch class {
	case ClassNotFound:
		return shortener.ErrNotFound
	case ClassTransient:
		return shortener.NewError(shortener.KindTransient, op+": store temporarily unavailable", err)
	case ClassFatal:
		r.connector.Invalidate(s)

		return shortener.NewError(shortener.KindConnection, op+": store session unusable", err)
	default:
		r.logger.Error("unclassified store error",
			zap.String("operation", op),
			zap.String("backend", r.connector.Backend()),
			zap.Error(err),
		)

		return shortener.NewError(shortener.KindUnknown, op, err)
	}
}

// Compile-time check.
var _ shortener.Repository = (*Repository)(nil)
