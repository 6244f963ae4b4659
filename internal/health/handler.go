package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler handles health check operations.
type Handler struct {
	store   Checker
	cache   Checker
	timeout time.Duration
	started time.Time
	now     func() time.Time
}

// NewHandler creates a new health handler. cache may be nil when no read
// cache is configured.
func NewHandler(store, cache Checker, timeout time.Duration) *Handler {
	return &Handler{
		store:   store,
		cache:   cache,
		timeout: timeout,
		started: time.Now(),
		now:     time.Now,
	}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status    string    `json:"status"          enum:"ok,degraded"`
		Store     string    `json:"store"           enum:"healthy,unhealthy"`
		Cache     string    `json:"cache,omitempty" enum:"healthy,unhealthy"`
		Timestamp time.Time `json:"timestamp"`
		Uptime    float64   `json:"uptime"          doc:"Seconds since the server started"`
	}
}

// Check performs a health check of the application and its dependencies.
// The first check may establish the store connection.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	now := h.now()

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Timestamp = now.UTC()
	resp.Body.Uptime = now.Sub(h.started).Seconds()

	resp.Body.Store = h.probe(ctx, h.store)
	if resp.Body.Store != "healthy" {
		resp.Body.Status = "degraded"
	}

	if h.cache != nil {
		resp.Body.Cache = h.probe(ctx, h.cache)
		if resp.Body.Cache != "healthy" {
			resp.Body.Status = "degraded"
		}
	}

	return resp, nil
}

func (h *Handler) probe(ctx context.Context, c Checker) string {
	if h.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := c.Ping(ctx); err != nil {
		return "unhealthy"
	}

	return "healthy"
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check, func(op *huma.Operation) {
		op.Tags = []string{"Health"}
		op.Summary = "Service health"
	})
}
