package handlers

import (
	"context"
	"net/http"

	"github.com/zx8086/url-shortener/internal/events"
	"github.com/zx8086/url-shortener/internal/messaging"
	"github.com/zx8086/url-shortener/internal/metrics"
	"github.com/zx8086/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// Response messages for a successful shorten.
const (
	MessageCreated  = "URL shortened successfully"
	MessageExisting = "URL already shortened"
)

// MappingService is the part of shortener.Service the handlers use.
type MappingService interface {
	Shorten(ctx context.Context, longURL string) (*shortener.Result, error)
	Resolve(ctx context.Context, code shortener.Code) (string, error)
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	service        MappingService
	publishCreated messaging.Publish[events.MappingCreated]
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	service MappingService,
	publishCreated messaging.Publish[events.MappingCreated],
	m *metrics.Metrics,
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		service:        service,
		publishCreated: publishCreated,
		metrics:        m,
		logger:         logger,
	}
}

func (h *URLHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	meta := RequestMetaFromContext(ctx)

	result, err := h.service.Shorten(ctx, req.Body.LongURL)
	if err != nil {
		h.metrics.Mapping("error")

		return nil, errorResponse(err, h.logger.With(zap.String("request_id", meta.RequestID)))
	}

	h.metrics.Mapping(string(result.Status))

	resp := &ShortenResponse{}
	resp.Body.ShortURL = result.Mapping.ShortURL
	resp.Body.Status = string(result.Status)
	resp.Body.Message = MessageExisting

	if result.Status == shortener.StatusCreated {
		resp.Body.Message = MessageCreated

		if err = h.publishCreated(ctx, events.NewMappingCreated(result.Mapping, meta.RequestID)); err != nil {
			h.logger.Error("failed to publish mapping created event",
				zap.String("code", string(result.Mapping.Code)),
				zap.String("request_id", meta.RequestID),
				zap.Error(err),
			)
		}
	}

	return resp, nil
}

func (h *URLHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	longURL, err := h.service.Resolve(ctx, shortener.Code(req.ShortCode))
	if err != nil {
		if shortener.KindOf(err) == shortener.KindNotFound {
			h.metrics.Resolution("miss")
		} else {
			h.metrics.Resolution("error")
		}

		meta := RequestMetaFromContext(ctx)

		return nil, errorResponse(err, h.logger.With(zap.String("request_id", meta.RequestID)))
	}

	h.metrics.Resolution("hit")

	return &RedirectResponse{
		Status:   http.StatusMovedPermanently,
		Location: longURL,
	}, nil
}

// Favicon answers browsers' favicon requests so they do not hit the redirect route.
func Favicon(_ context.Context, _ *struct{}) (*EmptyResponse, error) {
	return &EmptyResponse{Status: http.StatusNoContent}, nil
}
