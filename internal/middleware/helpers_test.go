package middleware_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/zx8086/url-shortener/internal/handlers"
	"github.com/zx8086/url-shortener/internal/middleware"
)

type testOutput struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

// newTestAPI returns a router carrying RequestMeta and an API on top of it.
func newTestAPI(t *testing.T) (*chi.Mux, huma.API) {
	t.Helper()

	handlers.UseMessageErrors()

	router := chi.NewMux()
	router.Use(middleware.RequestMeta)

	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))

	return router, api
}

// registerTestOperation adds GET /test, which reports the request metadata it saw.
func registerTestOperation(api huma.API, seen chan<- handlers.RequestMeta) {
	huma.Register(api, huma.Operation{Method: http.MethodGet, Path: "/test"},
		func(ctx context.Context, _ *struct{}) (*testOutput, error) {
			if seen != nil {
				seen <- handlers.RequestMetaFromContext(ctx)
			}

			resp := &testOutput{}
			resp.Body.OK = true

			return resp, nil
		})
}
