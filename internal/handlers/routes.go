package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "shorten-url",
		Method:      http.MethodPost,
		Path:        "/shorten",
		Summary:     "Shorten a URL",
		Description: "Returns the existing short URL for a long URL, or creates one.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError},
	}, urlHandler.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "favicon",
		Method:      http.MethodGet,
		Path:        "/favicon.ico",
		Summary:     "Favicon",
		Hidden:      true,
	}, Favicon)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{shortCode}",
		Summary:       "Redirect to the long URL",
		Description:   "Redirects permanently to the long URL stored under the short code.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusMovedPermanently,
		Errors:        []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError},
	}, urlHandler.Redirect)
}
