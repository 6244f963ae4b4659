package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zx8086/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// Response messages shown to clients.
const (
	MessageInvalidURL  = "Invalid or no URL provided."
	MessageNotFound    = "Page not found"
	MessageUnavailable = "Service temporarily unavailable. Please try again."
	MessageInternal    = "An unexpected error occurred."
)

// MessageError is the single error body every endpoint returns.
type MessageError struct {
	status  int
	URL     string `json:"url,omitempty" doc:"The URL the request was about, when relevant"`
	Message string `json:"message"       doc:"Human readable description of the failure"`
}

func (e *MessageError) Error() string {
	return e.Message
}

func (e *MessageError) GetStatus() int {
	return e.status
}

// NewMessageError creates an error rendered as {"message": msg}.
func NewMessageError(status int, msg string) *MessageError {
	return &MessageError{status: status, Message: msg}
}

// UseMessageErrors makes huma render its own errors, such as malformed
// bodies, in the MessageError shape. Detail from errs is not exposed.
func UseMessageErrors() {
	huma.NewError = func(status int, msg string, _ ...error) huma.StatusError {
		return NewMessageError(status, msg)
	}
}

// errorResponse maps a service error onto a client response. Anything the
// client cannot act on is logged in full and answered with a generic message.
func errorResponse(err error, logger *zap.Logger) *MessageError {
	kind := shortener.KindOf(err)

	switch kind {
	case shortener.KindValidation:
		resp := NewMessageError(http.StatusBadRequest, MessageInvalidURL)

		var e *shortener.Error
		if errors.As(err, &e) {
			resp.URL = e.Input
		}

		return resp
	case shortener.KindNotFound:
		return NewMessageError(http.StatusNotFound, MessageNotFound)
	case shortener.KindTransient, shortener.KindConnection:
		logger.Warn("store unavailable", zap.Stringer("kind", kind), zap.Error(err))

		return NewMessageError(http.StatusInternalServerError, MessageUnavailable)
	default:
		logger.Error("unexpected error", zap.Error(err))

		return NewMessageError(http.StatusInternalServerError, MessageInternal)
	}
}
