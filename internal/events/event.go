package events

import (
	"time"

	"github.com/zx8086/url-shortener/internal/shortener"
)

// TopicMappingCreated carries a MappingCreated for every new mapping.
const TopicMappingCreated = "mapping.created"

// MappingCreated is emitted after a new mapping has been stored.
type MappingCreated struct {
	Code      string    `json:"code"`
	LongURL   string    `json:"longUrl"`
	ShortURL  string    `json:"shortUrl"`
	CreatedAt time.Time `json:"createdAt"`
	RequestID string    `json:"requestId,omitempty"`
}

// NewMappingCreated builds the event for m.
func NewMappingCreated(m *shortener.Mapping, requestID string) *MappingCreated {
	return &MappingCreated{
		Code:      string(m.Code),
		LongURL:   m.LongURL,
		ShortURL:  m.ShortURL,
		CreatedAt: m.CreatedAt,
		RequestID: requestID,
	}
}

// Mapping converts the event back into the mapping it announces.
func (e *MappingCreated) Mapping() *shortener.Mapping {
	return &shortener.Mapping{
		LongURL:   e.LongURL,
		Code:      shortener.Code(e.Code),
		ShortURL:  e.ShortURL,
		CreatedAt: e.CreatedAt,
	}
}
