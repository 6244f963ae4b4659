package store

import (
	"context"
	"time"

	"github.com/zx8086/url-shortener/internal/shortener"
)

// Document is the persisted shape of a mapping, keyed by its short code.
type Document struct {
	LongURL   string `json:"longUrl"`
	ShortURL  string `json:"shortUrl"`
	CreatedAt string `json:"createdAt"`
}

// Record is a document together with the key it is stored under.
type Record struct {
	Key string
	Document
}

// Session is an established connection to a backing document store.
// Implementations are shared by all requests and must be safe for concurrent use.
type Session interface {
	// Lookup finds the first document whose longUrl equals longURL.
	// found is false when there is none; err is reserved for transport or query failures.
	Lookup(ctx context.Context, longURL string) (rec Record, found bool, err error)
	// Get fetches the document stored under key. A missing key is reported with the
	// backend's own not-found error, which its Classifier maps to ClassNotFound.
	Get(ctx context.Context, key string) (Document, error)
	// Upsert writes doc under key, replacing any previous content.
	Upsert(ctx context.Context, key string, doc Document) error
	Ping(ctx context.Context) error
	Close() error
}

// Dialer establishes a new Session.
type Dialer func(ctx context.Context) (Session, error)

// Backend bundles how to reach a store with how to read its errors.
type Backend struct {
	Name     string
	Dial     Dialer
	Classify Classifier
}

func newDocument(m *shortener.Mapping) Document {
	return Document{
		LongURL:   m.LongURL,
		ShortURL:  m.ShortURL,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (d Document) mapping(key string) *shortener.Mapping {
	// Documents written by other tools may carry a malformed timestamp; the
	// mapping is still usable without it.
	createdAt, _ := time.Parse(time.RFC3339Nano, d.CreatedAt)

	return &shortener.Mapping{
		LongURL:   d.LongURL,
		Code:      shortener.Code(key),
		ShortURL:  d.ShortURL,
		CreatedAt: createdAt,
	}
}
