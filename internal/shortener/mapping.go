package shortener

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Repository when no mapping matches the lookup.
var ErrNotFound = errors.New("mapping not found")

// Code is the short code identifying a mapping. It is the mapping's primary key.
type Code string

// Mapping ties a long URL to the short code that resolves to it.
type Mapping struct {
	LongURL   string
	Code      Code
	ShortURL  string
	CreatedAt time.Time
}

// Repository defines the persistence operations the service needs.
type Repository interface {
	// FindByLongURL returns the first mapping whose long URL matches exactly.
	// Returns ErrNotFound if none exists.
	FindByLongURL(ctx context.Context, longURL string) (*Mapping, error)
	// GetByCode returns the mapping stored under code.
	// Returns ErrNotFound if none exists.
	GetByCode(ctx context.Context, code Code) (*Mapping, error)
	// Upsert stores the mapping under its code, overwriting any previous content.
	Upsert(ctx context.Context, mapping *Mapping) error
}
