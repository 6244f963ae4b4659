package shortener

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Status tells the caller whether Shorten created a mapping or found one.
type Status string

const (
	StatusCreated  Status = "created"
	StatusExisting Status = "existing"
)

// Result is the outcome of a Shorten call.
type Result struct {
	Mapping *Mapping
	Status  Status
}

// Service creates and resolves mappings.
//
// Deduplication is a read-then-write: two concurrent Shorten calls for the
// same long URL can both miss the lookup and create distinct mappings. Both
// mappings resolve to the same long URL.
type Service struct {
	repo     Repository
	generate CodeGenerator
	baseURL  string
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a mapping service. baseURL is the public prefix of every
// short URL, without a trailing slash.
func NewService(repo Repository, generate CodeGenerator, baseURL string, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		generate: generate,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		now:      time.Now,
		logger:   logger,
	}
}

// Shorten returns the existing mapping for longURL, or creates one.
func (s *Service) Shorten(ctx context.Context, longURL string) (*Result, error) {
	if err := ValidateURL(longURL); err != nil {
		return nil, &Error{Kind: KindValidation, Message: "invalid or no url provided", Input: longURL, Err: err}
	}

	existing, err := s.repo.FindByLongURL(ctx, longURL)
	if err == nil {
		s.logger.Debug("long url already shortened",
			zap.String("code", string(existing.Code)),
		)

		return &Result{Mapping: existing, Status: StatusExisting}, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, s.fail("lookup long url", longURL, err)
	}

	code := s.generate()
	mapping := &Mapping{
		LongURL:   longURL,
		Code:      code,
		ShortURL:  s.ShortURL(code),
		CreatedAt: s.now().UTC(),
	}

	if err = s.repo.Upsert(ctx, mapping); err != nil {
		return nil, s.fail("store mapping", longURL, err)
	}

	s.logger.Info("mapping created",
		zap.String("code", string(code)),
		zap.String("short_url", mapping.ShortURL),
	)

	return &Result{Mapping: mapping, Status: StatusCreated}, nil
}

// Resolve returns the long URL stored under code.
func (s *Service) Resolve(ctx context.Context, code Code) (string, error) {
	if code == "" {
		return "", &Error{Kind: KindNotFound, Message: "empty code", Err: ErrNotFound}
	}

	mapping, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", &Error{Kind: KindNotFound, Message: "unknown code", Input: string(code), Err: ErrNotFound}
		}

		return "", s.fail("get mapping", string(code), err)
	}

	return mapping.LongURL, nil
}

// ShortURL builds the public short URL for code.
func (s *Service) ShortURL(code Code) string {
	return s.baseURL + "/" + string(code)
}

func (s *Service) fail(op, input string, err error) *Error {
	e := wrap(op, err)
	e.Input = input

	return e
}
