package shortener_test

import (
	"context"
	"errors"
	"sync"

	"github.com/zx8086/url-shortener/internal/shortener"
)

var errMock = errors.New("mock error")

// memoryRepository is a test double for shortener.Repository that can be
// configured to fail each operation.
type memoryRepository struct {
	mu        sync.Mutex
	byCode    map[shortener.Code]shortener.Mapping
	findErr   error
	getErr    error
	upsertErr error
	upserts   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{byCode: make(map[shortener.Code]shortener.Mapping)}
}

func (m *memoryRepository) FindByLongURL(_ context.Context, longURL string) (*shortener.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}

	for _, mapping := range m.byCode {
		if mapping.LongURL == longURL {
			found := mapping

			return &found, nil
		}
	}

	return nil, shortener.ErrNotFound
}

func (m *memoryRepository) GetByCode(_ context.Context, code shortener.Code) (*shortener.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	mapping, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &mapping, nil
}

func (m *memoryRepository) Upsert(_ context.Context, mapping *shortener.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertErr != nil {
		return m.upsertErr
	}

	m.upserts++
	m.byCode[mapping.Code] = *mapping

	return nil
}
