package store

import (
	"context"
	"errors"
	"sync"
)

// ErrDocumentNotFound is the memory backend's not-found condition.
var ErrDocumentNotFound = errors.New("document not found")

// ErrSessionClosed is returned by a memory session after Close.
var ErrSessionClosed = errors.New("session closed")

// MemoryStore is an in-process document store. Sessions dialled from the same
// MemoryStore share its data, like sessions to the same remote store would.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]Document // code -> document
	index map[string]string   // long url -> first code stored for it
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]Document),
		index: make(map[string]string),
	}
}

// MemoryBackend returns a Backend whose sessions read and write s.
func MemoryBackend(s *MemoryStore) Backend {
	return Backend{
		Name: "memory",
		Dial: func(_ context.Context) (Session, error) {
			return &memorySession{store: s}, nil
		},
		Classify: TableClassifier([]ErrorRule{
			{Err: ErrDocumentNotFound, Class: ClassNotFound},
			{Err: ErrSessionClosed, Class: ClassFatal},
		}),
	}
}

type memorySession struct {
	store  *MemoryStore
	mu     sync.RWMutex
	closed bool
}

func (m *memorySession) Lookup(ctx context.Context, longURL string) (Record, bool, error) {
	if err := m.check(ctx); err != nil {
		return Record{}, false, err
	}

	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	key, ok := m.store.index[longURL]
	if !ok {
		return Record{}, false, nil
	}

	return Record{Key: key, Document: m.store.docs[key]}, true, nil
}

func (m *memorySession) Get(ctx context.Context, key string) (Document, error) {
	if err := m.check(ctx); err != nil {
		return Document{}, err
	}

	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	doc, ok := m.store.docs[key]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}

	return doc, nil
}

func (m *memorySession) Upsert(ctx context.Context, key string, doc Document) error {
	if err := m.check(ctx); err != nil {
		return err
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if prev, ok := m.store.docs[key]; ok && prev.LongURL != doc.LongURL && m.store.index[prev.LongURL] == key {
		delete(m.store.index, prev.LongURL)
	}

	m.store.docs[key] = doc

	if _, ok := m.store.index[doc.LongURL]; !ok {
		m.store.index[doc.LongURL] = key
	}

	return nil
}

func (m *memorySession) Ping(ctx context.Context) error {
	return m.check(ctx)
}

func (m *memorySession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

func (m *memorySession) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrSessionClosed
	}

	return nil
}
