package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zx8086/url-shortener/internal/store"
)

var (
	errTransient = errors.New("temporarily unavailable")
	errFatal     = errors.New("authentication failed")
)

var testPolicy = store.RetryPolicy{
	Attempts:    3,
	Backoff:     time.Millisecond,
	DialTimeout: time.Second,
}

var classifyTest = store.TableClassifier([]store.ErrorRule{
	{Err: errTransient, Class: store.ClassTransient},
	{Err: errFatal, Class: store.ClassFatal},
	{Err: store.ErrDocumentNotFound, Class: store.ClassNotFound},
	{Err: store.ErrSessionClosed, Class: store.ClassFatal},
})

// scriptedBackend dials sessions on a shared MemoryStore. The n-th dial fails
// with errs[n-1] when that entry is non-nil; later dials succeed.
type scriptedBackend struct {
	store *store.MemoryStore
	errs  []error
	gate  chan struct{}
	calls atomic.Int32

	mu       sync.Mutex
	opErr    error
	blockOps bool
}

func newScriptedBackend(errs ...error) *scriptedBackend {
	return &scriptedBackend{store: store.NewMemoryStore(), errs: errs}
}

func (b *scriptedBackend) backend() store.Backend {
	return store.Backend{Name: "scripted", Dial: b.dial, Classify: classifyTest}
}

func (b *scriptedBackend) dial(ctx context.Context) (store.Session, error) {
	n := int(b.calls.Add(1))

	if b.gate != nil {
		<-b.gate
	}

	if n <= len(b.errs) && b.errs[n-1] != nil {
		return nil, b.errs[n-1]
	}

	inner, err := store.MemoryBackend(b.store).Dial(ctx)
	if err != nil {
		return nil, err
	}

	return &faultySession{Session: inner, backend: b}, nil
}

// failOps makes every following session operation return err.
func (b *scriptedBackend) failOps(err error) {
	b.mu.Lock()
	b.opErr = err
	b.mu.Unlock()
}

// hangOps makes every following session operation wait for its context.
func (b *scriptedBackend) hangOps() {
	b.mu.Lock()
	b.blockOps = true
	b.mu.Unlock()
}

func (b *scriptedBackend) dials() int {
	return int(b.calls.Load())
}

type faultySession struct {
	store.Session
	backend *scriptedBackend
}

func (f *faultySession) fault(ctx context.Context) error {
	f.backend.mu.Lock()
	err, block := f.backend.opErr, f.backend.blockOps
	f.backend.mu.Unlock()

	if block {
		<-ctx.Done()

		return ctx.Err()
	}

	return err
}

func (f *faultySession) Lookup(ctx context.Context, longURL string) (store.Record, bool, error) {
	if err := f.fault(ctx); err != nil {
		return store.Record{}, false, err
	}

	return f.Session.Lookup(ctx, longURL)
}

func (f *faultySession) Get(ctx context.Context, key string) (store.Document, error) {
	if err := f.fault(ctx); err != nil {
		return store.Document{}, err
	}

	return f.Session.Get(ctx, key)
}

func (f *faultySession) Upsert(ctx context.Context, key string, doc store.Document) error {
	if err := f.fault(ctx); err != nil {
		return err
	}

	return f.Session.Upsert(ctx, key, doc)
}

func (f *faultySession) Ping(ctx context.Context) error {
	if err := f.fault(ctx); err != nil {
		return err
	}

	return f.Session.Ping(ctx)
}
