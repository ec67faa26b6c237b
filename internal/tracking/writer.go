package tracking

import (
	"context"
	"errors"
	"sync"
)

// ErrWriterClosed is returned by Apply after Close.
var ErrWriterClosed = errors.New("tracking writer is closed")

// Mutation changes the store. It runs on the writer goroutine.
type Mutation func(Store) error

type request struct {
	fn     Mutation
	result chan error
}

// Writer is the single serialization point for store mutations. Workers
// may read the store directly but submit every change through Apply.
type Writer struct {
	store Store
	ops   chan request
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewWriter starts the writer goroutine. Call Close to stop it.
func NewWriter(store Store) *Writer {
	w := &Writer{
		store: store,
		ops:   make(chan request),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Writer) loop() {
	defer close(w.done)
	for {
		select {
		case req := <-w.ops:
			req.result <- req.fn(w.store)
		case <-w.quit:
			return
		}
	}
}

// Apply queues fn and waits for its result. Once a mutation has been
// accepted it runs to completion even if ctx is cancelled meanwhile.
func (w *Writer) Apply(ctx context.Context, fn Mutation) error {
	req := request{fn: fn, result: make(chan error, 1)}
	select {
	case w.ops <- req:
	case <-w.quit:
		return ErrWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.result
}

// UpsertPackage queues a package upsert.
func (w *Writer) UpsertPackage(ctx context.Context, p TrackedPackage) error {
	return w.Apply(ctx, func(s Store) error { return s.UpsertPackage(p) })
}

// UpsertTheme queues a theme upsert.
func (w *Writer) UpsertTheme(ctx context.Context, t TrackedTheme) error {
	return w.Apply(ctx, func(s Store) error { return s.UpsertTheme(t) })
}

// Close stops the writer after the mutation in progress, if any.
func (w *Writer) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}
