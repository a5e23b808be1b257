package resources

import (
	"context"
	"errors"
	"sync"
)

var errNoFetch = errors.New("loader has no fetch function")

// State is the lifecycle of one loader fetch.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a loader's state at one instant.
type Snapshot[T any] struct {
	State State
	Items []T
	Err   error
	Key   Key
}

// Settled reports whether the snapshot is not waiting on a fetch.
func (s Snapshot[T]) Settled() bool {
	return s.State != StateLoading
}

// FetchFunc reads the items for key. It must honor ctx cancellation.
type FetchFunc[T any] func(ctx context.Context, key Key) ([]T, error)

// Loader binds one collection read to the lifetime of its owner. Load starts
// a fetch and restarts it only when the key changes; Close cancels the
// in-flight fetch and freezes the loader so no later completion is applied.
type Loader[T any] struct {
	fetch FetchFunc[T]

	mu         sync.Mutex
	state      State
	items      []T
	err        error
	key        Key
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
	closed     bool
}

// NewLoader returns an idle loader.
func NewLoader[T any](fetch FetchFunc[T]) *Loader[T] {
	settled := make(chan struct{})
	close(settled)
	return &Loader[T]{fetch: fetch, settled: settled}
}

// Load fetches key. A call with the key already loaded or loading is a no-op.
// The fetch context derives from ctx, so cancelling ctx also cancels it.
func (l *Loader[T]) Load(ctx context.Context, key Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if l.state != StateIdle && l.key == key {
		return
	}
	l.startLocked(ctx, key)
}

// Reload fetches the current key again, for example after a write.
func (l *Loader[T]) Reload(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.state == StateIdle {
		return
	}
	l.startLocked(ctx, l.key)
}

func (l *Loader[T]) startLocked(ctx context.Context, key Key) {
	if ctx == nil {
		ctx = context.Background()
	}
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	settled := make(chan struct{})

	l.generation++
	l.state = StateLoading
	l.items = nil
	l.err = nil
	l.key = key
	l.cancel = cancel
	l.settled = settled

	go l.run(fetchCtx, l.generation, key, settled)
}

func (l *Loader[T]) run(ctx context.Context, generation uint64, key Key, settled chan struct{}) {
	defer close(settled)

	var (
		items []T
		err   error
	)
	if l.fetch == nil {
		err = errNoFetch
	} else {
		items, err = l.fetch(ctx, key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || generation != l.generation {
		return
	}
	l.cancel()
	l.cancel = nil
	if err != nil {
		l.state = StateError
		l.err = err
		return
	}
	l.state = StateSuccess
	l.items = items
}

// Snapshot returns the current state.
func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot[T]{
		State: l.state,
		Items: append([]T(nil), l.items...),
		Err:   l.err,
		Key:   l.key,
	}
}

// Wait blocks until the current fetch settles, the loader closes, or ctx is
// done. It returns the snapshot at that point and ctx.Err() on timeout.
func (l *Loader[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		l.mu.Lock()
		if l.closed || l.state != StateLoading {
			l.mu.Unlock()
			return l.Snapshot(), nil
		}
		settled := l.settled
		l.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return l.Snapshot(), ctx.Err()
		}
	}
}

// Close cancels any in-flight fetch. The loader keeps its last state and
// ignores later Load calls and completions.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
