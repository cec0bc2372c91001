// Package controller implements the page lifecycle shared by every console
// page: idle → loading → ready|error, re-entering loading on refresh or
// after a mutation.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
)

// State is the lifecycle position of a Resource.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "idle"
}

var (
	// ErrSuperseded is returned by a Load whose result was discarded because
	// a newer Load was issued before it settled.
	ErrSuperseded = &apperr.Error{Kind: apperr.KindCanceled, Op: "controller.load", Message: "superseded by a newer request"}
	// ErrClosed is returned by every call made on, or settling after, a
	// closed Resource.
	ErrClosed = &apperr.Error{Kind: apperr.KindCanceled, Op: "controller", Message: "page closed"}
)

// Snapshot is a point-in-time copy of a Resource. Data is only meaningful
// once a load has succeeded; it is kept through later errors.
type Snapshot[T any] struct {
	State       State
	Data        T
	Err         error
	MutationErr error
	Generation  uint64
	LoadedAt    time.Time
}

// Loading reports whether a load is in flight.
func (s Snapshot[T]) Loading() bool { return s.State == StateLoading }

// Loaded reports whether Data holds a successful load result.
func (s Snapshot[T]) Loaded() bool { return !s.LoadedAt.IsZero() }

// LoadFunc fetches the page data.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Precondition checks an upstream requirement before any network call. op
// is the resource name, for error attribution.
type Precondition func(op string) error

// Require fails with a missing-context error when value returns "".
func Require(what string, value func() string) Precondition {
	return func(op string) error {
		if value() == "" {
			return apperr.MissingContext(op, what)
		}
		return nil
	}
}

// Resource holds one page dataset. It is safe for concurrent use. Each Load
// takes a new generation and cancels the previous one; only the latest
// generation may write state.
type Resource[T any] struct {
	name    string
	load    LoadFunc[T]
	require []Precondition
	logger  zerolog.Logger
	now     func() time.Time

	mu        sync.Mutex
	snap      Snapshot[T]
	version   uint64 // bumped on every write to snap.Data
	cancel    context.CancelFunc
	closed    bool
	observers map[int]func(Snapshot[T])
	nextObs   int
}

// New returns an idle Resource named name (used as the error op and in
// logs).
func New[T any](name string, logger zerolog.Logger, load LoadFunc[T], require ...Precondition) *Resource[T] {
	return &Resource[T]{
		name:      name,
		load:      load,
		require:   require,
		logger:    logger.With().Str("page", name).Logger(),
		now:       time.Now,
		observers: make(map[int]func(Snapshot[T])),
	}
}

func (r *Resource[T]) Name() string { return r.name }

// Snapshot returns the current state.
func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// OnChange registers fn to receive every state transition. Observers are
// called outside the lock, possibly from several goroutines; Generation
// orders the snapshots. The returned func unregisters fn.
func (r *Resource[T]) OnChange(fn func(Snapshot[T])) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextObs
	r.nextObs++
	r.observers[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

// publishLocked copies the snapshot and the observer list for notify.
func (r *Resource[T]) publishLocked() (Snapshot[T], []func(Snapshot[T])) {
	obs := make([]func(Snapshot[T]), 0, len(r.observers))
	for _, fn := range r.observers {
		obs = append(obs, fn)
	}
	return r.snap, obs
}

func notify[T any](snap Snapshot[T], obs []func(Snapshot[T])) {
	for _, fn := range obs {
		fn(snap)
	}
}

// Load runs the preconditions and then the load function. A failing
// precondition moves the resource to error immediately, without entering
// loading. Load blocks until the result settles and returns the load error,
// ErrSuperseded if a newer Load won, or ErrClosed after Close.
func (r *Resource[T]) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.snap.Generation++
	gen := r.snap.Generation
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	for _, pre := range r.require {
		if err := pre(r.name); err != nil {
			r.snap.State = StateError
			r.snap.Err = err
			snap, obs := r.publishLocked()
			r.mu.Unlock()
			r.logger.Warn().Err(err).Msg("page precondition failed")
			notify(snap, obs)
			return err
		}
	}
	lctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.snap.State = StateLoading
	r.snap.Err = nil
	snap, obs := r.publishLocked()
	r.mu.Unlock()
	notify(snap, obs)

	start := r.now()
	data, err := r.load(lctx)
	cancel()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if gen != r.snap.Generation {
		r.mu.Unlock()
		r.logger.Debug().Uint64("generation", gen).Msg("discarding stale load")
		return ErrSuperseded
	}
	r.cancel = nil
	if err != nil {
		r.snap.State = StateError
		r.snap.Err = err
	} else {
		r.snap.State = StateReady
		r.snap.Data = data
		r.snap.Err = nil
		r.snap.LoadedAt = r.now()
		r.version++
	}
	snap, obs = r.publishLocked()
	r.mu.Unlock()

	ev := r.logger.Debug()
	if err != nil {
		ev = r.logger.Warn().Err(err).Str("kind", apperr.KindOf(err).String())
	}
	ev.Uint64("generation", gen).Dur("latency", r.now().Sub(start)).Msg("page load settled")
	notify(snap, obs)
	return err
}

// Mutate runs fn and, only after it returned successfully, reloads. A failed
// mutation keeps the loaded data and state and is recorded as MutationErr.
// The reload outcome lands in the snapshot; Mutate returns only the
// mutation's own error.
func (r *Resource[T]) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.isClosed() {
		return ErrClosed
	}
	if err := fn(ctx); err != nil {
		r.recordMutation(err)
		return err
	}
	r.recordMutation(nil)
	r.reload(ctx)
	return nil
}

// MutateOptimistic applies apply to the held data at once, then runs fn. On
// failure the previous data is restored unless a load replaced it in the
// meantime. apply must return a new value rather than modify its argument.
func (r *Resource[T]) MutateOptimistic(ctx context.Context, apply func(T) T, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	prev := r.snap.Data
	r.snap.Data = apply(prev)
	r.snap.MutationErr = nil
	r.version++
	applied := r.version
	snap, obs := r.publishLocked()
	r.mu.Unlock()
	notify(snap, obs)

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return err
		}
		if r.version == applied {
			r.snap.Data = prev
			r.version++
		}
		r.snap.MutationErr = err
		snap, obs := r.publishLocked()
		r.mu.Unlock()
		r.logger.Warn().Err(err).Msg("optimistic update rolled back")
		notify(snap, obs)
		return err
	}
	r.reload(ctx)
	return nil
}

func (r *Resource[T]) reload(ctx context.Context) {
	if err := r.Load(ctx); err != nil && err != ErrSuperseded && err != ErrClosed {
		r.logger.Debug().Err(err).Msg("reload after mutation failed")
	}
}

func (r *Resource[T]) recordMutation(err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.snap.MutationErr = err
	snap, obs := r.publishLocked()
	r.mu.Unlock()
	if err != nil {
		r.logger.Warn().Err(err).Str("kind", apperr.KindOf(err).String()).Msg("page mutation failed")
	}
	notify(snap, obs)
}

// ClearMutationError dismisses the inline mutation error.
func (r *Resource[T]) ClearMutationError() {
	r.recordMutation(nil)
}

func (r *Resource[T]) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close cancels any in-flight load and detaches observers. Every result
// settling afterwards is dropped.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.observers = map[int]func(Snapshot[T]){}
}
