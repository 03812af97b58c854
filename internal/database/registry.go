package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/koustreak/sqlgate/internal/errs"
)

// Registry maps an engine tag to its Adapter. It is resolved once per
// connection; nothing downstream branches on the engine again.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Engine]Adapter
}

// NewRegistry returns a Registry holding the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Engine]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter for a.Engine().
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Engine()] = a
}

// Get returns the adapter for engine, or an invalid-input error naming the
// engines that are available.
func (r *Registry) Get(engine Engine) (Adapter, error) {
	r.mu.RLock()
	a, ok := r.adapters[engine]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("unknown database engine %q (available: %v)", engine, r.Engines()))
	}
	return a, nil
}

// Engines lists the registered engines, sorted.
func (r *Registry) Engines() []Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Engine, 0, len(r.adapters))
	for e := range r.adapters {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WithSession opens a session through a, runs fn, and closes the session on
// every exit path, including when fn fails or panics.
func WithSession(ctx context.Context, a Adapter, cfg *Config, fn func(Session) error) (err error) {
	sess, err := a.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil && err == nil {
			err = errs.Wrap(errs.ErrKindConnectionFailed, "failed to close session", cerr)
		}
	}()
	return fn(sess)
}

// Reachable opens and immediately closes a session. It never returns an
// error: any failure (auth, network, missing file) is reported as false
// together with the cause for logging.
func Reachable(ctx context.Context, a Adapter, cfg *Config) (bool, error) {
	sess, err := a.Open(ctx, cfg)
	if err != nil {
		return false, err
	}
	_ = sess.Close(ctx)
	return true, nil
}
