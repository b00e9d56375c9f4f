package handler

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/relay/core/response"
)

// entry is a single store registration.
// A negative slot marks a shared value; otherwise factory fills that slot per context.
type entry struct {
	value   any
	factory Factory
	slot    int
}

// Store holds shared values and bound factories and produces per-request contexts.
// Registration must complete before the first context is created;
// Create freezes the store and any later Set or Bind panics with ErrFrozen.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	slots   int
	frozen  atomic.Bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Set registers a shared value, overwriting any previous registration for name.
func (s *Store) Set(name string, value any) *Store {
	s.register(name, func(e *entry) {
		e.value = value
		e.factory = nil
		e.slot = -1
	})
	return s
}

// Bind registers a per-context lazy value.
// The factory runs on first access of name, once per context.
func (s *Store) Bind(name string, fn Factory) *Store {
	if fn == nil {
		panic(fmt.Errorf("%w: '%s'", ErrNotCallable, name))
	}
	s.register(name, func(e *entry) {
		e.value = nil
		e.factory = fn
		if e.slot < 0 {
			e.slot = s.slots
			s.slots++
		}
	})
	return s
}

func (s *Store) register(name string, apply func(e *entry)) {
	if name == "" {
		panic(ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen.Load() {
		panic(fmt.Errorf("%w: cannot register '%s'", ErrFrozen, name))
	}

	e, ok := s.entries[name]
	if !ok {
		e = &entry{slot: -1}
		s.entries[name] = e
	}
	apply(e)
}

// Get returns a shared value registered with Set.
// Bound names report false: they only have a value relative to a context.
func (s *Store) Get(name string) (any, bool) {
	e, ok := s.lookup(name)
	if !ok || e.factory != nil {
		return nil, false
	}
	return e.value, true
}

// Has reports whether name is registered, shared or bound.
func (s *Store) Has(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

// Freeze ends the setup phase. It is safe to call more than once.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen.Store(true)
	s.mu.Unlock()
}

// Frozen reports whether the setup phase has ended.
func (s *Store) Frozen() bool {
	return s.frozen.Load()
}

// Create returns a fresh context for one request, freezing the store on first use.
func (s *Store) Create(w http.ResponseWriter, r *http.Request) *Context {
	if !s.frozen.Load() {
		s.Freeze()
	}
	res := response.New(w)
	if r != nil {
		res.WithContext(r.Context())
	}
	return &Context{
		request:  r,
		response: res,
		params:   map[string]string{},
		store:    s,
		slots:    make([]slot, s.slots),
	}
}

func (s *Store) lookup(name string) (*entry, bool) {
	// Entries are immutable once frozen, so reads after setup skip the lock.
	if s.frozen.Load() {
		e, ok := s.entries[name]
		return e, ok
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	return e, ok
}
