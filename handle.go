package xtoon

import "sync"

// Handle is a parameter set owned by the host application and shared with
// an Engine by pointer. The host may Set or Update it at any time, from any
// goroutine; the engine picks the new values up on its next Refresh.
type Handle[T Params] struct {
	mu sync.Mutex
	v  T
}

func NewHandle[T Params](v T) *Handle[T] {
	return &Handle[T]{v: v}
}

func (h *Handle[T]) Get() T {
	h.mu.Lock()
	v := h.v
	h.mu.Unlock()
	return v
}

func (h *Handle[T]) Set(v T) {
	h.mu.Lock()
	h.v = v
	h.mu.Unlock()
}

// Update applies fn to the values under the handle lock.
func (h *Handle[T]) Update(fn func(*T)) {
	h.mu.Lock()
	fn(&h.v)
	h.mu.Unlock()
}

func (h *Handle[T]) Mode() Mode {
	return h.Get().Mode()
}

// binding is a Handle seen by the engine.
type binding interface {
	// stage validates the current values and copies them into s.
	stage(s *snapshot) error
}

func (h *Handle[T]) stage(s *snapshot) error {
	v := h.Get()
	if err := v.Validate(); err != nil {
		return err
	}
	*s = snapshot{}
	v.store(s)
	return nil
}
