// Package observer provides a per-instance listener registry.
package observer

import "sync"

// Registry holds listeners for values of type T. Each store owns its own
// registry; there is no package-level state.
type Registry[T any] struct {
	mu        sync.Mutex
	next      uint64
	order     []uint64
	listeners map[uint64]func(T)
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (r *Registry[T]) Subscribe(fn func(T)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listeners == nil {
		r.listeners = make(map[uint64]func(T))
	}
	id := r.next
	r.next++
	r.listeners[id] = fn
	r.order = append(r.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

// Notify calls every current listener synchronously in subscription order.
// build is invoked once per listener so each receives its own copy.
func (r *Registry[T]) Notify(build func() T) {
	for _, fn := range r.snapshot() {
		fn(build())
	}
}

// Len reports the number of registered listeners.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func (r *Registry[T]) snapshot() []func(T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fns := make([]func(T), 0, len(r.order))
	for _, id := range r.order {
		fns = append(fns, r.listeners[id])
	}
	return fns
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
