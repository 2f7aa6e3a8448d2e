// Package registry is a concurrent name -> value store that remembers the order
// in which names were first registered.
package registry

import (
	"slices"
	"sync"

	"github.com/alphadose/haxmap"
)

type Registry[T any] interface {
	// Get returns the value registered under name.
	Get(name string) (T, bool)
	// Add registers value under name unless the name is taken. It reports
	// whether the value was stored.
	Add(name string, value T) bool
	// GetOrAdd returns the existing value for name, or computes, stores and
	// returns a new one. The boolean is true when the value already existed.
	GetOrAdd(name string, valueFn func() T) (T, bool)
	Del(name string)
	// Names lists the registered names in registration order.
	Names() []string
	Len() int
}

type registry[T any] struct {
	values *haxmap.Map[string, T]

	mu    sync.Mutex
	order []string
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) Add(name string, value T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, loaded := r.values.GetOrSet(name, value); loaded {
		return false
	}
	r.order = append(r.order, name)
	return true
}

func (r *registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	if v, ok := r.values.Get(name); ok {
		return v, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, loaded := r.values.GetOrCompute(name, valueFn)
	if !loaded {
		r.order = append(r.order, name)
	}
	return v, loaded
}

func (r *registry[T]) Del(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values.Del(name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
}

func (r *registry[T]) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

func (r *registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
