// internal/models/property.go
package models

type subscriber[T comparable] struct {
	id int
	fn func(old, new T)
}

// Property is an observable value. Subscribers are notified synchronously, in
// subscription order, on Set whenever the value actually changes.
type Property[T comparable] struct {
	value  T
	nextID int
	subs   []subscriber[T]
}

// NewProperty returns a Property holding the given initial value.
func NewProperty[T comparable](initial T) *Property[T] {
	return &Property[T]{value: initial}
}

// Value returns the current value.
func (p *Property[T]) Value() T {
	return p.value
}

// Set stores v and notifies subscribers if it differs from the current value.
func (p *Property[T]) Set(v T) {
	if p.value == v {
		return
	}
	old := p.value
	p.value = v
	for _, s := range p.subs {
		s.fn(old, v)
	}
}

// Subscribe registers fn for change notifications and returns a function that removes it.
func (p *Property[T]) Subscribe(fn func(old, new T)) (unsubscribe func()) {
	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		for i, s := range p.subs {
			if s.id == id {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (p *Property[T]) Subscribers() int {
	return len(p.subs)
}
