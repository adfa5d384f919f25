package notify

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/littlstar/lstar/internal/domain"
)

// Registry is an ordered, duplicate-free set of observers.
// It holds references only; owners unregister observers they no longer want called.
type Registry struct {
	mu        sync.Mutex
	observers []domain.Observer
}

// Register adds o. Registering the same observer twice has no effect.
// Observers whose dynamic type is not comparable are rejected.
func (r *Registry) Register(o domain.Observer) error {
	if o == nil {
		return nil
	}
	if !isComparable(o) {
		return domain.ValidationError("register observer", fmt.Errorf("%w: %T", domain.ErrObserverNotComparable, o))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.observers {
		if existing == o {
			return nil
		}
	}
	r.observers = append(r.observers, o)
	return nil
}

// Unregister removes o if present
func (r *Registry) Unregister(o domain.Observer) {
	if o == nil || !isComparable(o) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.observers {
		if existing == o {
			r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
			return
		}
	}
}

// Snapshot returns the observers in registration order.
// Later changes to the registry do not affect the returned slice.
func (r *Registry) Snapshot() []domain.Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Observer, len(r.observers))
	copy(out, r.observers)
	return out
}

// Len returns the number of registered observers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

func isComparable(o domain.Observer) bool {
	return reflect.TypeOf(o).Comparable()
}
