package message

import (
	"errors"
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// Factory creates a new message instance holding default values.
type Factory func() Message

type registration struct {
	name    string
	factory Factory
}

// Registry maps message IDs and names to factories.
//
// It is safe for concurrent use; lookups happen on every decoded frame while
// registrations usually happen once at startup.
type Registry struct {
	byID   *xsync.MapOf[uint64, registration]
	byName *xsync.MapOf[string, uint64]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   xsync.NewMapOf[uint64, registration](),
		byName: xsync.NewMapOf[string, uint64](),
	}
}

// Register adds a message type. The ID and name are taken from an instance created by factory.
//
// It returns an error wrapping ErrDuplicateID or ErrDuplicateName if either is already registered.
func (r *Registry) Register(factory Factory) error {
	if factory == nil {
		return errors.New("register message: nil factory")
	}

	sample := factory()
	id, name := sample.ID(), sample.Name()

	if prev, loaded := r.byID.LoadOrStore(id, registration{name: name, factory: factory}); loaded {
		return fmt.Errorf("%w: %d already registered as %s", ErrDuplicateID, id, prev.name)
	}

	if prev, loaded := r.byName.LoadOrStore(name, id); loaded {
		r.byID.Delete(id)
		return fmt.Errorf("%w: %s already registered with id %d", ErrDuplicateName, name, prev)
	}

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(factories ...Factory) *Registry {
	for _, f := range factories {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}

	return r
}

// New creates a message for id.
func (r *Registry) New(id uint64) (Message, error) {
	reg, ok := r.byID.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	return reg.factory(), nil
}

// NewByName creates a message by its schema name.
func (r *Registry) NewByName(name string) (Message, error) {
	id, ok := r.byName.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}

	return r.New(id)
}

// NewOrRaw creates a message for id, or an empty Raw message if id is not registered.
func (r *Registry) NewOrRaw(id uint64) Message {
	if reg, ok := r.byID.Load(id); ok {
		return reg.factory()
	}

	return &Raw{id: id}
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id uint64) bool {
	_, ok := r.byID.Load(id)
	return ok
}

// IDs returns the registered IDs in ascending order.
func (r *Registry) IDs() []uint64 {
	ids := make([]uint64, 0, r.byID.Size())
	r.byID.Range(func(id uint64, _ registration) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)

	return ids
}

// Len returns the number of registered message types.
func (r *Registry) Len() int {
	return r.byID.Size()
}
