package objmap

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry maps tag strings to Descriptors. Registration is expected to
// happen during an initialization phase; concurrent Resolve calls against
// a registry that is no longer being mutated are safe under the read lock.
type Registry struct {
	mu      sync.RWMutex
	byTag   map[string]*Descriptor
	byType  map[reflect.Type]*Descriptor
	lenient bool
}

// RegistryOption configures a Registry at construction.
type RegistryOption func(*Registry)

// LenientRegistration makes re-registration of a tag replace the previous
// descriptor instead of failing with ErrDuplicateTag.
func LenientRegistration() RegistryOption {
	return func(r *Registry) { r.lenient = true }
}

// NewRegistry creates an empty Registry. Registration is strict unless
// LenientRegistration is given.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byTag:  make(map[string]*Descriptor),
		byType: make(map[reflect.Type]*Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register describes sample's type by reflection and registers it under
// tag.
func (r *Registry) Register(tag string, sample any) error {
	d, err := DescribeType(tag, sample)
	if err != nil {
		return err
	}
	return r.RegisterDescriptor(d)
}

// RegisterNamed registers sample's type under a tag derived from the Go
// type name. This is the naming-convention layer over Register: a type
// pkg.Person gets the tag "Person".
func (r *Registry) RegisterNamed(sample any) error {
	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return fmt.Errorf("cannot derive tag: type %v has no name", t)
	}
	return r.Register(t.Name(), sample)
}

// RegisterDescriptor registers a prebuilt descriptor under its Tag.
func (r *Registry) RegisterDescriptor(d *Descriptor) error {
	if d.Tag == "" {
		return fmt.Errorf("descriptor for %s has no tag", d.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byTag[d.Tag]; exists && !r.lenient {
		return fmt.Errorf("%w: %q", ErrDuplicateTag, d.Tag)
	}
	r.byTag[d.Tag] = d
	r.byType[d.Type] = d
	return nil
}

// Resolve returns the descriptor registered under tag.
func (r *Registry) Resolve(tag string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byTag[tag]
	return d, ok
}

// DescriptorOf returns the descriptor registered for a concrete type,
// used on the encode side to recover an object's tag.
func (r *Registry) DescriptorOf(t reflect.Type) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[t]
	return d, ok
}

// Tags returns all registered tags (order unspecified).
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.byTag))
	for tag := range r.byTag {
		tags = append(tags, tag)
	}
	return tags
}

var (
	defaultRegistryMu sync.RWMutex
	defaultRegistry   = NewRegistry()
)

// SetDefaultRegistry sets the registry used when nil is passed to
// NewCodec and by the package-level Decode and Encode. Process-wide
// defaults are composed explicitly through this call; nothing registers
// into the default registry implicitly.
func SetDefaultRegistry(r *Registry) {
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()
	defaultRegistry = r
}

// DefaultRegistry returns the current default registry.
func DefaultRegistry() *Registry {
	defaultRegistryMu.RLock()
	defer defaultRegistryMu.RUnlock()
	return defaultRegistry
}
