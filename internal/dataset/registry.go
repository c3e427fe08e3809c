package dataset

import (
	"github.com/rotisserie/eris"
)

// Registry maps dataset names to their implementations.
type Registry struct {
	datasets map[string]Dataset
	order    []string // insertion order for deterministic iteration
}

// NewRegistry creates a registry populated with the full catalogue.
func NewRegistry() *Registry {
	r := &Registry{datasets: make(map[string]Dataset)}
	for _, d := range Catalog() {
		r.Register(d)
	}
	return r
}

// Register adds a dataset to the registry, replacing any with the same name.
func (r *Registry) Register(d Dataset) {
	name := d.Name()
	if _, exists := r.datasets[name]; !exists {
		r.order = append(r.order, name)
	}
	r.datasets[name] = d
}

// Get returns a dataset by name.
func (r *Registry) Get(name string) (Dataset, error) {
	d, ok := r.datasets[name]
	if !ok {
		return nil, eris.Errorf("dataset: unknown dataset %q", name)
	}
	return d, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.datasets[name]
	return ok
}

// Select returns the named datasets in the order given, or all datasets in
// registration order when names is empty.
func (r *Registry) Select(names []string) ([]Dataset, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	result := make([]Dataset, 0, len(names))
	for _, name := range names {
		d, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// All returns all datasets in registration order.
func (r *Registry) All() []Dataset {
	result := make([]Dataset, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.datasets[name])
	}
	return result
}

// AllNames returns all registered dataset names in registration order.
func (r *Registry) AllNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
