package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ncobase/searchsync/data/store"
	"github.com/ncobase/searchsync/search"
)

// Registry knows how to load the records of every searchable model.
type Registry struct {
	mu     sync.RWMutex
	models map[string]registration
}

type registration struct {
	finder search.Finder
	proto  search.Searchable
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]registration)}
}

// NewRegistryFromRepositories registers every repository under its model
// name.
func NewRegistryFromRepositories(repos map[string]store.Repository) *Registry {
	r := NewRegistry()
	for _, repo := range repos {
		r.RegisterRepository(repo)
	}
	return r
}

// Register adds a model. proto is a representative record used for
// settings and hydration.
func (r *Registry) Register(name string, finder search.Finder, proto search.Searchable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[name] = registration{finder: finder, proto: proto}
}

// RegisterRepository adds a store repository.
func (r *Registry) RegisterRepository(repo store.Repository) {
	spec := repo.Spec()
	r.Register(spec.Name, repo, spec.NewRecord(nil))
}

func (r *Registry) get(name string) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.models[name]
	return reg, ok
}

// Finder returns the finder of a model.
func (r *Registry) Finder(name string) (search.Finder, bool) {
	reg, ok := r.get(name)
	return reg.finder, ok
}

// Prototype returns the representative record of a model.
func (r *Registry) Prototype(name string) (search.Searchable, bool) {
	reg, ok := r.get(name)
	return reg.proto, ok && reg.proto != nil
}

// Chunker returns the chunked iterator of a model, when its finder has one.
func (r *Registry) Chunker(name string) (store.Chunker, bool) {
	reg, ok := r.get(name)
	if !ok {
		return nil, false
	}
	c, ok := reg.finder.(store.Chunker)
	return c, ok
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for n := range r.models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the finder of a model or an error naming the known ones.
func (r *Registry) Lookup(name string) (search.Finder, error) {
	if f, ok := r.Finder(name); ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: unknown model %q (known: %v)", search.ErrInvalidArgument, name, r.Names())
}
