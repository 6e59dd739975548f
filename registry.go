/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
)

// Registry holds named storage instances. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Storage
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]*Storage),
	}
}

// Register adds s under s.Name(). A name can only be registered once.
func (r *Registry) Register(s *Storage) error {
	if s == nil {
		return errors.NewValidationError("storage", "is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[s.Name()]; exists {
		return errors.NewAlreadyExistsError("storage instance", s.Name())
	}
	r.instances[s.Name()] = s
	return nil
}

// Add creates a Storage from cfg and registers it.
func (r *Registry) Add(cfg config.Auth, connector datastore.Connector, opts ...Option) (*Storage, error) {
	s, err := New(cfg, connector, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the instance registered under name.
func (r *Registry) Get(name string) (*Storage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.instances[name]
	if !exists {
		return nil, errors.NewNotFoundError("storage instance", name)
	}
	return s, nil
}

// MustGet is Get for wiring code; it panics when name is not registered.
func (r *Registry) MustGet(name string) *Storage {
	s, err := r.Get(name)
	if err != nil {
		panic(fmt.Sprintf("tablestore: %v", err))
	}
	return s
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
