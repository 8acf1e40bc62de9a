package memory

import (
	"context"
	"sync"

	"github.com/mycok/halreslib/resource"
)

var _ resource.Store = (*InMemoryStore)(nil)

// InMemoryStore keeps resources in insertion order and can be concurrently
// accessed by multiple clients.
type InMemoryStore struct {
	mu        sync.RWMutex
	resources []*resource.Resource
}

// NewInMemoryStore creates a new, empty in-memory resource store.
func NewInMemoryStore() *InMemoryStore {
	return new(InMemoryStore)
}

// Insert appends copies of resources to the store.
func (s *InMemoryStore) Insert(_ context.Context, resources []*resource.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copies keep stored data safe from changes made by the caller.
	for _, r := range resources {
		rCopy := new(resource.Resource)
		*rCopy = *r

		s.resources = append(s.resources, rCopy)
	}

	return nil
}

// ListURLs returns the URL of every stored resource in insertion order.
func (s *InMemoryStore) ListURLs(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.resources))
	for _, r := range s.resources {
		urls = append(urls, r.URL)
	}

	return urls, nil
}

// Resources returns copies of every stored resource in insertion order.
func (s *InMemoryStore) Resources() []*resource.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*resource.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		rCopy := new(resource.Resource)
		*rCopy = *r

		list = append(list, rCopy)
	}

	return list
}

// Close is a no-op; it lets the in-memory store stand in for stores that
// hold a connection.
func (s *InMemoryStore) Close() error {
	return nil
}
