package importer

import (
	"context"
	"net/http"

	"github.com/mycok/halreslib/resource"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/mycok/halreslib/importer URLGetter,MiniStore

// URLGetter should be implemented by objects that perform HTTP requests.
// *http.Client satisfies it. Implementations must abort the request once
// the request context is cancelled.
type URLGetter interface {
	Do(req *http.Request) (*http.Response, error)
}

// MiniStore should be implemented by objects that can persist a finished
// batch of resources.
type MiniStore interface {
	// Insert persists resources as a single bulk write.
	Insert(ctx context.Context, resources []*resource.Resource) error
}
