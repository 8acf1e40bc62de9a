package resource

import "context"

// Store should be implemented by resource data stores.
type Store interface {
	// Insert persists resources as a single bulk write. Stores assign no
	// identifiers, perform no validation and never merge rows that share
	// an ID. An empty batch is a no-op.
	Insert(ctx context.Context, resources []*Resource) error

	// ListURLs returns the URL of every stored resource.
	ListURLs(ctx context.Context) ([]string, error)
}
