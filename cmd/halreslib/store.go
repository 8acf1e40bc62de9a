package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mycok/halreslib/resource"
	"github.com/mycok/halreslib/resource/store/cdb"
	"github.com/mycok/halreslib/resource/store/es"
	"github.com/mycok/halreslib/resource/store/memory"
	"github.com/mycok/halreslib/resource/store/sqlite"
)

// StoreAPI defines the resource store operations used by the CLI.
type StoreAPI interface {
	resource.Store

	// Close releases the resources held by the store.
	Close() error
}

var (
	_ StoreAPI = (*memory.InMemoryStore)(nil)
	_ StoreAPI = (*sqlite.SQLiteStore)(nil)
	_ StoreAPI = (*cdb.CockroachDBStore)(nil)
	_ StoreAPI = (*es.ElasticsearchStore)(nil)
)

func getStore(storeURI string, logger *logrus.Entry) (StoreAPI, error) {
	if storeURI == "" {
		return nil, fmt.Errorf("store URI must be specified with --store-uri")
	}

	u, err := url.Parse(storeURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store URI: %w", err)
	}

	switch u.Scheme {
	case "in-memory":
		logger.Info("using in-memory resource store")

		return memory.NewInMemoryStore(), nil
	case "sqlite":
		// Both sqlite://relative.sqlite and sqlite:///abs/path.sqlite are
		// accepted.
		path := u.Host + u.Path
		if path == "" {
			return nil, fmt.Errorf("sqlite store URI is missing a file path")
		}
		logger.WithField("path", path).Info("using sqlite resource store")

		return sqlite.NewSQLiteStore(path)
	case "postgresql":
		logger.Info("using CDB resource store")

		return cdb.NewCockroachDBStore(storeURI)
	case "es":
		nodes := strings.Split(u.Host, ",")
		for i := 0; i < len(nodes); i++ {
			nodes[i] = "http://" + nodes[i]
		}
		logger.Info("using ES resource store")

		return es.NewElasticsearchStore(nodes, true)
	default:
		return nil, fmt.Errorf("unsupported store URI scheme: %q", u.Scheme)
	}
}

// listURLs is a small helper shared by the urls command and its tests.
func listURLs(ctx context.Context, store resource.Store) ([]string, error) {
	urls, err := store.ListURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list stored urls: %w", err)
	}

	return urls, nil
}
