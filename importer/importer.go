/*
	importer package turns a list of timestamped URLs into resource records.
	An import run goes through the following steps:
		1. Parse every input line into a URL and a timestamp, skipping
		malformed lines.
		2. Build a blank resource for every parsed URL.
		3. Fetch every URL through a bounded pool of workers.
		4. Mark unreachable resources as dead and fill the title and
		description of reachable ones from the page content.
		5. Persist the whole batch with a single store insert.
*/

package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mycok/halreslib/resource"
)

// Importer executes import runs. Runs on the same Importer never overlap.
type Importer struct {
	config Config
	pool   *FetchPool

	mu sync.Mutex
}

// New creates and returns a fully configured importer.
func New(config Config) (*Importer, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("importer: config validation failed: %w", err)
	}

	return &Importer{
		config: config,
		pool:   NewFetchPool(config.URLGetter, config.NumOfFetchWorkers),
	}, nil
}

// Import runs the complete ingestion for lines and returns the number of
// persisted records. Per-URL failures never abort a run; only a cancelled
// context or a failed insert do, in which case nothing is reported as
// persisted.
func (imp *Importer) Import(ctx context.Context, lines []string) (int, error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	logger := imp.config.Logger.WithField("run_id", uuid.New().String())
	startedAt := imp.config.Clock.Now()

	resources := imp.buildResources(ParseLines(lines, imp.config.Clock, logger))
	if len(resources) == 0 {
		logger.Info("no valid input lines")

		return 0, nil
	}

	urls := make([]string, len(resources))
	for i, r := range resources {
		urls[i] = r.URL
	}

	results, err := imp.pool.Fetch(ctx, urls)
	if err != nil {
		return 0, fmt.Errorf("importer: %w", err)
	}

	for i, r := range resources {
		imp.enrich(r, results[i], logger)
	}

	if err = imp.config.Store.Insert(ctx, resources); err != nil {
		return 0, fmt.Errorf("importer: unable to persist resources: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"inserted_count": len(resources),
		"elapsed_time":   imp.config.Clock.Now().Sub(startedAt).String(),
	}).Info("completed import run")

	return len(resources), nil
}

func (imp *Importer) buildResources(entries []Entry) []*resource.Resource {
	resources := make([]*resource.Resource, len(entries))

	for i, entry := range entries {
		r := resource.FromURL(entry.URL, entry.Timestamp)
		r.CreaUser = imp.config.CreatorRole
		r.ModiUser = imp.config.CreatorRole
		resources[i] = r
	}

	return resources
}

// enrich applies a fetch outcome to its resource.
func (imp *Importer) enrich(r *resource.Resource, result FetchResult, logger *logrus.Entry) {
	switch {
	case result.Err != nil:
		r.MarkDead()
		logger.WithFields(logrus.Fields{
			"url": r.URL,
			"err": result.Err,
		}).Warn("fetch failure")

		return
	case result.BodyErr != nil:
		r.MarkDead()
		logger.WithFields(logrus.Fields{
			"url": r.URL,
			"err": result.BodyErr,
		}).Warn("unable to read response body")

		return
	case !result.IsSuccessStatus():
		r.MarkDead()
		logger.WithFields(logrus.Fields{
			"url":    r.URL,
			"status": result.StatusCode,
		}).Warn("unexpected response status")

		return
	}

	content := Extract(imp.config.Parser.Parse(result.Body))
	if content.HasTitle {
		r.Title = content.Title
	}

	if content.HasDescription {
		r.AutoDescr = content.Description
	}
}
