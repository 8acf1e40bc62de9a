package importer

import (
	"context"
	"fmt"

	"github.com/mycok/halreslib/pipeline"
)

// DefaultFetchWorkers is the default cap on in-flight requests.
const DefaultFetchWorkers = 16

// FetchResult is the outcome of fetching a single URL.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte

	// Err is set when no response was received at all.
	Err error

	// BodyErr is set when a response was received but its body could not
	// be read.
	BodyErr error
}

// IsSuccessStatus reports whether the response status code is 2xx.
func (r FetchResult) IsSuccessStatus() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// FetchPool fetches URLs with a bounded number of concurrent requests.
type FetchPool struct {
	p *pipeline.Pipeline
}

// NewFetchPool returns a pool that keeps at most numOfWorkers requests in
// flight. Further URLs wait for a free worker.
func NewFetchPool(urlGetter URLGetter, numOfWorkers int) *FetchPool {
	return &FetchPool{
		p: pipeline.New(
			pipeline.NewFixedWorkerPool(newURLFetcher(urlGetter), numOfWorkers),
		),
	}
}

// Fetch performs a GET for every URL and blocks until all of them
// completed. The returned slice has one result per URL, in the order of
// urls, even though the requests may complete in any order. An error is
// only returned when the context is cancelled before every URL was fetched.
func (f *FetchPool) Fetch(ctx context.Context, urls []string) ([]FetchResult, error) {
	sink := newResultSink(len(urls))

	if err := f.p.Execute(ctx, &urlSource{urls: urls}, sink); err != nil {
		return nil, fmt.Errorf("fetch pool: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch pool: %w", err)
	}

	if sink.count != len(urls) {
		return nil, fmt.Errorf("fetch pool: fetched %d of %d urls", sink.count, len(urls))
	}

	return sink.results, nil
}
