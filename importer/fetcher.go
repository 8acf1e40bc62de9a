package importer

import (
	"context"
	"io"
	"net/http"

	"github.com/mycok/halreslib/pipeline"
)

var _ pipeline.Processor = (*urlFetcher)(nil)

// urlFetcher performs an HTTP GET for every payload and reads the complete
// response body. Failures are recorded on the payload rather than returned,
// so that one bad URL never stops the other fetches.
type urlFetcher struct {
	urlGetter URLGetter
}

func newURLFetcher(urlGetter URLGetter) *urlFetcher {
	return &urlFetcher{urlGetter: urlGetter}
}

func (p *urlFetcher) Process(
	ctx context.Context, payload pipeline.Payload,
) (pipeline.Payload, error) {

	fPayload, ok := payload.(*fetchPayload)
	if !ok {
		return nil, nil
	}

	// Requests are bound to the run context so that cancelling a run also
	// aborts the fetches in flight.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fPayload.URL, nil)
	if err != nil {
		fPayload.Err = err

		return fPayload, nil
	}

	resp, err := p.urlGetter.Do(req)
	if err != nil {
		fPayload.Err = err

		return fPayload, nil
	}

	fPayload.StatusCode = resp.StatusCode

	if resp.Body != nil {
		defer resp.Body.Close()

		if _, err = io.Copy(&fPayload.Body, resp.Body); err != nil {
			fPayload.BodyErr = err
		}
	}

	return fPayload, nil
}
