package importer

import (
	"context"

	"github.com/mycok/halreslib/pipeline"
)

var _ pipeline.Sink = (*resultSink)(nil)

// resultSink stores every fetch outcome at the index of its URL. The
// pipeline drives a sink from a single goroutine.
type resultSink struct {
	results []FetchResult
	count   int
}

func newResultSink(size int) *resultSink {
	return &resultSink{results: make([]FetchResult, size)}
}

func (s *resultSink) Consume(_ context.Context, p pipeline.Payload) error {
	payload, ok := p.(*fetchPayload)
	if !ok {
		return nil
	}

	// The payload buffer is recycled once Consume returns.
	var body []byte
	if payload.Body.Len() > 0 {
		body = append([]byte(nil), payload.Body.Bytes()...)
	}

	s.results[payload.Index] = FetchResult{
		URL:        payload.URL,
		StatusCode: payload.StatusCode,
		Body:       body,
		Err:        payload.Err,
		BodyErr:    payload.BodyErr,
	}
	s.count++

	return nil
}
