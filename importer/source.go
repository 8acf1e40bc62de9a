package importer

import (
	"context"

	"github.com/mycok/halreslib/pipeline"
)

var _ pipeline.Source = (*urlSource)(nil)

// urlSource emits one payload per URL, tagged with the URL position so that
// results can be put back in submission order.
type urlSource struct {
	urls  []string
	index int
}

func (s *urlSource) Next(context.Context) bool {
	if s.index >= len(s.urls) {
		return false
	}

	s.index++

	return true
}

func (s *urlSource) Payload() pipeline.Payload {
	payload := payloadPool.Get().(*fetchPayload)
	payload.Index = s.index - 1
	payload.URL = s.urls[s.index-1]

	return payload
}

func (s *urlSource) Error() error {
	return nil
}
