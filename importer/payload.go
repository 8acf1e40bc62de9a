package importer

import (
	"bytes"
	"sync"

	"github.com/mycok/halreslib/pipeline"
)

var (
	_ pipeline.Payload = (*fetchPayload)(nil)

	payloadPool = sync.Pool{
		New: func() interface{} {
			return new(fetchPayload)
		},
	}
)

type fetchPayload struct {
	Index      int          // populated by the url source.
	URL        string       // populated by the url source.
	StatusCode int          // populated by the url fetcher.
	Body       bytes.Buffer // populated by the url fetcher.
	Err        error        // populated by the url fetcher.
	BodyErr    error        // populated by the url fetcher.
}

// MarkAsProcessed is invoked once the payload reached the sink. It resets
// the payload and returns it to the pool for re-use.
func (p *fetchPayload) MarkAsProcessed() {
	p.Index = 0
	p.URL = p.URL[:0]
	p.StatusCode = 0
	p.Body.Reset()
	p.Err = nil
	p.BodyErr = nil

	payloadPool.Put(p)
}
