package pipeline

import "context"

// Source should be implemented by types that generate Payload instances that
// can be used as inputs for a Pipeline instance.
type Source interface {
	// Next loads the next available payload from the source and returns true.
	// When no more payloads are available or an error occurs, calls to Next
	// return false.
	Next(context.Context) bool

	// Payload returns the current payload to be processed.
	Payload() Payload

	// Error returns the last error encountered by the source.
	Error() error
}

// Payload should be implemented by types that can serve as payloads for the
// pipeline.
type Payload interface {
	// MarkAsProcessed is invoked by the stage runner when the payload either
	// reaches the pipeline sink or gets discarded by one of the stages.
	MarkAsProcessed()
}

// Processor should be implemented by types that process payloads for a
// pipeline stage.
type Processor interface {
	// Process may transform the payload and return it so that it gets
	// forwarded to the next stage. Returning a nil payload drops it from the
	// pipeline. A non-nil error aborts the whole pipeline, so processors that
	// tolerate per-payload failures should record them on the payload instead.
	Process(context.Context, Payload) (Payload, error)
}

// ProcessorFunc is an adapter that allows the use of plain functions as
// processor instances.
type ProcessorFunc func(context.Context, Payload) (Payload, error)

// Process calls f(ctx, p).
func (f ProcessorFunc) Process(ctx context.Context, p Payload) (Payload, error) {
	return f(ctx, p)
}

// StageRunner should be implemented by types that can be strung together
// to form a multi-stage pipeline.
type StageRunner interface {
	// Run blocks until the stage input channel is closed, the context
	// expires or an error occurs while processing payloads.
	Run(context.Context, StageParams)
}

// StageParams provides a stage runner with its position in the pipeline
// and the channels it reads from and writes to.
type StageParams interface {
	// StageIndex returns the position of this stage in the pipeline.
	StageIndex() int

	// Input returns a read-only channel of input payloads for the stage.
	Input() <-chan Payload

	// Output returns a write-only channel for the stage output payloads.
	Output() chan<- Payload

	// Error returns a write-only channel for errors encountered by the stage.
	Error() chan<- error
}

// Sink should be implemented by types that serve as the last part of the
// pipeline.
type Sink interface {
	// Consume processes a payload that has been emitted out of the pipeline.
	Consume(context.Context, Payload) error
}
