/*
	pipeline package wires a source, a list of stage runners and a sink
	together with channels and exposes the whole asynchronous flow behind the
	synchronous Pipeline.Execute call.

	The importer uses a single fixed worker pool stage to fetch pages with a
	bounded number of in-flight requests.
*/

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Pipeline is built out of an input source, an output sink and zero or more
// stage runners.
type Pipeline struct {
	stages []StageRunner
}

// New returns a pointer to a pipeline instance.
func New(stages ...StageRunner) *Pipeline {
	return &Pipeline{stages}
}

// Execute reads the contents of src, sends them through the stages of the
// pipeline and directs the results to sink.
//
// Calls to Execute block until:
//   - all data from the source has been processed or discarded.
//   - an error is reported by the source, the sink or any stage.
//   - the supplied context is cancelled.
//
// It is safe to call Execute concurrently with different sources and sinks.
func (p *Pipeline) Execute(ctx context.Context, src Source, sink Sink) error {
	var wg sync.WaitGroup
	executionCtx, cancel := context.WithCancel(ctx)

	// The output of the i_th stage is the input of the i+1_th stage. One extra
	// channel connects the source to the sink when no stages are provided.
	stageChans := make([]chan Payload, len(p.stages)+1)
	for i := 0; i < len(stageChans); i++ {
		stageChans[i] = make(chan Payload)
	}

	// Room for one error from every stage plus the source and the sink.
	errChan := make(chan error, len(p.stages)+2)

	for i := 0; i < len(p.stages); i++ {
		wg.Add(1)

		go func(index int) {
			defer wg.Done()

			p.stages[index].Run(executionCtx, &stageParams{
				stage:   index,
				inChan:  stageChans[index],
				outChan: stageChans[index+1],
				errChan: errChan,
			})

			// Closing the output channel lets the next stage know that no
			// more data will arrive.
			close(stageChans[index+1])
		}(i)
	}

	wg.Add(2)

	go func() {
		sourceWorker(executionCtx, src, stageChans[0], errChan)

		close(stageChans[0])
		wg.Done()
	}()

	go func() {
		sinkWorker(executionCtx, sink, stageChans[len(stageChans)-1], errChan)
		wg.Done()
	}()

	go func() {
		wg.Wait()

		close(errChan)
		cancel()
	}()

	var err error
	for stageErr := range errChan {
		err = multierror.Append(err, stageErr)

		// Any error tears down the entire pipeline.
		cancel()
	}

	return err
}

// sourceWorker pulls payloads out of src and feeds them to the first stage.
func sourceWorker(
	ctx context.Context, src Source,
	outChan chan<- Payload, errChan chan<- error,
) {

	for src.Next(ctx) {
		p := src.Payload()

		select {
		case <-ctx.Done():
			return
		case outChan <- p:
		}
	}

	if err := src.Error(); err != nil {
		mayEmitError(fmt.Errorf("pipeline source: %w", err), errChan)
	}
}

func sinkWorker(
	ctx context.Context, sink Sink,
	inChan <-chan Payload, errChan chan<- error,
) {

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-inChan:
			if !ok {
				return
			}

			if err := sink.Consume(ctx, payload); err != nil {
				mayEmitError(fmt.Errorf("pipeline sink: %w", err), errChan)

				return
			}

			payload.MarkAsProcessed()
		}
	}
}

func mayEmitError(err error, errChan chan<- error) {
	select {
	case errChan <- err:
	default: // errChan is full and the new error is dropped.
	}
}
