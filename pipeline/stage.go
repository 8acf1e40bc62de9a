package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// fifo processes incoming payloads one at a time, in arrival order.
type fifo struct {
	proc Processor
}

// NewFIFO returns a StageRunner that processes incoming payloads in a
// first-in first-out fashion.
func NewFIFO(proc Processor) StageRunner {
	return fifo{proc}
}

// Run hands every input payload to the processor and forwards non-nil
// results to the output channel. A processor error is wrapped, written to
// the error channel and stops the runner.
func (r fifo) Run(ctx context.Context, params StageParams) {
	for {
		select {
		case <-ctx.Done():
			return
		case payloadIn, ok := <-params.Input():
			if !ok {
				return
			}

			payloadOut, err := r.proc.Process(ctx, payloadIn)
			if err != nil {
				wrappedErr := fmt.Errorf(
					"pipeline stage %d: %w", params.StageIndex(), err,
				)
				mayEmitError(wrappedErr, params.Error())

				return
			}

			// The processor dropped the payload.
			if payloadOut == nil {
				payloadIn.MarkAsProcessed()

				continue
			}

			select {
			case <-ctx.Done():
				return
			case params.Output() <- payloadOut:
			}
		}
	}
}

// fixedWorkerPool distributes incoming payloads among a constant number of
// fifo workers. At most len(fifos) payloads are being processed at any time;
// the rest wait on the shared input channel.
type fixedWorkerPool struct {
	fifos []StageRunner
}

// NewFixedWorkerPool returns a StageRunner that uses numOfWorkers fifo
// runners sharing the same input and output channels.
func NewFixedWorkerPool(proc Processor, numOfWorkers int) StageRunner {
	if numOfWorkers <= 0 {
		panic("FixedWorkerPool: numOfWorkers must be > 0")
	}

	fifos := make([]StageRunner, numOfWorkers)
	for i := 0; i < numOfWorkers; i++ {
		fifos[i] = NewFIFO(proc)
	}

	return fixedWorkerPool{fifos}
}

// Run launches one goroutine per fifo runner and waits for all of them to
// exit. Payloads go to whichever worker is free first.
func (r fixedWorkerPool) Run(ctx context.Context, params StageParams) {
	var wg sync.WaitGroup

	for i := 0; i < len(r.fifos); i++ {
		wg.Add(1)

		go func(index int) {
			defer wg.Done()

			r.fifos[index].Run(ctx, params)
		}(i)
	}

	wg.Wait()
}
