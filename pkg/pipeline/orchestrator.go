package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/encodingman/encodingman/pkg/errors"
)

// Processor handles one file.
type Processor interface {
	Process(ctx context.Context, path string) FileOutcome
}

// Orchestrator fans a list of files out to a bounded set of workers.
// It never recurses into directories; expand folders before calling Run.
type Orchestrator struct {
	proc     Processor
	workers  int
	progress func(FileOutcome)
	log      logrus.FieldLogger
}

// NewOrchestrator creates a batch orchestrator. workers <= 0 means one
// worker per CPU.
func NewOrchestrator(proc Processor, workers int) *Orchestrator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Orchestrator{
		proc:    proc,
		workers: workers,
		log:     discard,
	}
}

// OnProgress registers a callback invoked after each file. Calls are
// serialized.
func (o *Orchestrator) OnProgress(fn func(FileOutcome)) *Orchestrator {
	o.progress = fn
	return o
}

// WithLogger sets the logger.
func (o *Orchestrator) WithLogger(l logrus.FieldLogger) *Orchestrator {
	o.log = l
	return o
}

// Run processes paths and returns a summary whose outcomes follow input
// order, whatever order the workers finish in. Cancelling ctx stops
// dispatching new files; files already in flight complete.
func (o *Orchestrator) Run(ctx context.Context, paths []string) *Summary {
	sum := &Summary{Started: time.Now()}

	workers := o.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	outcomes := make([]FileOutcome, len(paths))
	dispatched := make([]bool, len(paths))
	tallies := make([]Counts, workers)
	jobs := make(chan int)

	// in-flight files are not interrupted by cancellation
	workCtx := context.WithoutCancel(ctx)

	var progressMu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				out := o.safeProcess(workCtx, i, paths[i])
				outcomes[i] = out
				tallies[w].Add(out.Tag)

				if o.progress != nil {
					progressMu.Lock()
					o.progress(out)
					progressMu.Unlock()
				}
			}
			return nil
		})
	}

dispatch:
	for i := range paths {
		if ctx.Err() != nil {
			sum.Canceled = true
			break
		}
		select {
		case <-ctx.Done():
			sum.Canceled = true
			break dispatch
		case jobs <- i:
			dispatched[i] = true
		}
	}
	close(jobs)
	_ = g.Wait()

	for i, ok := range dispatched {
		if ok {
			sum.Outcomes = append(sum.Outcomes, outcomes[i])
		} else {
			sum.Pending = append(sum.Pending, paths[i])
		}
	}
	for _, t := range tallies {
		sum.Counts = sum.Counts.Merge(t)
	}
	sum.Finished = time.Now()

	o.log.WithFields(logrus.Fields{
		"total":          sum.Counts.Total,
		"converted":      sum.Counts.Converted,
		"already_target": sum.Counts.AlreadyTarget,
		"binary":         sum.Counts.Binary,
		"errors":         sum.Counts.Errors,
		"canceled":       sum.Canceled,
		"duration":       sum.Duration().Round(time.Millisecond),
	}).Info("batch finished")

	return sum
}

// safeProcess runs the processor with panic recovery so one bad file cannot
// take down the batch.
func (o *Orchestrator) safeProcess(ctx context.Context, index int, path string) (out FileOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.New(errors.CodePanic, fmt.Sprintf("processor panic: %v", r)).
				WithContext("path", path)
			out = FileOutcome{
				Path:    path,
				Tag:     TagError,
				Err:     err,
				Message: errors.Message(err),
			}
		}
		out.Index = index
	}()

	return o.proc.Process(ctx, path)
}
