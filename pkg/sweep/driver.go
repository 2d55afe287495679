package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/results"
	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/simulation"
)

// ErrSink is returned when a row cannot be persisted. The sweep stops at the
// first such failure.
var ErrSink = errors.New("result sink failure")

// Summary counts what happened to the jobs of a sweep.
type Summary struct {
	ID         string // identifies the sweep in the log
	Dispatched int
	Completed  int
	Failed     int
}

// Driver runs sweep jobs on a pool of RunnerActors and collects their
// outcomes through a SinkActor.
type Driver struct {
	sink    results.Sink
	workers int
	logger  log.Logger
	params  *simulation.Params
	run     RunFunc
}

// Option configures a Driver.
type Option func(*Driver)

// WithWorkers sets the pool size. Values below 1 keep the default.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger of the actor system.
func WithLogger(l log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithParams sets the model constants shared by every run.
func WithParams(p *simulation.Params) Option {
	return func(d *Driver) { d.params = p }
}

// WithRunFunc replaces the function executing a single run.
func WithRunFunc(f RunFunc) Option {
	return func(d *Driver) { d.run = f }
}

// NewDriver creates a driver writing to sink. By default it uses one worker
// per CPU, the default model parameters and simulation.Run.
func NewDriver(sink results.Sink, opts ...Option) *Driver {
	d := &Driver{
		sink:    sink,
		workers: runtime.NumCPU(),
		logger:  log.DiscardLogger,
		params:  simulation.DefaultParams(),
		run:     simulation.Run,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Workers returns the pool size.
func (d *Driver) Workers() int {
	return d.workers
}

// Run dispatches every job and waits until each one has either produced a
// row or been reported as failed. A failed run does not stop the others;
// a sink failure aborts the sweep with ErrSink. The sink itself is left
// open for the caller to close.
func (d *Driver) Run(ctx context.Context, jobs []Job) (Summary, error) {
	var summary Summary
	if len(jobs) == 0 {
		return summary, nil
	}
	summary.ID = uuid.NewString()

	system, err := actor.NewActorSystem("CouzinSweep",
		actor.WithLogger(d.logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return summary, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return summary, fmt.Errorf("failed to start actor system: %w", err)
	}
	defer func() {
		if err := system.Stop(context.WithoutCancel(ctx)); err != nil {
			d.logger.Warnf("actor system did not stop cleanly: %v", err)
		}
	}()

	// every job yields exactly one outcome, so the sink never blocks
	outcomeCh := make(chan Outcome, len(jobs))
	sinkPID, err := system.Spawn(ctx, "sink", NewSinkActor(d.sink, outcomeCh), actor.WithLongLived())
	if err != nil {
		return summary, fmt.Errorf("failed to spawn sink: %w", err)
	}

	runners := make([]*actor.PID, min(d.workers, len(jobs)))
	for i := range runners {
		name := fmt.Sprintf("runner-%03d", i)
		pid, err := system.Spawn(ctx, name, NewRunnerActor(d.run, d.params, sinkPID), actor.WithLongLived())
		if err != nil {
			return summary, fmt.Errorf("failed to spawn %s: %w", name, err)
		}
		runners[i] = pid
	}
	d.logger.Infof("Sweep %s: dispatching %d runs on %d workers", summary.ID, len(jobs), len(runners))

	for i, job := range jobs {
		if err := actor.Tell(ctx, runners[i%len(runners)], job.ToProto()); err != nil {
			return summary, fmt.Errorf("failed to dispatch %s: %w", job, err)
		}
		summary.Dispatched++
	}

	for received := 0; received < summary.Dispatched; received++ {
		select {
		case out := <-outcomeCh:
			if out.SinkErr != nil {
				return summary, fmt.Errorf("%w: %v", ErrSink, out.SinkErr)
			}
			if out.Failed() {
				summary.Failed++
			} else {
				summary.Completed++
			}
		case <-ctx.Done():
			return summary, ctx.Err()
		}
	}

	d.logger.Infof("Sweep %s: all %d runs done, %d completed, %d failed", summary.ID, summary.Dispatched, summary.Completed, summary.Failed)
	return summary, nil
}
