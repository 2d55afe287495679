package sweep

import (
	"fmt"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/simulation"
)

// RunFunc executes one simulation run.
type RunFunc func(simulation.RunRequest, *simulation.Params) (simulation.Result, error)

// RunnerActor executes the jobs it receives one at a time and forwards each
// outcome to the sink. A runner is one slot of the worker pool.
type RunnerActor struct {
	run    RunFunc
	params *simulation.Params
	sink   *actor.PID

	done int
}

var _ actor.Actor = (*RunnerActor)(nil)

// NewRunnerActor creates a runner reporting to sink.
func NewRunnerActor(run RunFunc, params *simulation.Params, sink *actor.PID) *RunnerActor {
	return &RunnerActor{run: run, params: params, sink: sink}
}

func (r *RunnerActor) PreStart(ctx *actor.Context) error {
	if r.run == nil {
		return fmt.Errorf("runner %s: no run function", ctx.ActorName())
	}
	return nil
}

func (r *RunnerActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Debugf("%s ready", ctx.Self().Name())

	case *structpb.Struct:
		job, err := JobFromProto(msg)
		if err != nil {
			// still report it, the driver waits for one outcome per job
			ctx.Logger().Errorf("%s: malformed job: %v", ctx.Self().Name(), err)
			out := Outcome{Index: job.Index, Row: job.Row(simulation.Result{}), Err: fmt.Errorf("malformed job: %w", err)}
			ctx.Tell(r.sink, out.ToProto())
			return
		}

		res, runErr := r.safeRun(job.Request)
		r.done++
		out := Outcome{Index: job.Index, Row: job.Row(res), Err: runErr}
		ctx.Tell(r.sink, out.ToProto())

	default:
		ctx.Unhandled()
	}
}

func (r *RunnerActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Debugf("%s stopped after %d runs", ctx.ActorName(), r.done)
	return nil
}

// safeRun turns a panic inside the run into an error so the failure stays
// attached to its job.
func (r *RunnerActor) safeRun(req simulation.RunRequest) (res simulation.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = simulation.Result{}, fmt.Errorf("run panicked: %v", p)
		}
	}()
	return r.run(req, r.params)
}
