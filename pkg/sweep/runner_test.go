package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/simulation"
)

func TestRunnerActor_ReportsMalformedJob(t *testing.T) {
	ctx := testContext(t)

	system, err := actor.NewActorSystem("RunnerTest", actor.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))
	t.Cleanup(func() { _ = system.Stop(context.Background()) })

	sink := &memorySink{}
	outcomeCh := make(chan Outcome, 2)
	sinkPID, err := system.Spawn(ctx, "sink", NewSinkActor(sink, outcomeCh), actor.WithLongLived())
	require.NoError(t, err)
	runnerPID, err := system.Spawn(ctx, "runner", NewRunnerActor(fakeRun, simulation.DefaultParams(), sinkPID), actor.WithLongLived())
	require.NoError(t, err)

	job := Job{Index: 7, Rep: 1, Request: simulation.RunRequest{PopulationSize: 10, Seed: 3}}
	broken := job.ToProto()
	delete(broken.Fields, "seed")

	require.NoError(t, actor.Tell(ctx, runnerPID, broken))
	require.NoError(t, actor.Tell(ctx, runnerPID, job.ToProto()))

	var outcomes []Outcome
	for len(outcomes) < 2 {
		select {
		case out := <-outcomeCh:
			outcomes = append(outcomes, out)
		case <-ctx.Done():
			t.Fatalf("got %d outcomes before timeout; want 2", len(outcomes))
		}
	}

	// a runner handles its mailbox in order
	assert.True(t, outcomes[0].Failed())
	assert.ErrorContains(t, outcomes[0].Err, "malformed job")
	assert.Equal(t, 7, outcomes[0].Index)
	assert.False(t, outcomes[1].Failed())
	assert.Len(t, sink.Rows(), 1)
}
