package sweep

import (
	"fmt"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/results"
)

// SinkActor is the single owner of the result sink. Its mailbox serializes
// row writes coming from every runner. Each outcome is then pushed to the
// driver on outcomeCh.
type SinkActor struct {
	sink      results.Sink
	outcomeCh chan<- Outcome

	written, failed int
}

var _ actor.Actor = (*SinkActor)(nil)

// NewSinkActor creates the sink actor. outcomeCh must be able to buffer one
// outcome per dispatched job.
func NewSinkActor(sink results.Sink, outcomeCh chan<- Outcome) *SinkActor {
	return &SinkActor{sink: sink, outcomeCh: outcomeCh}
}

func (s *SinkActor) PreStart(ctx *actor.Context) error {
	return nil
}

func (s *SinkActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Debug("Sink started")

	case *structpb.Struct:
		out, err := OutcomeFromProto(msg)
		if err != nil {
			ctx.Logger().Errorf("Sink: dropping malformed outcome: %v", err)
			ctx.Unhandled()
			return
		}

		if out.Failed() {
			s.failed++
			ctx.Logger().Errorf("Run failed | %s: %v", describeRow(out.Row), out.Err)
		} else {
			if err := s.sink.WriteRow(out.Row); err != nil {
				out.SinkErr = err
				ctx.Logger().Errorf("Sink: cannot persist %s: %v", describeRow(out.Row), err)
			} else {
				s.written++
				ctx.Logger().Infof("Run %d | N=%d p=%g n1=%d n2=%d angle1=%g angle2=%g dir=(%g, %g)",
					out.Row.Run, out.Row.N, out.Row.P, out.Row.N1, out.Row.N2,
					out.Row.Angle1Deg, out.Row.Angle2Deg, out.Row.DirX, out.Row.DirY)
			}
		}
		s.outcomeCh <- out

	default:
		ctx.Unhandled()
	}
}

func (s *SinkActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Debugf("Sink stopped: %d rows written, %d runs failed", s.written, s.failed)
	return nil
}

func describeRow(r results.Row) string {
	return fmt.Sprintf("run %d | N=%d p=%g n1=%d n2=%d angle1=%g angle2=%g",
		r.Run, r.N, r.P, r.N1, r.N2, r.Angle1Deg, r.Angle2Deg)
}
