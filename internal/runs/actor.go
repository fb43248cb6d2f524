package runs

import (
	"context"
	"errors"

	protoactor "github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"

	"go-deepagent/internal/workflow"
	"go-deepagent/pkg/logger"
)

// Runner hosts one workflow run. The graph executes on its own goroutine; the
// actor owns the authoritative snapshot and serializes status reads, progress
// updates and cancellation through its mailbox.
type Runner struct {
	pipeline *workflow.Pipeline
	query    string
	cancel   context.CancelFunc
	snapshot *workflow.State
	done     bool
}

// New returns a producer for run actors sharing one pipeline.
func New(pipeline *workflow.Pipeline) func() protoactor.Actor {
	return func() protoactor.Actor {
		return &Runner{pipeline: pipeline}
	}
}

func (r *Runner) Receive(ac protoactor.Context) {
	l := log.With().Fields(map[string]interface{}{
		logger.ComponentField: "runner",
		"actor":               ac.Self().GetId(),
	}).Logger()

	switch msg := ac.Message().(type) {
	case *protoactor.Started:
		l.Debug().Msg("starting actor")
	case *protoactor.Stopping:
		if r.cancel != nil {
			r.cancel()
		}
		l.Debug().Msg("stopping actor")
	case *protoactor.Stopped:
		l.Debug().Msg("stopped actor")
	case *protoactor.Restarting:
		if r.cancel != nil {
			r.cancel()
		}
		l.Debug().Msg("restarting actor")

	case Start:
		if r.snapshot != nil {
			l.Warn().Msg("run already started, ignoring")
			return
		}
		l.Info().Str(logger.RunIDField, msg.ID.String()).Msg("run starting")
		r.query = msg.Query
		r.snapshot = workflow.NewState(msg.Query)

		ctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel

		self := ac.Self()
		root := ac.ActorSystem().Root
		pipeline := r.pipeline
		go func() {
			observer := func(node string, state *workflow.State) {
				root.Send(self, progress{node: node, snapshot: state.Clone()})
			}
			final := pipeline.Run(ctx, msg.Query, observer)
			root.Send(self, finished{snapshot: final.Clone()})
		}()

	case progress:
		if !r.done {
			r.snapshot = msg.snapshot
			l.Debug().Str(logger.NodeField, msg.node).Msg("progress")
		}

	case finished:
		r.snapshot = msg.snapshot
		r.done = true
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		l.Info().Str("status", string(msg.snapshot.Status)).Msg("run finished")

	case GetStatus:
		if r.snapshot == nil {
			ac.Respond(errors.New("run not started"))
			return
		}
		ac.Respond(r.snapshot.Clone())

	case Cancel:
		if r.cancel != nil && !r.done {
			r.cancel()
			ac.Respond(CancelAck{Cancelled: true})
			return
		}
		ac.Respond(CancelAck{Cancelled: false})
	}
}
