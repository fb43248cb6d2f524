package workflow

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"go-deepagent/internal/engine"
	"go-deepagent/internal/guard"
	"go-deepagent/internal/model"
	"go-deepagent/internal/tools"
	"go-deepagent/pkg/logger"
)

// Config bounds a run. MaxEngineSteps caps the whole graph; MaxResearch caps
// the research cycle specifically.
type Config struct {
	MaxEngineSteps int
	MaxResearch    int
}

// Pipeline is the research workflow: plan, research until the tasks are done
// or the budget runs out, consolidate, report. One Pipeline serves many runs;
// each run owns its own State.
type Pipeline struct {
	cfg    Config
	filter guard.Filter
	graph  *engine.Graph[*State]
	log    zerolog.Logger
}

func NewPipeline(
	cfg Config,
	planner *Planner,
	decide model.Completer,
	reporter *Reporter,
	invoker *tools.Invoker,
	registry *tools.Registry,
	filter guard.Filter,
	log zerolog.Logger,
) *Pipeline {
	research := &researchLoop{
		decide:        decide,
		invoker:       invoker,
		registry:      registry,
		maxIterations: cfg.MaxResearch,
		log:           log.With().Str(logger.ComponentField, "research").Logger(),
	}
	wlog := log.With().Str(logger.ComponentField, "workflow").Logger()

	g := engine.New[*State](log)
	g.AddNode("planner", func(ctx context.Context, s *State) (*State, error) {
		s.Status = RunRunning
		s.Archetype, s.Tasks = planner.Plan(ctx, s.Query)
		return s, nil
	})
	g.AddNode("research", research.node)
	g.AddNode("consolidate", consolidateNode)
	// The filter runs inside the node, before observers see the state, so a
	// blocked report never leaks through a progress snapshot.
	g.AddNode("report", func(ctx context.Context, s *State) (*State, error) {
		s, err := reporter.node(ctx, s)
		if err != nil {
			return s, err
		}
		if d := filter.Check(s.Report); !d.Allowed {
			s.Report = ""
			s.Fragments = nil
			s.Status = RunBlocked
			s.BlockMessage = d.Message
			wlog.Warn().Msg("report blocked by content filter")
		}
		return s, nil
	})

	g.AddEdge("planner", "research")
	g.AddConditionalEdge("research", research.route, map[string]string{
		"research":    "research",
		"consolidate": "consolidate",
	})
	g.AddEdge("consolidate", "report")
	g.AddEdge("report", engine.End)

	g.RequireProgress("research", func(s *State) int { return s.Iteration })
	g.SetEntry("planner")

	return &Pipeline{
		cfg:    cfg,
		filter: filter,
		graph:  g,
		log:    wlog,
	}
}

// Run executes the workflow for one query. It never returns an error: every
// outcome, including blocks, failures and cancellation, is folded into the
// returned state so callers always get the full picture of what happened.
func (p *Pipeline) Run(ctx context.Context, query string, observer engine.Observer[*State]) *State {
	state := NewState(query)

	if d := p.filter.Check(query); !d.Allowed {
		state.Status = RunBlocked
		state.BlockMessage = d.Message
		p.log.Warn().Msg("query blocked by content filter")
		return state
	}

	final, err := p.graph.Execute(ctx, state, p.cfg.MaxEngineSteps, observer)
	switch {
	case err == nil:
		if final.Status != RunBlocked {
			final.Status = RunCompleted
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		final.resetInProgress()
		final.Status = RunCancelled
		p.log.Info().Msg("run cancelled")
	default:
		final.Status = RunFailed
		final.Error = err.Error()
		p.log.Error().Err(err).Msg("run failed")
	}
	return final
}
