package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"go-deepagent/pkg/logger"
)

// Request is one tool call asked for by the decision step.
type Request struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// Outcome is the normalized result of one tool invocation. Exactly one of
// Result and Err is set.
type Outcome struct {
	ID       string
	Tool     string
	Args     map[string]any
	Result   string
	Err      string
	Duration time.Duration
}

// Failed reports whether the invocation produced an error instead of a result.
func (o Outcome) Failed() bool {
	return o.Err != ""
}

// Invoker dispatches tool requests against a registry. Requests in one batch
// run concurrently and are joined all-complete; a slow or failed call never
// blocks or corrupts the others.
type Invoker struct {
	registry *Registry
	timeout  time.Duration
	log      zerolog.Logger
}

func NewInvoker(registry *Registry, timeout time.Duration, log zerolog.Logger) *Invoker {
	return &Invoker{
		registry: registry,
		timeout:  timeout,
		log:      log.With().Str(logger.ComponentField, "invoker").Logger(),
	}
}

// InvokeAll runs every request and returns one outcome per request, in
// request order. Cancelling ctx cancels the whole batch; each cancelled or
// timed-out call is recorded as a failed outcome, not an error.
func (inv *Invoker) InvokeAll(ctx context.Context, reqs []Request) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	var wg conc.WaitGroup
	for i := range reqs {
		i := i
		wg.Go(func() {
			outcomes[i] = inv.invoke(ctx, reqs[i])
		})
	}
	wg.Wait()
	return outcomes
}

func (inv *Invoker) invoke(ctx context.Context, req Request) Outcome {
	out := Outcome{
		ID:   uuid.NewString(),
		Tool: req.Tool,
		Args: req.Args,
	}
	start := time.Now()

	tool, ok := inv.registry.Lookup(req.Tool)
	if !ok {
		out.Err = fmt.Sprintf("tool %q is not registered", req.Tool)
		out.Duration = time.Since(start)
		inv.log.Warn().Str(logger.ToolField, req.Tool).Msg("dropping request for unknown tool")
		return out
	}

	callCtx := ctx
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	result, err := tool.Invoke(callCtx, req.Args)
	out.Duration = time.Since(start)
	if err != nil {
		out.Err = err.Error()
		inv.log.Warn().Err(err).Str(logger.ToolField, req.Tool).Dur("took", out.Duration).Msg("tool call failed")
		return out
	}
	out.Result = result
	inv.log.Debug().Str(logger.ToolField, req.Tool).Dur("took", out.Duration).Msg("tool call completed")
	return out
}
