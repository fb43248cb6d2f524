package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms/openai"
	langChainPrompts "github.com/tmc/langchaingo/prompts"
)

// ErrUnavailable means every configured backend failed for a call.
var ErrUnavailable = errors.New("model backend unavailable")

// Completer is the one model contract the workflow depends on: render a
// prompt with the given variables and return the completion text.
type Completer interface {
	Complete(ctx context.Context, vars map[string]any) (string, error)
}

type chainCompleter struct {
	chain chains.Chain
}

func (c chainCompleter) Complete(ctx context.Context, vars map[string]any) (string, error) {
	completion, err := chains.Call(ctx, c.chain, vars)
	if err != nil {
		return "", fmt.Errorf("call: %w", err)
	}
	text, ok := completion["text"].(string)
	if !ok {
		return "", errors.New("completion missing text output")
	}
	return text, nil
}

// Failover tries backends in order and only fails when all of them do.
// The secondary backend substitutes transparently; callers never see which
// backend answered.
type Failover struct {
	backends []Completer
	log      zerolog.Logger
}

func NewFailover(log zerolog.Logger, backends ...Completer) Failover {
	return Failover{backends: backends, log: log}
}

func (f Failover) Complete(ctx context.Context, vars map[string]any) (string, error) {
	var errs []error
	for i, backend := range f.backends {
		text, err := backend.Complete(ctx, vars)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.log.Warn().Err(err).Int("backend", i).Msg("model backend failed, trying next")
		errs = append(errs, err)
	}
	return "", fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(errs...))
}

type timeoutCompleter struct {
	inner Completer
	d     time.Duration
}

// WithTimeout caps every call to the wrapped completer.
func WithTimeout(inner Completer, d time.Duration) Completer {
	if d <= 0 {
		return inner
	}
	return timeoutCompleter{inner: inner, d: d}
}

func (t timeoutCompleter) Complete(ctx context.Context, vars map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Complete(ctx, vars)
}

// Set holds one completer per prompt the workflow needs. Components take the
// individual completers, not the whole set.
type Set struct {
	PlanFinancial    Completer
	PlanAcademic     Completer
	Decide           Completer
	Report           Completer
	DraftEmail       Completer
	SubjectEmail     Completer
	ReviseEmail      Completer
	CritiqueEmail    Completer
	DraftCalendar    Completer
	ReviseCalendar   Completer
	CritiqueCalendar Completer
}

// BackendFactory builds the chain completer for one prompt template against
// one backend. Primary and secondary clients come from the environment; the
// secondary typically points at a local OpenAI-compatible server.
type BackendFactory func(template string, inputVars []string) (Completer, error)

// NewOpenAIFactory returns a factory backed by a fresh OpenAI client.
func NewOpenAIFactory() (BackendFactory, error) {
	llm, err := openai.New()
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return func(template string, inputVars []string) (Completer, error) {
		prompt := langChainPrompts.NewPromptTemplate(template, inputVars)
		return chainCompleter{chain: chains.NewLLMChain(llm, prompt)}, nil
	}, nil
}
