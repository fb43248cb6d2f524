package reflect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"go-deepagent/pkg/data"
	"go-deepagent/pkg/logger"
)

// Verdict values a critique can carry.
const (
	VerdictApprove = "approve"
	VerdictRevise  = "revise"
)

// Critique is one reviewer judgement over a draft.
type Critique struct {
	Verdict  string `json:"verdict"`
	Feedback string `json:"feedback"`
}

func (c Critique) Approved() bool {
	return c.Verdict == VerdictApprove
}

// Drafter produces, reviews and revises one artifact type.
type Drafter[A any] interface {
	Draft(ctx context.Context) (A, error)
	Critique(ctx context.Context, draft A) (Critique, error)
	Revise(ctx context.Context, draft A, feedback string) (A, error)
}

// Result is the outcome of one reflection loop. Approved is false when the
// revision budget ran out; the artifact is still the best draft produced.
type Result[A any] struct {
	Artifact  A
	Approved  bool
	Revisions int
	Critiques []Critique
}

// Loop runs draft, critique, revise until the reviewer approves or the
// revision budget is spent. With a budget of zero the first draft is returned
// as-is without any critique.
type Loop[A any] struct {
	drafter      Drafter[A]
	maxRevisions int
	log          zerolog.Logger
}

func NewLoop[A any](drafter Drafter[A], maxRevisions int, log zerolog.Logger) *Loop[A] {
	return &Loop[A]{
		drafter:      drafter,
		maxRevisions: maxRevisions,
		log:          log.With().Str(logger.ComponentField, "reflect").Logger(),
	}
}

func (l *Loop[A]) Run(ctx context.Context) (Result[A], error) {
	var result Result[A]

	draft, err := l.drafter.Draft(ctx)
	if err != nil {
		return result, fmt.Errorf("draft: %w", err)
	}
	result.Artifact = draft

	if l.maxRevisions == 0 {
		result.Approved = true
		return result, nil
	}

	for {
		critique, err := l.drafter.Critique(ctx, result.Artifact)
		if err != nil {
			return result, fmt.Errorf("critique: %w", err)
		}
		result.Critiques = append(result.Critiques, critique)

		if critique.Approved() {
			result.Approved = true
			return result, nil
		}
		if result.Revisions == l.maxRevisions {
			l.log.Warn().Int("revisions", result.Revisions).Msg("revision budget spent, returning unapproved draft")
			return result, nil
		}

		revised, err := l.drafter.Revise(ctx, result.Artifact, critique.Feedback)
		if err != nil {
			return result, fmt.Errorf("revise: %w", err)
		}
		result.Artifact = revised
		result.Revisions++
	}
}

// ParseCritique reads a reviewer answer. Anything that is not a clean approve
// verdict becomes a revise request, with the raw answer as feedback when no
// structured feedback could be extracted.
func ParseCritique(text string) Critique {
	obj, err := data.ExtractObject(text)
	if err == nil {
		var c Critique
		if json.Unmarshal([]byte(obj), &c) == nil {
			c.Verdict = strings.ToLower(strings.TrimSpace(c.Verdict))
			if c.Verdict == VerdictApprove || c.Verdict == VerdictRevise {
				return c
			}
		}
	}
	return Critique{Verdict: VerdictRevise, Feedback: strings.TrimSpace(text)}
}
