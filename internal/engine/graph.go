package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"go-deepagent/pkg/logger"
)

// End is the terminal pseudo-node every workflow must reach.
const End = "__end__"

var (
	// ErrNoProgress means a cycle was re-entered without its progress
	// counter advancing. Guards against model output that never converges.
	ErrNoProgress = errors.New("workflow cycle made no progress")
	// ErrStepBudget means the global step ceiling was hit before End.
	ErrStepBudget = errors.New("workflow step budget exhausted")
)

// NodeFunc executes one workflow step against the shared state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc picks the label of the outgoing edge after a node ran.
type RouterFunc[S any] func(state S) string

// ProgressFunc extracts a monotone counter used to prove cycle progress.
type ProgressFunc[S any] func(state S) int

// Observer is notified after every node execution. It must not mutate state.
type Observer[S any] func(node string, state S)

type edge[S any] struct {
	to      string
	router  RouterFunc[S]
	targets map[string]string
}

// Graph is a directed, conditionally routed, cycle-permitting workflow over
// a single shared state value. Execution is strictly sequential: one node at
// a time, exactly one outgoing edge fires per step.
type Graph[S any] struct {
	nodes    map[string]NodeFunc[S]
	edges    map[string]edge[S]
	progress map[string]ProgressFunc[S]
	entry    string
	log      zerolog.Logger
}

func New[S any](log zerolog.Logger) *Graph[S] {
	return &Graph[S]{
		nodes:    make(map[string]NodeFunc[S]),
		edges:    make(map[string]edge[S]),
		progress: make(map[string]ProgressFunc[S]),
		log:      log.With().Str(logger.ComponentField, "engine").Logger(),
	}
}

func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) {
	g.nodes[name] = fn
}

func (g *Graph[S]) AddEdge(from, to string) {
	g.edges[from] = edge[S]{to: to}
}

// AddConditionalEdge routes from a node through a router whose label must
// map to a target. Routing is total: an unmapped label is a hard error, not
// a silent fallthrough.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S], targets map[string]string) {
	g.edges[from] = edge[S]{router: router, targets: targets}
}

// RequireProgress registers a monotone counter for a node that sits on a
// cycle. Re-entering the node without the counter strictly increasing
// terminates the run with ErrNoProgress.
func (g *Graph[S]) RequireProgress(node string, fn ProgressFunc[S]) {
	g.progress[node] = fn
}

func (g *Graph[S]) SetEntry(name string) {
	g.entry = name
}

// Execute drives the graph from the entry point until End, a node error,
// cancellation, or the step budget. The accumulated state is returned in
// every case so partial progress stays inspectable.
func (g *Graph[S]) Execute(ctx context.Context, state S, maxSteps int, observer Observer[S]) (S, error) {
	current := g.entry
	if _, ok := g.nodes[current]; !ok {
		return state, fmt.Errorf("entry node %q not found", current)
	}

	lastProgress := make(map[string]int)
	visited := make(map[string]bool)

	for step := 0; ; step++ {
		if current == End {
			return state, nil
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if step >= maxSteps {
			return state, fmt.Errorf("%w after %d steps at %q", ErrStepBudget, step, current)
		}

		node, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("node %q not found", current)
		}

		if fn, guarded := g.progress[current]; guarded {
			counter := fn(state)
			if visited[current] && counter <= lastProgress[current] {
				return state, fmt.Errorf("%w: %q counter stuck at %d", ErrNoProgress, current, counter)
			}
			lastProgress[current] = counter
		}
		visited[current] = true

		g.log.Debug().Str(logger.NodeField, current).Int("step", step).Msg("executing node")
		next, err := node(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", current, err)
		}
		state = next

		if observer != nil {
			observer(current, state)
		}

		e, ok := g.edges[current]
		if !ok {
			return state, fmt.Errorf("node %q has no outgoing edge", current)
		}
		if e.router == nil {
			current = e.to
			continue
		}
		label := e.router(state)
		target, ok := e.targets[label]
		if !ok {
			return state, fmt.Errorf("no route for label %q from node %q", label, current)
		}
		current = target
	}
}
