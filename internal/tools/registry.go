package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Tool is one registered capability. Schema maps argument names to short
// human-readable descriptions surfaced to the decision step.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]string
	Invoke      func(ctx context.Context, args map[string]any) (string, error)
}

// Registry is a map-backed tool lookup keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry(initial ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(initial))}
	for _, t := range initial {
		r.tools[t.Name] = t
	}
	return r
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Describe renders the registered tools for the decision prompt, sorted by
// name so the prompt is stable across runs.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		t := r.tools[name]
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		args := make([]string, 0, len(t.Schema))
		for arg := range t.Schema {
			args = append(args, arg)
		}
		sort.Strings(args)
		for _, arg := range args {
			fmt.Fprintf(&b, "    %s: %s\n", arg, t.Schema[arg])
		}
	}
	return b.String()
}
