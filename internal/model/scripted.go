package model

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedResponse configures one model turn in a scripted sequence.
type ScriptedResponse struct {
	Text string
	Err  error
}

// Scripted is a deterministic completer for tests.
type Scripted struct {
	mu        sync.Mutex
	index     int
	responses []ScriptedResponse
	calls     []map[string]any
}

func NewScripted(responses ...ScriptedResponse) *Scripted {
	cloned := make([]ScriptedResponse, len(responses))
	copy(cloned, responses)
	return &Scripted{responses: cloned}
}

var _ Completer = (*Scripted)(nil)

func (s *Scripted) Complete(ctx context.Context, vars map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, vars)
	if s.index >= len(s.responses) {
		return "", fmt.Errorf("script exhausted at call %d", s.index+1)
	}
	current := s.responses[s.index]
	s.index++
	if current.Err != nil {
		return "", current.Err
	}
	return current.Text, nil
}

// Calls returns the variable maps seen so far, in call order.
func (s *Scripted) Calls() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.calls))
	copy(out, s.calls)
	return out
}
