package clients

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go-deepagent/internal/model"
)

// completionHTTP calls an OpenAI compatible completion endpoint directly. It
// renders the prompt template itself, so it can stand in for a chain-backed
// completer as a failover target.
type completionHTTP struct {
	httpJSON
	tmpl *template.Template
}

var _ model.Completer = (*completionHTTP)(nil)

// NewCompletionFactory returns a model.BackendFactory against an OpenAI
// compatible server, typically a local one used when the primary backend is
// down.
func NewCompletionFactory(base string, timeout time.Duration) model.BackendFactory {
	return func(tmplText string, _ []string) (model.Completer, error) {
		tmpl, err := template.New("prompt").Parse(tmplText)
		if err != nil {
			return nil, fmt.Errorf("parse prompt template: %w", err)
		}
		return &completionHTTP{
			httpJSON: newHTTPJSON(base, timeout),
			tmpl:     tmpl,
		}, nil
	}
}

func (c *completionHTTP) Complete(ctx context.Context, vars map[string]any) (string, error) {
	var prompt strings.Builder
	if err := c.tmpl.Execute(&prompt, vars); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	body := map[string]any{"prompt": prompt.String()}
	var payload struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/v1/completions", body, &payload); err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return payload.Choices[0].Text, nil
}
