package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"go-deepagent/internal/model"
	"go-deepagent/pkg/logger"
	"go-deepagent/pkg/prompts"
)

// Reporter turns the structured notes into the final report and splits it
// into fragments for streaming delivery.
type Reporter struct {
	completer model.Completer
	log       zerolog.Logger
}

func NewReporter(completer model.Completer, log zerolog.Logger) *Reporter {
	return &Reporter{
		completer: completer,
		log:       log.With().Str(logger.ComponentField, "reporter").Logger(),
	}
}

func (r *Reporter) node(ctx context.Context, s *State) (*State, error) {
	report, err := r.completer.Complete(ctx, map[string]any{
		"Query":     s.Query,
		"Tasks":     renderTasks(s.Tasks),
		"Notes":     renderNotes(s.Structured),
		"Structure": reportStructure(s.Archetype),
	})
	if err != nil {
		return s, fmt.Errorf("report: %w", err)
	}

	s.Report = strings.TrimSpace(report)
	s.Fragments = SplitFragments(s.Report)
	if evidence := evidenceFragment(s.Structured); evidence != "" {
		s.Fragments = append(s.Fragments, evidence)
	}
	r.log.Info().Int("fragments", len(s.Fragments)).Msg("report written")
	return s, nil
}

func reportStructure(a Archetype) string {
	switch a {
	case ArchetypeFinancial:
		return prompts.ReportStructureFinancial
	case ArchetypeAcademic:
		return prompts.ReportStructureAcademic
	default:
		return prompts.ReportStructureGeneric
	}
}

func renderTasks(tasks []Task) string {
	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "- %s (%s)\n", t.Description, t.Status)
	}
	return b.String()
}

// SplitFragments breaks a report into paragraph fragments, dropping empty
// spans so every fragment carries content.
func SplitFragments(report string) []string {
	var out []string
	for _, part := range strings.Split(report, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// evidenceFragment appends the audit trail of tool-backed findings so readers
// can trace every claim back to the call that produced it.
func evidenceFragment(structured []Note) string {
	var b strings.Builder
	for _, n := range structured {
		if n.Tool == "" {
			continue
		}
		fmt.Fprintf(&b, "- task %d: %s (record %s)\n", n.TaskOrdinal, n.Tool, n.RecordID)
	}
	if b.Len() == 0 {
		return ""
	}
	return "Evidence:\n" + b.String()
}

// FragmentStream delivers the fragments of a finished report in order over a
// channel that closes after the last one. Each fragment is sent exactly once.
func FragmentStream(fragments []string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, f := range fragments {
			out <- f
		}
	}()
	return out
}
