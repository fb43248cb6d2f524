package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"go-deepagent/internal/model"
	"go-deepagent/internal/tools"
	"go-deepagent/pkg/data"
	"go-deepagent/pkg/logger"
)

// decision is the JSON contract of one research pass: either a batch of tool
// calls, or no calls plus a summary that closes the current task.
type decision struct {
	Reasoning string          `json:"reasoning"`
	Summary   string          `json:"summary"`
	Calls     []tools.Request `json:"calls"`
}

type researchLoop struct {
	decide        model.Completer
	invoker       *tools.Invoker
	registry      *tools.Registry
	maxIterations int
	log           zerolog.Logger
}

// node runs one research pass over the current task: ask the model what the
// task still needs, dispatch the requested calls as a batch, and append the
// findings as notes. The iteration counter increments exactly once per pass,
// which is what the cycle's progress guard watches.
func (r *researchLoop) node(ctx context.Context, s *State) (*State, error) {
	task := s.CurrentTask()
	if task == nil {
		return s, nil
	}
	if task.Status == TaskPending {
		if err := task.transition(TaskInProgress); err != nil {
			return s, err
		}
	}

	log := r.log.With().Fields(map[string]interface{}{
		logger.TaskField: task.Ordinal,
		"iteration":      s.Iteration + 1,
	}).Logger()

	text, err := r.decide.Complete(ctx, map[string]any{
		"Task":  task.Description,
		"Query": s.Query,
		"Notes": renderNotes(recentNotes(s.Notes, task.Ordinal)),
		"Tools": r.registry.Describe(),
	})
	if err != nil {
		return s, fmt.Errorf("research decision: %w", err)
	}

	d := parseDecision(text)
	s.Iteration++

	if len(d.Calls) == 0 {
		summary := strings.TrimSpace(d.Summary)
		if summary == "" {
			summary = strings.TrimSpace(d.Reasoning)
		}
		if summary == "" {
			summary = strings.TrimSpace(text)
		}
		s.Notes = append(s.Notes, Note{
			Text:        summary,
			TaskOrdinal: task.Ordinal,
			Iteration:   s.Iteration,
		})
		if err := task.transition(TaskCompleted); err != nil {
			return s, err
		}
		s.TaskIndex++
		log.Info().Msg("task completed")
	} else {
		outcomes := r.invoker.InvokeAll(ctx, d.Calls)
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		for _, o := range outcomes {
			s.History = append(s.History, ToolCallRecord{
				ID:        o.ID,
				Tool:      o.Tool,
				Args:      o.Args,
				Result:    o.Result,
				Err:       o.Err,
				Duration:  o.Duration,
				Iteration: s.Iteration,
			})
			noteText := o.Result
			if o.Failed() {
				noteText = fmt.Sprintf("tool %s failed: %s", o.Tool, o.Err)
			}
			s.Notes = append(s.Notes, Note{
				Text:        noteText,
				TaskOrdinal: task.Ordinal,
				Iteration:   s.Iteration,
				Tool:        o.Tool,
				RecordID:    o.ID,
			})
		}
		log.Info().Int("calls", len(outcomes)).Msg("tool batch finished")
	}

	if s.Iteration >= r.maxIterations && s.PendingWork() {
		log.Warn().Msg("research budget exhausted with tasks remaining")
		s.FailRemaining("research iteration budget exhausted")
	}
	return s, nil
}

func (r *researchLoop) route(s *State) string {
	if s.PendingWork() {
		return "research"
	}
	return "consolidate"
}

// parseDecision never fails: when no JSON object can be extracted, the whole
// answer is treated as a closing summary for the current task.
func parseDecision(text string) decision {
	var d decision
	obj, err := data.ExtractObject(text)
	if err != nil {
		d.Summary = text
		return d
	}
	if err := json.Unmarshal([]byte(obj), &d); err != nil {
		d.Summary = text
		d.Calls = nil
	}
	return d
}

const recentNoteWindow = 6

// recentNotes keeps the prompt bounded: only the latest notes for the task
// at hand go back to the model.
func recentNotes(notes []Note, taskOrdinal int) []Note {
	var mine []Note
	for _, n := range notes {
		if n.TaskOrdinal == taskOrdinal {
			mine = append(mine, n)
		}
	}
	if len(mine) > recentNoteWindow {
		mine = mine[len(mine)-recentNoteWindow:]
	}
	return mine
}

func renderNotes(notes []Note) string {
	if len(notes) == 0 {
		return "none yet"
	}
	var b strings.Builder
	for _, n := range notes {
		tag := "summary"
		if n.Tool != "" {
			tag = n.Tool
		}
		fmt.Fprintf(&b, "[task %d, %s] %s\n", n.TaskOrdinal, tag, n.Text)
	}
	return b.String()
}
