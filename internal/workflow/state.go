package workflow

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle of one planned unit of work. Transitions only
// move forward: pending -> in_progress -> {completed, failed}. A pending
// task may also fail directly when the run's budget is exhausted.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task is one planned unit of research work.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Ordinal     int        `json:"ordinal"`
	FailReason  string     `json:"fail_reason,omitempty"`
}

// Terminal reports whether the task reached a final status.
func (t *Task) Terminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed
}

var allowedTaskTransitions = map[TaskStatus]map[TaskStatus]struct{}{
	TaskPending:    {TaskInProgress: {}, TaskFailed: {}},
	TaskInProgress: {TaskCompleted: {}, TaskFailed: {}},
	TaskCompleted:  {},
	TaskFailed:     {},
}

func (t *Task) transition(to TaskStatus) error {
	allowed, ok := allowedTaskTransitions[t.Status]
	if !ok {
		return fmt.Errorf("unknown task status %q", t.Status)
	}
	if _, ok := allowed[to]; !ok {
		return fmt.Errorf("invalid task transition %s -> %s", t.Status, to)
	}
	t.Status = to
	return nil
}

// ToolCallRecord is the immutable audit entry for one tool invocation.
// Exactly one of Result and Err is set.
type ToolCallRecord struct {
	ID        string         `json:"id"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args,omitempty"`
	Result    string         `json:"result,omitempty"`
	Err       string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Iteration int            `json:"iteration"`
}

// Note is one evidence-tagged span of research findings. Tool and RecordID
// are empty for task summaries written by the decision step itself.
type Note struct {
	Text        string `json:"text"`
	TaskOrdinal int    `json:"task_ordinal"`
	Iteration   int    `json:"iteration"`
	Tool        string `json:"tool,omitempty"`
	RecordID    string `json:"record_id,omitempty"`
}

// RunStatus is the coarse state of one workflow run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
	RunBlocked   RunStatus = "blocked"
)

// State is the single context threaded through every node of a run. It is
// exclusively owned by that run; nodes mutate it sequentially and the note
// collection and history are append-only.
type State struct {
	Query     string    `json:"query"`
	Archetype Archetype `json:"archetype,omitempty"`

	Tasks     []Task `json:"tasks"`
	TaskIndex int    `json:"task_index"`
	Iteration int    `json:"iteration"`

	Notes      []Note           `json:"notes"`
	Structured []Note           `json:"structured_notes,omitempty"`
	History    []ToolCallRecord `json:"history"`

	Report    string   `json:"report,omitempty"`
	Fragments []string `json:"fragments,omitempty"`

	Status       RunStatus `json:"status"`
	BlockMessage string    `json:"block_message,omitempty"`
	Error        string    `json:"error,omitempty"`
}

func NewState(query string) *State {
	return &State{
		Query:  query,
		Status: RunPending,
	}
}

// CurrentTask returns the task the pointer sits on, or nil once all tasks
// are done.
func (s *State) CurrentTask() *Task {
	if s.TaskIndex < 0 || s.TaskIndex >= len(s.Tasks) {
		return nil
	}
	return &s.Tasks[s.TaskIndex]
}

// PendingWork reports whether any task is still ahead of the pointer.
func (s *State) PendingWork() bool {
	return s.TaskIndex < len(s.Tasks)
}

// FailRemaining marks every non-terminal task failed with the given reason
// and advances the pointer past the end, so downstream consumers never see
// an ambiguous task list.
func (s *State) FailRemaining(reason string) {
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.Terminal() {
			continue
		}
		if err := t.transition(TaskFailed); err == nil {
			t.FailReason = reason
		}
	}
	s.TaskIndex = len(s.Tasks)
}

// resetInProgress returns any in-flight task to pending. Only used on
// cancellation, where the pass was abandoned rather than finished.
func (s *State) resetInProgress() {
	for i := range s.Tasks {
		if s.Tasks[i].Status == TaskInProgress {
			s.Tasks[i].Status = TaskPending
		}
	}
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (s *State) Clone() *State {
	out := *s
	out.Tasks = append([]Task(nil), s.Tasks...)
	out.Notes = append([]Note(nil), s.Notes...)
	out.Structured = append([]Note(nil), s.Structured...)
	out.Fragments = append([]string(nil), s.Fragments...)
	out.History = make([]ToolCallRecord, len(s.History))
	for i, rec := range s.History {
		out.History[i] = rec
		if rec.Args != nil {
			args := make(map[string]any, len(rec.Args))
			for k, v := range rec.Args {
				args[k] = v
			}
			out.History[i].Args = args
		}
	}
	return &out
}
