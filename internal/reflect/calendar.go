package reflect

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"go-deepagent/internal/model"
	"go-deepagent/pkg/data"
	"go-deepagent/pkg/logger"
)

// Event is the artifact of the calendar drafting loop.
type Event struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
	Description string    `json:"description,omitempty"`
}

// CalendarCompleters groups the model prompts the calendar drafter needs.
type CalendarCompleters struct {
	Draft    model.Completer
	Revise   model.Completer
	Critique model.Completer
}

// CalendarDrafter extracts a calendar event from a natural language request.
// Critique runs static validation before consulting the model, so structural
// problems like inverted times turn into revision feedback instead of being
// shipped.
type CalendarDrafter struct {
	completers CalendarCompleters
	prompt     string
	now        func() time.Time
	log        zerolog.Logger
}

var _ Drafter[Event] = (*CalendarDrafter)(nil)

func NewCalendarDrafter(completers CalendarCompleters, prompt string, now func() time.Time, log zerolog.Logger) *CalendarDrafter {
	if now == nil {
		now = time.Now
	}
	return &CalendarDrafter{
		completers: completers,
		prompt:     prompt,
		now:        now,
		log:        log.With().Str(logger.ComponentField, "calendar").Logger(),
	}
}

func (d *CalendarDrafter) today() string {
	return d.now().Format("2006-01-02 (Monday)")
}

func (d *CalendarDrafter) Draft(ctx context.Context) (Event, error) {
	text, err := d.completers.Draft.Complete(ctx, map[string]any{
		"Prompt": d.prompt,
		"Today":  d.today(),
	})
	if err != nil {
		return Event{}, err
	}
	return parseEvent(text)
}

func (d *CalendarDrafter) Critique(ctx context.Context, draft Event) (Critique, error) {
	if problems := validateEvent(draft, d.now()); len(problems) > 0 {
		return Critique{
			Verdict:  VerdictRevise,
			Feedback: "fix these problems: " + strings.Join(problems, "; "),
		}, nil
	}

	text, err := d.completers.Critique.Complete(ctx, map[string]any{
		"Prompt": d.prompt,
		"Draft":  renderEvent(draft),
	})
	if err != nil {
		return Critique{}, err
	}
	return ParseCritique(text), nil
}

func (d *CalendarDrafter) Revise(ctx context.Context, draft Event, feedback string) (Event, error) {
	text, err := d.completers.Revise.Complete(ctx, map[string]any{
		"Prompt":   d.prompt,
		"Draft":    renderEvent(draft),
		"Feedback": feedback,
		"Today":    d.today(),
	})
	if err != nil {
		return Event{}, err
	}
	return parseEvent(text)
}

type eventPayload struct {
	Title       string   `json:"title"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Location    string   `json:"location"`
	Attendees   []string `json:"attendees"`
	Description string   `json:"description"`
}

func parseEvent(text string) (Event, error) {
	obj, err := data.ExtractObject(text)
	if err != nil {
		return Event{}, fmt.Errorf("event answer holds no object: %w", err)
	}
	var p eventPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}

	event := Event{
		Title:       strings.TrimSpace(p.Title),
		Location:    strings.TrimSpace(p.Location),
		Attendees:   p.Attendees,
		Description: strings.TrimSpace(p.Description),
	}
	if p.Start != "" {
		if event.Start, err = time.Parse(time.RFC3339, p.Start); err != nil {
			return Event{}, fmt.Errorf("parse start time: %w", err)
		}
	}
	if p.End != "" {
		if event.End, err = time.Parse(time.RFC3339, p.End); err != nil {
			return Event{}, fmt.Errorf("parse end time: %w", err)
		}
	}
	return event, nil
}

func renderEvent(e Event) string {
	raw, _ := json.Marshal(eventPayload{
		Title:       e.Title,
		Start:       e.Start.Format(time.RFC3339),
		End:         e.End.Format(time.RFC3339),
		Location:    e.Location,
		Attendees:   e.Attendees,
		Description: e.Description,
	})
	return string(raw)
}

const maxEventDuration = 12 * time.Hour

var emailAddressPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateEvent returns the structural problems of an event, phrased so they
// work directly as revision feedback.
func validateEvent(e Event, now time.Time) []string {
	var problems []string
	if e.Title == "" {
		problems = append(problems, "the event has no title")
	}
	if e.Start.IsZero() {
		problems = append(problems, "the start time is missing")
	}
	if e.End.IsZero() {
		problems = append(problems, "the end time is missing")
	}
	if !e.Start.IsZero() && !e.End.IsZero() {
		switch {
		case !e.End.After(e.Start):
			problems = append(problems, "the end time must be after the start time")
		case e.End.Sub(e.Start) > maxEventDuration:
			problems = append(problems, fmt.Sprintf("the event is longer than %s, the duration is probably wrong", maxEventDuration))
		}
	}
	if !e.Start.IsZero() && e.Start.Before(now.Add(-24*time.Hour)) {
		problems = append(problems, "the event starts in the past")
	}
	for _, a := range e.Attendees {
		if !emailAddressPattern.MatchString(a) {
			problems = append(problems, fmt.Sprintf("attendee %q is not an email address", a))
		}
	}
	return problems
}
