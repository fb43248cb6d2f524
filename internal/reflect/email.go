package reflect

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"go-deepagent/internal/model"
	"go-deepagent/pkg/logger"
)

// Email is the artifact of the email drafting loop.
type Email struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Recipient string `json:"recipient"`
}

// EmailCompleters groups the model prompts the email drafter needs.
type EmailCompleters struct {
	Draft    model.Completer
	Subject  model.Completer
	Revise   model.Completer
	Critique model.Completer
}

// EmailDrafter writes a professional email for one request. A subject is
// generated from the drafted body; if that fails the draft still goes out
// with a subject derived from the request.
type EmailDrafter struct {
	completers EmailCompleters
	prompt     string
	recipient  string
	log        zerolog.Logger
}

var _ Drafter[Email] = (*EmailDrafter)(nil)

func NewEmailDrafter(completers EmailCompleters, prompt, recipient string, log zerolog.Logger) *EmailDrafter {
	return &EmailDrafter{
		completers: completers,
		prompt:     prompt,
		recipient:  recipient,
		log:        log.With().Str(logger.ComponentField, "email").Logger(),
	}
}

func (d *EmailDrafter) Draft(ctx context.Context) (Email, error) {
	body, err := d.completers.Draft.Complete(ctx, map[string]any{
		"Prompt":    d.prompt,
		"Recipient": d.recipient,
	})
	if err != nil {
		return Email{}, err
	}
	body = strings.TrimSpace(body)

	subject, err := d.completers.Subject.Complete(ctx, map[string]any{"Body": body})
	if err != nil {
		d.log.Warn().Err(err).Msg("subject generation failed, deriving from request")
		subject = fallbackSubject(d.prompt)
	}

	return Email{
		Subject:   strings.TrimSpace(subject),
		Body:      body,
		Recipient: d.recipient,
	}, nil
}

func (d *EmailDrafter) Critique(ctx context.Context, draft Email) (Critique, error) {
	text, err := d.completers.Critique.Complete(ctx, map[string]any{
		"Prompt":    d.prompt,
		"Recipient": d.recipient,
		"Draft":     draft.Body,
	})
	if err != nil {
		return Critique{}, err
	}
	return ParseCritique(text), nil
}

func (d *EmailDrafter) Revise(ctx context.Context, draft Email, feedback string) (Email, error) {
	body, err := d.completers.Revise.Complete(ctx, map[string]any{
		"Prompt":    d.prompt,
		"Recipient": d.recipient,
		"Draft":     draft.Body,
		"Feedback":  feedback,
	})
	if err != nil {
		return Email{}, err
	}
	draft.Body = strings.TrimSpace(body)
	return draft, nil
}

const maxSubjectLen = 50

func fallbackSubject(prompt string) string {
	subject := strings.Join(strings.Fields(prompt), " ")
	if len(subject) > maxSubjectLen {
		subject = strings.TrimSpace(subject[:maxSubjectLen-3]) + "..."
	}
	if subject == "" {
		subject = "No subject"
	}
	return subject
}

// String renders the email the way it is shown to the user.
func (e Email) String() string {
	return fmt.Sprintf("To: %s\nSubject: %s\n\n%s", e.Recipient, e.Subject, e.Body)
}
