package reflect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"go-deepagent/internal/model"
)

func TestEmailDrafterApprovedFirstPass(t *testing.T) {
	completers := EmailCompleters{
		Draft:    model.NewScripted(model.ScriptedResponse{Text: "Dear team,\n\nPlease find the update attached.\n\nBest,\n[Your Name]"}),
		Subject:  model.NewScripted(model.ScriptedResponse{Text: "Project update"}),
		Revise:   model.NewScripted(),
		Critique: model.NewScripted(model.ScriptedResponse{Text: `{"verdict": "approve", "feedback": ""}`}),
	}
	d := NewEmailDrafter(completers, "send the team a project update", "team@example.com", zerolog.Nop())

	result, err := NewLoop[Email](d, 2, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Approved {
		t.Error("expected approval")
	}
	if result.Artifact.Subject != "Project update" {
		t.Errorf("subject = %q", result.Artifact.Subject)
	}
	if result.Artifact.Recipient != "team@example.com" {
		t.Errorf("recipient = %q", result.Artifact.Recipient)
	}
	if !strings.Contains(result.Artifact.Body, "Dear team") {
		t.Errorf("body = %q", result.Artifact.Body)
	}
}

func TestEmailDrafterReviseAppliesFeedback(t *testing.T) {
	completers := EmailCompleters{
		Draft:   model.NewScripted(model.ScriptedResponse{Text: "hi, update attached"}),
		Subject: model.NewScripted(model.ScriptedResponse{Text: "Update"}),
		Revise:  model.NewScripted(model.ScriptedResponse{Text: "Dear team,\n\nPlease find the update attached.\n\nBest regards,\n[Your Name]"}),
		Critique: model.NewScripted(
			model.ScriptedResponse{Text: `{"verdict": "revise", "feedback": "too informal"}`},
			model.ScriptedResponse{Text: `{"verdict": "approve", "feedback": ""}`},
		),
	}
	d := NewEmailDrafter(completers, "send the team a project update", "team@example.com", zerolog.Nop())

	result, err := NewLoop[Email](d, 2, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Approved || result.Revisions != 1 {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(result.Artifact.Body, "Dear team") {
		t.Errorf("revised body = %q", result.Artifact.Body)
	}
	if result.Artifact.Subject != "Update" {
		t.Errorf("revision must keep the subject, got %q", result.Artifact.Subject)
	}
}

func TestEmailDrafterSubjectFallback(t *testing.T) {
	completers := EmailCompleters{
		Draft:   model.NewScripted(model.ScriptedResponse{Text: "body"}),
		Subject: model.NewScripted(model.ScriptedResponse{Err: errors.New("backend down")}),
	}
	d := NewEmailDrafter(completers, "ask accounting about the Q3 invoice that is still unpaid after two reminders", "a@example.com", zerolog.Nop())

	email, err := d.Draft(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if email.Subject == "" {
		t.Fatal("fallback subject missing")
	}
	if len(email.Subject) > maxSubjectLen {
		t.Errorf("fallback subject too long: %q", email.Subject)
	}
}

func TestEmailString(t *testing.T) {
	e := Email{Subject: "S", Body: "B", Recipient: "r@example.com"}
	got := e.String()
	if !strings.Contains(got, "To: r@example.com") || !strings.Contains(got, "Subject: S") {
		t.Errorf("got %q", got)
	}
}
