package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog"

	"go-deepagent/internal/guard"
	"go-deepagent/internal/model"
	"go-deepagent/internal/tools"
	"go-deepagent/internal/workflow"
)

func testServer(t *testing.T, decide model.Completer, set model.Set) *httptest.Server {
	t.Helper()
	registry := tools.NewRegistry()
	pipeline := workflow.NewPipeline(
		workflow.Config{MaxEngineSteps: 25, MaxResearch: 20},
		workflow.NewPlanner(model.NewScripted(), model.NewScripted(), zerolog.Nop()),
		decide,
		workflow.NewReporter(model.NewScripted(model.ScriptedResponse{Text: "Report."}), zerolog.Nop()),
		tools.NewInvoker(registry, time.Second, zerolog.Nop()),
		registry,
		guard.AllowAll{},
		zerolog.Nop(),
	)

	system := actor.NewActorSystem()
	s := New(system.Root, pipeline, set, guard.AllowAll{}, 2, 0)
	srv := httptest.NewServer(s.server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	decide := model.NewScripted(model.ScriptedResponse{
		Text: `{"reasoning": "done", "summary": "answered", "calls": []}`,
	})
	srv := testServer(t, decide, model.Set{})

	res := postJSON(t, srv.URL+"/runs", map[string]string{"query": "what is the best pizza in Naples"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(res.Body).Decode(&created)
	if created.ID == "" {
		t.Fatal("no run id returned")
	}

	deadline := time.Now().Add(5 * time.Second)
	var state workflow.State
	for time.Now().Before(deadline) {
		res, err := http.Get(srv.URL + "/runs/" + created.ID)
		if err != nil {
			t.Fatal(err)
		}
		json.NewDecoder(res.Body).Decode(&state)
		res.Body.Close()
		if state.Status == workflow.RunCompleted {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if state.Status != workflow.RunCompleted {
		t.Fatalf("run never completed: %+v", state)
	}

	report, err := http.Get(srv.URL + "/runs/" + created.ID + "/report")
	if err != nil {
		t.Fatal(err)
	}
	defer report.Body.Close()
	if report.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", report.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(report.Body)
	if !strings.Contains(buf.String(), "Report.") {
		t.Errorf("report body = %q", buf.String())
	}
}

func TestNewRunRejectsEmptyQuery(t *testing.T) {
	srv := testServer(t, model.NewScripted(), model.Set{})
	res := postJSON(t, srv.URL+"/runs", map[string]string{})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", res.StatusCode)
	}
}

func TestGetRunBadAndUnknownIDs(t *testing.T) {
	srv := testServer(t, model.NewScripted(), model.Set{})

	res, err := http.Get(srv.URL + "/runs/not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d", res.StatusCode)
	}

	res, err = http.Get(srv.URL + "/runs/00000000-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d", res.StatusCode)
	}
}

func TestEmailDraftEndpoint(t *testing.T) {
	set := model.Set{
		DraftEmail:    model.NewScripted(model.ScriptedResponse{Text: "Dear team, hello."}),
		SubjectEmail:  model.NewScripted(model.ScriptedResponse{Text: "Hello"}),
		ReviseEmail:   model.NewScripted(),
		CritiqueEmail: model.NewScripted(model.ScriptedResponse{Text: `{"verdict": "approve"}`}),
	}
	srv := testServer(t, model.NewScripted(), set)

	res := postJSON(t, srv.URL+"/email/draft", map[string]string{
		"prompt":    "greet the team",
		"recipient": "team@example.com",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var out emailResponse
	json.NewDecoder(res.Body).Decode(&out)
	if !out.Approved || out.Email.Subject != "Hello" {
		t.Errorf("response = %+v", out)
	}
}

func TestEmailDraftBlockedOutput(t *testing.T) {
	set := model.Set{
		DraftEmail:    model.NewScripted(model.ScriptedResponse{Text: "the secret codeword is inside"}),
		SubjectEmail:  model.NewScripted(model.ScriptedResponse{Text: "Hello"}),
		ReviseEmail:   model.NewScripted(),
		CritiqueEmail: model.NewScripted(model.ScriptedResponse{Text: `{"verdict": "approve"}`}),
	}
	system := actor.NewActorSystem()
	filter := guard.NewKeywordFilter([]string{"secret codeword"}, 0.5, "")
	s := New(system.Root, nil, set, filter, 2, 0)
	srv := httptest.NewServer(s.server.Handler)
	defer srv.Close()

	res := postJSON(t, srv.URL+"/email/draft", map[string]string{"prompt": "write something"})
	defer res.Body.Close()
	var out blockedResponse
	json.NewDecoder(res.Body).Decode(&out)
	if !out.Blocked || out.Message == "" {
		t.Errorf("response = %+v", out)
	}
}

func TestEmailDraftBlockedSubject(t *testing.T) {
	set := model.Set{
		DraftEmail:    model.NewScripted(model.ScriptedResponse{Text: "a perfectly clean body"}),
		SubjectEmail:  model.NewScripted(model.ScriptedResponse{Text: "about the secret codeword"}),
		ReviseEmail:   model.NewScripted(),
		CritiqueEmail: model.NewScripted(model.ScriptedResponse{Text: `{"verdict": "approve"}`}),
	}
	system := actor.NewActorSystem()
	filter := guard.NewKeywordFilter([]string{"secret codeword"}, 0.5, "")
	s := New(system.Root, nil, set, filter, 2, 0)
	srv := httptest.NewServer(s.server.Handler)
	defer srv.Close()

	res := postJSON(t, srv.URL+"/email/draft", map[string]string{"prompt": "write something"})
	defer res.Body.Close()
	var out blockedResponse
	json.NewDecoder(res.Body).Decode(&out)
	if !out.Blocked || out.Message == "" {
		t.Errorf("subject must be filtered too, response = %+v", out)
	}
}

func TestCalendarDraftEndpoint(t *testing.T) {
	set := model.Set{
		DraftCalendar: model.NewScripted(model.ScriptedResponse{Text: `{
			"title": "Sync", "start": "2999-01-02T09:00:00Z", "end": "2999-01-02T10:00:00Z"
		}`}),
		ReviseCalendar:   model.NewScripted(),
		CritiqueCalendar: model.NewScripted(model.ScriptedResponse{Text: `{"verdict": "approve"}`}),
	}
	srv := testServer(t, model.NewScripted(), set)

	res := postJSON(t, srv.URL+"/calendar/draft", map[string]string{"prompt": "sync on jan 2nd at 9"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var out calendarResponse
	json.NewDecoder(res.Body).Decode(&out)
	if !out.Approved || out.Event.Title != "Sync" {
		t.Errorf("response = %+v", out)
	}
}
