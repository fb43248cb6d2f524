package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"go-deepagent/internal/guard"
	"go-deepagent/internal/model"
	"go-deepagent/internal/reflect"
	"go-deepagent/internal/runs"
	"go-deepagent/internal/workflow"
	"go-deepagent/pkg/logger"
)

type newRun struct {
	Query string `json:"query"`
}

type emailRequest struct {
	Prompt    string `json:"prompt"`
	Recipient string `json:"recipient"`
}

type emailResponse struct {
	Email     reflect.Email `json:"email"`
	Approved  bool          `json:"approved"`
	Revisions int           `json:"revisions"`
}

type calendarRequest struct {
	Prompt string `json:"prompt"`
}

type calendarResponse struct {
	Event     reflect.Event `json:"event"`
	Approved  bool          `json:"approved"`
	Revisions int           `json:"revisions"`
}

type blockedResponse struct {
	Blocked bool   `json:"blocked"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the workflow over HTTP: research runs live behind actors
// keyed by id, drafting endpoints run their reflection loop inline.
type Server struct {
	ac           *actor.RootContext
	pipeline     *workflow.Pipeline
	set          model.Set
	filter       guard.Filter
	maxRevisions int
	server       *http.Server
	state        *runsCache
}

func New(ac *actor.RootContext, pipeline *workflow.Pipeline, set model.Set, filter guard.Filter, maxRevisions, port int) *Server {
	s := &Server{
		ac:           ac,
		pipeline:     pipeline,
		set:          set,
		filter:       filter,
		maxRevisions: maxRevisions,
		state:        newRunsCache(),
	}

	r := chi.NewRouter()
	r.Use(logMiddleware())

	r.Post("/runs", s.handleNewRun)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Post("/runs/{id}/cancel", s.handleCancelRun)
	r.Get("/runs/{id}/report", s.handleStreamReport)
	r.Post("/email/draft", s.handleEmailDraft)
	r.Post("/calendar/draft", s.handleCalendarDraft)

	s.server = &http.Server{
		Addr:    fmt.Sprint(":", port),
		Handler: r,
	}
	return s
}

func (s *Server) handleNewRun(w http.ResponseWriter, r *http.Request) {
	log.Debug().Msg("new run request")
	cmd := newRun{}
	if err := unmarshalRequestBody(r, &cmd); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "unable to parse body"})
		return
	}
	if cmd.Query == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "query is required"})
		return
	}

	decider := func(reason interface{}) actor.Directive {
		log.Error().Msgf("handling failure for run actor. reason: %v", reason)
		return actor.RestartDirective
	}
	strategy := actor.NewOneForOneStrategy(3, 10000, decider)

	props := actor.PropsFromProducer(runs.New(s.pipeline), actor.WithSupervisor(strategy))
	pid := s.ac.Spawn(props)

	id := uuid.New()
	s.ac.Send(pid, runs.Start{ID: id, Query: cmd.Query})
	s.state.add(id, pid)

	log.Debug().Str(logger.RunIDField, id.String()).Msg("run started")
	render.JSON(w, r, struct {
		ID string `json:"id"`
	}{id.String()})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	state, ok := s.runState(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, state)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.runPID(w, r)
	if !ok {
		return
	}
	res, err := s.ac.RequestFuture(pid, runs.Cancel{}, time.Minute).Result()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Error().Str(logger.RunIDField, id.String()).Err(err).Msg("unable to cancel run")
		return
	}
	ack, ok := res.(runs.CancelAck)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		log.Error().Str(logger.RunIDField, id.String()).Msgf("unknown cancel response: %T", res)
		return
	}
	render.JSON(w, r, struct {
		Cancelled bool `json:"cancelled"`
	}{ack.Cancelled})
}

// handleStreamReport flushes the finished report fragment by fragment, so a
// long report renders progressively on the client.
func (s *Server) handleStreamReport(w http.ResponseWriter, r *http.Request) {
	state, ok := s.runState(w, r)
	if !ok {
		return
	}
	if state.Status != workflow.RunCompleted {
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, errorResponse{Error: fmt.Sprintf("run is %s, no report to stream", state.Status)})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, canFlush := w.(http.Flusher)
	for fragment := range workflow.FragmentStream(state.Fragments) {
		if _, err := io.WriteString(w, fragment+"\n\n"); err != nil {
			log.Debug().Err(err).Msg("client went away mid-stream")
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func (s *Server) handleEmailDraft(w http.ResponseWriter, r *http.Request) {
	req := emailRequest{}
	if err := unmarshalRequestBody(r, &req); err != nil || req.Prompt == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "prompt is required"})
		return
	}

	drafter := reflect.NewEmailDrafter(reflect.EmailCompleters{
		Draft:    s.set.DraftEmail,
		Subject:  s.set.SubjectEmail,
		Revise:   s.set.ReviseEmail,
		Critique: s.set.CritiqueEmail,
	}, req.Prompt, req.Recipient, log.Logger)

	result, err := reflect.NewLoop[reflect.Email](drafter, s.maxRevisions, log.Logger).Run(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Error().Err(err).Msg("email draft failed")
		render.JSON(w, r, errorResponse{Error: "unable to draft email"})
		return
	}
	if d := s.filter.Check(result.Artifact.Subject + "\n" + result.Artifact.Body); !d.Allowed {
		log.Warn().Msg("email draft blocked by content filter")
		render.JSON(w, r, blockedResponse{Blocked: true, Message: d.Message})
		return
	}
	render.JSON(w, r, emailResponse{
		Email:     result.Artifact,
		Approved:  result.Approved,
		Revisions: result.Revisions,
	})
}

func (s *Server) handleCalendarDraft(w http.ResponseWriter, r *http.Request) {
	req := calendarRequest{}
	if err := unmarshalRequestBody(r, &req); err != nil || req.Prompt == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "prompt is required"})
		return
	}

	drafter := reflect.NewCalendarDrafter(reflect.CalendarCompleters{
		Draft:    s.set.DraftCalendar,
		Revise:   s.set.ReviseCalendar,
		Critique: s.set.CritiqueCalendar,
	}, req.Prompt, nil, log.Logger)

	result, err := reflect.NewLoop[reflect.Event](drafter, s.maxRevisions, log.Logger).Run(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Error().Err(err).Msg("calendar draft failed")
		render.JSON(w, r, errorResponse{Error: "unable to draft event"})
		return
	}
	if d := s.filter.Check(result.Artifact.Title + "\n" + result.Artifact.Description); !d.Allowed {
		log.Warn().Msg("calendar draft blocked by content filter")
		render.JSON(w, r, blockedResponse{Blocked: true, Message: d.Message})
		return
	}
	render.JSON(w, r, calendarResponse{
		Event:     result.Artifact,
		Approved:  result.Approved,
		Revisions: result.Revisions,
	})
}

func (s *Server) runPID(w http.ResponseWriter, r *http.Request) (uuid.UUID, *actor.PID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		log.Debug().Msg("cannot parse id")
		render.JSON(w, r, errorResponse{Error: "unable to parse id"})
		return uuid.Nil, nil, false
	}
	pid, ok := s.state.get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		log.Debug().Str(logger.RunIDField, idParam).Msg("cannot find id")
		return uuid.Nil, nil, false
	}
	return id, pid, true
}

func (s *Server) runState(w http.ResponseWriter, r *http.Request) (*workflow.State, bool) {
	id, pid, ok := s.runPID(w, r)
	if !ok {
		return nil, false
	}

	future := s.ac.RequestFuture(pid, runs.GetStatus{}, time.Minute) // blocking
	res, err := future.Result()
	if err != nil {
		s.state.remove(id)
		w.WriteHeader(http.StatusInternalServerError)
		log.Error().Str(logger.RunIDField, id.String()).Err(err).Msg("unable to get status from actor")
		return nil, false
	}
	if err, ok := res.(error); ok {
		w.WriteHeader(http.StatusInternalServerError)
		log.Error().Str(logger.RunIDField, id.String()).Err(err).Msg("unable to get status from actor")
		return nil, false
	}
	state, ok := res.(*workflow.State)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		log.Error().Str(logger.RunIDField, id.String()).Msgf("unknown status from actor: %T", res)
		return nil, false
	}
	return state, true
}

func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}

	log.Info().Msg("http server started")
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

func logMiddleware() func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RefererHandler("referer"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration", duration.Milliseconds()).
			Msg("REQ")
	}))

	return c.Then
}

func unmarshalRequestBody(req *http.Request, output interface{}) error {
	if req.Body == nil {
		return errors.New("invalid body in request")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if err = req.Body.Close(); err != nil {
		return err
	}
	if err = json.Unmarshal(body, &output); err != nil {
		return err
	}

	return nil
}
