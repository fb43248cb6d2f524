package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/asynkron/protoactor-go/actor"
	zLog "github.com/rs/zerolog/log"

	"go-deepagent/internal/api"
	"go-deepagent/internal/clients"
	"go-deepagent/internal/config"
	"go-deepagent/internal/guard"
	"go-deepagent/internal/model"
	"go-deepagent/internal/tools"
	"go-deepagent/internal/workflow"
	"go-deepagent/pkg/logger"
	"go-deepagent/pkg/prompts"
)

// OPENAI_API_KEY is expected in the environment; everything else comes from
// config file or DEEPAGENT_ variables.
func main() {
	log.Println("starting server")
	cfg, err := config.Load()
	if err != nil {
		log.Panicf("failed to load config: %v", err)
	}
	if err := logger.NewGlobal(cfg.Logging.Level, cfg.Logging.Pretty); err != nil {
		log.Panicf("failed to initialize logger: %v", err)
	}

	set, err := buildModelSet(cfg)
	if err != nil {
		zLog.Panic().Err(err).Msg("failed to build model backends")
	}

	registry := buildRegistry(cfg)
	filter := buildFilter(cfg)
	pipeline := workflow.NewPipeline(
		workflow.Config{
			MaxEngineSteps: cfg.Workflow.MaxIterations,
			MaxResearch:    cfg.Research.MaxIterations,
		},
		workflow.NewPlanner(set.PlanFinancial, set.PlanAcademic, zLog.Logger),
		set.Decide,
		workflow.NewReporter(set.Report, zLog.Logger),
		tools.NewInvoker(registry, cfg.Tools.Timeout(), zLog.Logger),
		registry,
		filter,
		zLog.Logger,
	)

	system := actor.NewActorSystem().Root
	app := api.New(system, pipeline, set, filter, cfg.Reflect.MaxRevisions, cfg.Server.Port)

	go func() {
		err := app.Start()
		if err != nil {
			zLog.Panic().Err(err).Msg("server crash")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	stop()
	zLog.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		zLog.Panic().Err(err).Msg("server forced to shutdown")
	}

	zLog.Info().Msg("server exiting")
}

// buildModelSet wires one completer per prompt. Each completer fails over to
// the configured OpenAI compatible fallback server when one is set, and every
// call is capped by the model timeout.
func buildModelSet(cfg *config.Config) (model.Set, error) {
	primary, err := model.NewOpenAIFactory()
	if err != nil {
		return model.Set{}, err
	}

	var fallback model.BackendFactory
	if cfg.Model.FallbackBaseURL != "" {
		fallback = clients.NewCompletionFactory(cfg.Model.FallbackBaseURL, cfg.Model.Timeout())
	}

	build := func(template string, inputVars []string) (model.Completer, error) {
		completer, err := primary(template, inputVars)
		if err != nil {
			return nil, err
		}
		if fallback != nil {
			second, err := fallback(template, inputVars)
			if err != nil {
				return nil, err
			}
			completer = model.NewFailover(zLog.Logger, completer, second)
		}
		return model.WithTimeout(completer, cfg.Model.Timeout()), nil
	}

	var set model.Set
	wiring := []struct {
		target   *model.Completer
		template string
		vars     []string
	}{
		{&set.PlanFinancial, prompts.PlannerFinancial, []string{"Query"}},
		{&set.PlanAcademic, prompts.PlannerAcademic, []string{"Query"}},
		{&set.Decide, prompts.Decision, []string{"Task", "Query", "Notes", "Tools"}},
		{&set.Report, prompts.Report, []string{"Query", "Tasks", "Notes", "Structure"}},
		{&set.DraftEmail, prompts.EmailDraft, []string{"Prompt", "Recipient"}},
		{&set.SubjectEmail, prompts.EmailSubject, []string{"Body"}},
		{&set.ReviseEmail, prompts.EmailRevise, []string{"Prompt", "Recipient", "Draft", "Feedback"}},
		{&set.CritiqueEmail, prompts.EmailCritique, []string{"Prompt", "Recipient", "Draft"}},
		{&set.DraftCalendar, prompts.CalendarDraft, []string{"Prompt", "Today"}},
		{&set.ReviseCalendar, prompts.CalendarRevise, []string{"Prompt", "Draft", "Feedback", "Today"}},
		{&set.CritiqueCalendar, prompts.CalendarCritique, []string{"Prompt", "Draft"}},
	}
	for _, w := range wiring {
		completer, err := build(w.template, w.vars)
		if err != nil {
			return model.Set{}, fmt.Errorf("build completer: %w", err)
		}
		*w.target = completer
	}
	return set, nil
}

// buildRegistry registers a tool for every boundary that has a base URL
// configured. Unconfigured boundaries simply never show up in the decision
// prompt.
func buildRegistry(cfg *config.Config) *tools.Registry {
	registry := tools.NewRegistry()
	timeout := cfg.Clients.Timeout()

	if cfg.Clients.QuoteBaseURL != "" {
		registry.Register(tools.StockLookup(clients.NewQuote(cfg.Clients.QuoteBaseURL, timeout)))
	}
	if cfg.Clients.SearchBaseURL != "" {
		registry.Register(tools.WebSearch(clients.NewSearch(cfg.Clients.SearchBaseURL, timeout)))
	}
	if cfg.Clients.RetrieverBaseURL != "" {
		registry.Register(tools.KnowledgeSearch(clients.NewRetriever(cfg.Clients.RetrieverBaseURL, timeout)))
	}
	return registry
}

func buildFilter(cfg *config.Config) guard.Filter {
	if !cfg.Guard.Enabled || len(cfg.Guard.Keywords) == 0 {
		return guard.AllowAll{}
	}
	return guard.NewKeywordFilter(cfg.Guard.Keywords, cfg.Guard.Threshold, cfg.Guard.Message)
}
