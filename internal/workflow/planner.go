package workflow

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-deepagent/internal/model"
	"go-deepagent/pkg/logger"
)

// Archetype selects the planning prompt and report structure for a run.
type Archetype string

const (
	ArchetypeFinancial Archetype = "financial"
	ArchetypeAcademic  Archetype = "academic"
	ArchetypeGeneric   Archetype = "generic"
)

var (
	tickerPattern = regexp.MustCompile(`\b(MSFT|GOOGL|GOOG|AAPL|TSLA|NVDA|AMZN|META|NFLX)\b`)

	financeKeywords = []string{
		"stock", "stocks", "ticker", "share price", "shares", "market cap",
		"earnings", "revenue", "valuation", "dividend", "invest", "investment",
		"fundamentals", "ipo", "nasdaq", "portfolio",
	}

	academicKeywords = []string{
		"theory", "theorem", "algorithm", "paper", "research", "literature",
		"compare and contrast", "methodology", "hypothesis", "machine learning",
		"neural", "statistical", "proof", "framework", "survey",
	}
)

// Classify buckets a query into an archetype from surface features alone, so
// the same query always plans the same way. Financial wins over academic when
// both match.
func Classify(query string) Archetype {
	lower := strings.ToLower(query)

	financial := tickerPattern.MatchString(query)
	if !financial {
		for _, kw := range financeKeywords {
			if strings.Contains(lower, kw) {
				financial = true
				break
			}
		}
	}
	if financial {
		return ArchetypeFinancial
	}

	for _, kw := range academicKeywords {
		if strings.Contains(lower, kw) {
			return ArchetypeAcademic
		}
	}
	return ArchetypeGeneric
}

// Planner turns a query into an ordered task list. Financial and academic
// queries plan through the model with a canned fallback; generic queries get
// a fixed single-task plan without a model call.
type Planner struct {
	financial model.Completer
	academic  model.Completer
	log       zerolog.Logger
}

func NewPlanner(financial, academic model.Completer, log zerolog.Logger) *Planner {
	return &Planner{
		financial: financial,
		academic:  academic,
		log:       log.With().Str(logger.ComponentField, "planner").Logger(),
	}
}

// Plan never returns an empty list; on model failure or an unparseable answer
// it falls back to the archetype's canned plan.
func (p *Planner) Plan(ctx context.Context, query string) (Archetype, []Task) {
	archetype := Classify(query)

	if archetype == ArchetypeGeneric {
		return archetype, buildTasks(fallbackPlans[ArchetypeGeneric])
	}

	completer := p.financial
	if archetype == ArchetypeAcademic {
		completer = p.academic
	}

	text, err := completer.Complete(ctx, map[string]any{"Query": query})
	if err != nil {
		p.log.Warn().Err(err).Str("archetype", string(archetype)).Msg("planning failed, using fallback plan")
		return archetype, buildTasks(fallbackPlans[archetype])
	}

	lines := parseTaskLines(text)
	if len(lines) == 0 {
		p.log.Warn().Str("archetype", string(archetype)).Msg("no tasks parsed from plan, using fallback plan")
		return archetype, buildTasks(fallbackPlans[archetype])
	}
	if archetype == ArchetypeFinancial && !mentionsMarketData(lines) {
		lines = append([]string{fallbackPlans[ArchetypeFinancial][0]}, lines...)
	}
	return archetype, buildTasks(lines)
}

var fallbackPlans = map[Archetype][]string{
	ArchetypeFinancial: {
		"Look up market data and fundamentals for each mentioned company",
		"Search for recent major news and market developments",
		"Analyze competitive position and outlook",
	},
	ArchetypeAcademic: {
		"Query the knowledge base for relevant theory and methods",
		"Search the web for related papers and recent research",
		"Compare the concepts and summarize strengths and weaknesses",
	},
	ArchetypeGeneric: {
		"Research the question and gather enough material to answer it",
	},
}

const maxPlannedTasks = 6

var taskLinePrefix = regexp.MustCompile(`^[\s\d.\-*•)]+`)

func parseTaskLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(taskLinePrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxPlannedTasks {
			break
		}
	}
	return out
}

func mentionsMarketData(lines []string) bool {
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "stock") ||
			strings.Contains(lower, "fundamental") ||
			strings.Contains(lower, "market data") {
			return true
		}
	}
	return false
}

func buildTasks(descriptions []string) []Task {
	tasks := make([]Task, len(descriptions))
	for i, desc := range descriptions {
		tasks[i] = Task{
			ID:          uuid.NewString(),
			Description: desc,
			Status:      TaskPending,
			Ordinal:     i + 1,
		}
	}
	return tasks
}
