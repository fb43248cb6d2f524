package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"go-deepagent/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  Archetype
	}{
		{"Compare MSFT and GOOGL as long term investments", ArchetypeFinancial},
		{"what is the share price outlook for tesla", ArchetypeFinancial},
		{"compare and contrast transformers and RNNs", ArchetypeAcademic},
		{"explain the theory behind gradient descent", ArchetypeAcademic},
		{"what is the best pizza in Naples", ArchetypeGeneric},
		{"is NVDA stock research worth a paper", ArchetypeFinancial},
	}
	for _, tt := range tests {
		if got := Classify(tt.query); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestPlanGenericSkipsModel(t *testing.T) {
	financial := model.NewScripted()
	academic := model.NewScripted()
	p := NewPlanner(financial, academic, zerolog.Nop())

	archetype, tasks := p.Plan(context.Background(), "what is the best pizza in Naples")
	if archetype != ArchetypeGeneric {
		t.Fatalf("archetype = %s", archetype)
	}
	if len(tasks) != 1 {
		t.Fatalf("generic plan should have one task, got %d", len(tasks))
	}
	if len(financial.Calls())+len(academic.Calls()) != 0 {
		t.Error("generic planning must not call the model")
	}
	if tasks[0].Status != TaskPending || tasks[0].Ordinal != 1 || tasks[0].ID == "" {
		t.Errorf("task not initialized: %+v", tasks[0])
	}
}

func TestPlanParsesModelList(t *testing.T) {
	financial := model.NewScripted(model.ScriptedResponse{Text: `
1. Look up fundamentals and stock data for MSFT
2. Search recent news about MSFT
3. Analyze the competitive position
`})
	p := NewPlanner(financial, model.NewScripted(), zerolog.Nop())

	archetype, tasks := p.Plan(context.Background(), "should I buy MSFT stock")
	if archetype != ArchetypeFinancial {
		t.Fatalf("archetype = %s", archetype)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	if tasks[0].Description != "Look up fundamentals and stock data for MSFT" {
		t.Errorf("first task = %q", tasks[0].Description)
	}
	for i, task := range tasks {
		if task.Ordinal != i+1 {
			t.Errorf("task[%d].Ordinal = %d", i, task.Ordinal)
		}
	}
}

func TestPlanFinancialAlwaysIncludesMarketData(t *testing.T) {
	financial := model.NewScripted(model.ScriptedResponse{Text: `
1. Search recent news
2. Analyze sentiment
`})
	p := NewPlanner(financial, model.NewScripted(), zerolog.Nop())

	_, tasks := p.Plan(context.Background(), "is AAPL a buy")
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want market data task prepended", len(tasks))
	}
	if !mentionsMarketData([]string{tasks[0].Description}) {
		t.Errorf("first task should cover market data: %q", tasks[0].Description)
	}
}

func TestPlanFallsBackOnModelFailure(t *testing.T) {
	financial := model.NewScripted(model.ScriptedResponse{Err: errors.New("backend down")})
	p := NewPlanner(financial, model.NewScripted(), zerolog.Nop())

	archetype, tasks := p.Plan(context.Background(), "should I buy MSFT stock")
	if archetype != ArchetypeFinancial {
		t.Fatalf("archetype = %s", archetype)
	}
	if len(tasks) != len(fallbackPlans[ArchetypeFinancial]) {
		t.Fatalf("expected fallback plan, got %d tasks", len(tasks))
	}
}

func TestPlanFallsBackOnEmptyAnswer(t *testing.T) {
	academic := model.NewScripted(model.ScriptedResponse{Text: "   \n  "})
	p := NewPlanner(model.NewScripted(), academic, zerolog.Nop())

	_, tasks := p.Plan(context.Background(), "explain the theory of computation")
	if len(tasks) != len(fallbackPlans[ArchetypeAcademic]) {
		t.Fatalf("expected fallback plan, got %d tasks", len(tasks))
	}
}

func TestParseTaskLinesCapsCount(t *testing.T) {
	text := "1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g\n8. h"
	lines := parseTaskLines(text)
	if len(lines) != maxPlannedTasks {
		t.Errorf("got %d lines, want %d", len(lines), maxPlannedTasks)
	}
}
