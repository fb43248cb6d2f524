package config

import (
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = -1
	cfg.Workflow.MaxIterations = 0
	cfg.Guard.Threshold = 2

	errs := cfg.Validate()
	if len(errs) < 3 {
		t.Fatalf("got %d problems, want at least 3: %v", len(errs), errs)
	}
}

func TestValidateWorkflowBudgetCoversResearchOverhead(t *testing.T) {
	tests := []struct {
		name     string
		workflow int
		research int
		valid    bool
	}{
		{"defaults have headroom", 25, 20, true},
		{"exactly enough headroom", 25, 22, true},
		{"one step short", 25, 23, false},
		{"equal budgets", 25, 25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Workflow.MaxIterations = tt.workflow
			cfg.Research.MaxIterations = tt.research

			errs := cfg.Validate()
			if tt.valid && len(errs) != 0 {
				t.Fatalf("unexpected problems: %v", errs)
			}
			if !tt.valid && len(errs) != 1 {
				t.Fatalf("got %v, want one budget problem", errs)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.Model.Timeout().Seconds() != float64(cfg.Model.TimeoutSeconds) {
		t.Error("model timeout helper mismatch")
	}
	if cfg.Tools.Timeout().Seconds() != float64(cfg.Tools.TimeoutSeconds) {
		t.Error("tools timeout helper mismatch")
	}
	if cfg.Server.ShutdownTimeout().Seconds() != float64(cfg.Server.ShutdownTimeoutSeconds) {
		t.Error("shutdown timeout helper mismatch")
	}
}
