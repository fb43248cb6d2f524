package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func echoTool(name string) Tool {
	return Tool{
		Name: name,
		Invoke: func(_ context.Context, args map[string]any) (string, error) {
			q, _ := args["q"].(string)
			return name + ":" + q, nil
		},
	}
}

func TestInvokeAllPreservesRequestOrder(t *testing.T) {
	registry := NewRegistry(echoTool("a"), echoTool("b"), echoTool("c"))
	inv := NewInvoker(registry, time.Second, zerolog.Nop())

	outcomes := inv.InvokeAll(context.Background(), []Request{
		{Tool: "a", Args: map[string]any{"q": "1"}},
		{Tool: "b", Args: map[string]any{"q": "2"}},
		{Tool: "c", Args: map[string]any{"q": "3"}},
	})

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for i, want := range []string{"a:1", "b:2", "c:3"} {
		if outcomes[i].Result != want {
			t.Errorf("outcome[%d] = %q, want %q", i, outcomes[i].Result, want)
		}
		if outcomes[i].ID == "" {
			t.Errorf("outcome[%d] has no record id", i)
		}
	}
}

func TestInvokeAllTimeoutDoesNotBlockBatch(t *testing.T) {
	slow := Tool{
		Name: "slow",
		Invoke: func(ctx context.Context, _ map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	registry := NewRegistry(echoTool("fast"), slow)
	inv := NewInvoker(registry, 20*time.Millisecond, zerolog.Nop())

	outcomes := inv.InvokeAll(context.Background(), []Request{
		{Tool: "fast", Args: map[string]any{"q": "x"}},
		{Tool: "slow"},
		{Tool: "fast", Args: map[string]any{"q": "y"}},
	})

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Failed() || outcomes[2].Failed() {
		t.Errorf("fast calls should succeed: %+v", outcomes)
	}
	if !outcomes[1].Failed() {
		t.Error("slow call should be recorded as failed")
	}
	if !strings.Contains(outcomes[1].Err, context.DeadlineExceeded.Error()) {
		t.Errorf("slow call error = %q, want deadline exceeded", outcomes[1].Err)
	}
}

func TestInvokeUnknownToolRecordedNotFatal(t *testing.T) {
	registry := NewRegistry(echoTool("known"))
	inv := NewInvoker(registry, time.Second, zerolog.Nop())

	outcomes := inv.InvokeAll(context.Background(), []Request{
		{Tool: "missing"},
		{Tool: "known", Args: map[string]any{"q": "ok"}},
	})

	if !outcomes[0].Failed() || !strings.Contains(outcomes[0].Err, "not registered") {
		t.Errorf("unknown tool outcome = %+v", outcomes[0])
	}
	if outcomes[1].Result != "known:ok" {
		t.Errorf("known tool should still run: %+v", outcomes[1])
	}
}

func TestInvokeToolErrorRecorded(t *testing.T) {
	failing := Tool{
		Name: "failing",
		Invoke: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("backend down")
		},
	}
	inv := NewInvoker(NewRegistry(failing), time.Second, zerolog.Nop())

	outcomes := inv.InvokeAll(context.Background(), []Request{{Tool: "failing"}})
	if !outcomes[0].Failed() || outcomes[0].Err != "backend down" {
		t.Errorf("outcome = %+v", outcomes[0])
	}
	if outcomes[0].Duration < 0 {
		t.Error("duration not measured")
	}
}

func TestRegistryDescribeStable(t *testing.T) {
	registry := NewRegistry(
		Tool{Name: "zeta", Description: "z tool", Schema: map[string]string{"q": "query"}},
		Tool{Name: "alpha", Description: "a tool"},
	)
	desc := registry.Describe()
	if !strings.Contains(desc, "- alpha: a tool") || !strings.Contains(desc, "- zeta: z tool") {
		t.Fatalf("Describe missing tools:\n%s", desc)
	}
	if strings.Index(desc, "alpha") > strings.Index(desc, "zeta") {
		t.Error("Describe not sorted by name")
	}
}
