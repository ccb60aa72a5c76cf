package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, r *mcp.GetPromptResult) string {
	t.Helper()
	if r == nil || len(r.Messages) == 0 {
		t.Fatal("expected at least one message")
	}
	tc, ok := r.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", r.Messages[0].Content)
	}
	return tc.Text
}

func TestStartPrompt_Definition(t *testing.T) {
	def := NewStartPrompt(10).Definition()
	if def.Name != "ikitsuke-start" {
		t.Errorf("name = %q", def.Name)
	}
	if len(def.Arguments) != 2 {
		t.Errorf("expected 2 arguments, got %d", len(def.Arguments))
	}
}

func TestStartPrompt_DefaultsToExplore(t *testing.T) {
	result, err := NewStartPrompt(10).Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, result)
	for _, want := range []string{"user_login", "location_update", "notes_seed", "within 10 km"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "recommend_start") {
		t.Error("explore mode should not start a recommendation")
	}
}

func TestStartPrompt_RecommendMode(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"user_id": "aki", "mode": "recommend"}

	result, err := NewStartPrompt(10).Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, result)
	if !strings.Contains(text, "password of 'aki'") {
		t.Errorf("user id not used:\n%s", text)
	}
	if !strings.Contains(text, "recommend_say") {
		t.Errorf("recommend flow missing:\n%s", text)
	}
}

func TestStartPrompt_QuotesGateRadius(t *testing.T) {
	result, err := NewStartPrompt(2.5).Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, result)
	if !strings.Contains(text, "within 2.5 km") {
		t.Errorf("expected configured radius in:\n%s", text)
	}
	if strings.Contains(text, "10 km") {
		t.Error("default radius leaked into a prompt configured for 2.5 km")
	}
}

func TestNearbyPrompt(t *testing.T) {
	p := NewNearbyPrompt()
	if p.Definition().Name != "ikitsuke-nearby" {
		t.Errorf("name = %q", p.Definition().Name)
	}
	result, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, result); !strings.Contains(text, "notes_nearby") {
		t.Errorf("missing notes_nearby:\n%s", text)
	}
}
