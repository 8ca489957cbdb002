package ratelimit

import (
	"encoding/json"
	"net/http"
	"testing"

	"lockout-gateway/middleware/ratelimit/application"
	"lockout-gateway/middleware/ratelimit/domain"
)

func TestRulesHandler_ListsRegisteredRules(t *testing.T) {
	reg := application.NewRegistry()
	reg.AddAll(
		domain.RuleArgs{"route": "/posts", "window": 5, "limit": 2, "lockout": 30, "method": "GET"},
		domain.RuleArgs{"route": "/pages", "window": 5, "limit": 2, "lockout": 30},
	)

	w := do(RulesHandler(reg), http.MethodGet, "http://admin/rules")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Rule-Count"); got != "2" {
		t.Fatalf("expected X-Rule-Count=2, got %q", got)
	}

	var out []struct {
		Key  string      `json:"key"`
		Rule domain.Rule `json:"rule"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out) != 2 || out[0].Rule.Method != "GET" || out[1].Rule.Method != "any" {
		t.Fatalf("unexpected rules %+v", out)
	}
	if out[0].Key != string(reg.Rules()[0].Key) {
		t.Fatalf("expected key %s, got %s", reg.Rules()[0].Key, out[0].Key)
	}
}

func TestRulesHandler_EmptyRegistryIsEmptyList(t *testing.T) {
	w := do(RulesHandler(application.NewRegistry()), http.MethodGet, "http://admin/rules")
	if body := w.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON list, got %q", body)
	}
}

func TestRulesHandler_RejectsWrites(t *testing.T) {
	w := do(RulesHandler(application.NewRegistry()), http.MethodPost, "http://admin/rules")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
