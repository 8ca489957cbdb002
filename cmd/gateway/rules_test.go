package main

import (
	"os"
	"path/filepath"
	"testing"

	"lockout-gateway/middleware/ratelimit/application"
)

const sampleRules = `
methods: [GET, POST, PUT, PATCH, DELETE, OPTIONS]
rules:
  - route: /wp/v2/posts
    window: 5
    limit: 2
    lockout: 30
  - route: /wp/v2/posts
    window: 5
    limit: 2
    lockout: 30
    method: GET
  - route: /wp/v2/comments
    window: 10
    limit: 3
    lockout: 60
    method: OPTIONS
    treat_head_like_get: false
  - route: /broken
    window: 0
    limit: 1
    lockout: 1
endpoints:
  - route: /wp/v2/users/(?P<id>[\d]+)
    methods: [GET, POST]
    rule: {window: 60, limit: 10, lockout: 300}
  - route: /wp/v2/settings
    rule: {window: 60, limit: 1, lockout: 30}
  - route: /wp/v2/no-rule
    methods: [GET]
`

func TestParseRules_RegistersValidRulesAndEndpoints(t *testing.T) {
	rf, err := parseRules([]byte(sampleRules))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg := application.NewRegistry(application.WithMethods(rf.Methods...))
	nRules, nEndpoints := rf.register(reg)

	// a segunda regra colide com a primeira (any x GET); a última é inválida
	if nRules != 2 {
		t.Fatalf("expected 2 rules, got %d", nRules)
	}
	if nEndpoints != 2 {
		t.Fatalf("expected 2 endpoint rules, got %d", nEndpoints)
	}

	rules := reg.Rules()
	if rules[1].Rule.Method != "OPTIONS" || rules[1].Rule.TreatHeadLikeGet {
		t.Fatalf("unexpected comments rule %+v", rules[1].Rule)
	}
	if rules[2].Rule.Method != "GET,POST" || rules[2].Rule.Route != `/wp/v2/users/(?P<id>[\d]+)` {
		t.Fatalf("unexpected endpoint rule %+v", rules[2].Rule)
	}
	if rules[3].Rule.Method != "any" {
		t.Fatalf("expected endpoint without methods to be any, got %q", rules[3].Rule.Method)
	}
}

func TestLoadRules_FileErrors(t *testing.T) {
	if _, err := loadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rules: [::"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadRules(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadRules_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(sampleRules), 0o600); err != nil {
		t.Fatal(err)
	}
	rf, err := loadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rf.Rules) != 4 || len(rf.Endpoints) != 3 {
		t.Fatalf("unexpected file content %d rules %d endpoints", len(rf.Rules), len(rf.Endpoints))
	}
}
