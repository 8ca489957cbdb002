package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lockout-gateway/middleware/ratelimit/application"
	"lockout-gateway/middleware/ratelimit/domain"
)

// rulesFile é o formato de RATE_RULES_FILE:
//
//	methods: [GET, POST, PUT, PATCH, DELETE, OPTIONS]
//	rules:
//	  - route: /wp/v2/posts
//	    window: 5
//	    limit: 2
//	    lockout: 30
//	endpoints:
//	  - route: /wp/v2/users/(?P<id>[\d]+)
//	    methods: [GET]
//	    rule: {window: 60, limit: 10, lockout: 300}
type rulesFile struct {
	Methods   []string         `yaml:"methods"`
	Rules     []map[string]any `yaml:"rules"`
	Endpoints []struct {
		Route   string         `yaml:"route"`
		Methods []string       `yaml:"methods"`
		Rule    map[string]any `yaml:"rule"`
	} `yaml:"endpoints"`
}

func parseRules(data []byte) (rulesFile, error) {
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return rulesFile{}, fmt.Errorf("parse rules yaml: %w", err)
	}
	return rf, nil
}

func loadRules(path string) (rulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rulesFile{}, fmt.Errorf("read rules file: %w", err)
	}
	return parseRules(data)
}

// register envia regras e endpoints para o registry; inválidas são ignoradas.
func (rf rulesFile) register(reg *application.Registry) (rules, endpoints int) {
	args := make([]domain.RuleArgs, 0, len(rf.Rules))
	for _, r := range rf.Rules {
		args = append(args, domain.RuleArgs(r))
	}
	rules = reg.AddAll(args...)

	eps := make([]domain.Endpoint, 0, len(rf.Endpoints))
	for _, ep := range rf.Endpoints {
		eps = append(eps, domain.Endpoint{Route: ep.Route, Methods: ep.Methods, Rule: domain.RuleArgs(ep.Rule)})
	}
	endpoints = application.RegisterEndpoints(reg, eps)
	return rules, endpoints
}
