package ratelimit

import (
	"encoding/json"
	"net/http"

	"lockout-gateway/middleware/ratelimit/application"
)

// RuleLister é o registry visto pelo handler administrativo.
type RuleLister interface {
	Rules() []application.RegisteredRule
}

// RulesHandler lista as regras registradas em JSON (somente leitura).
func RulesHandler(reg RuleLister) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		rules := reg.Rules()
		if rules == nil {
			rules = []application.RegisteredRule{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Rule-Count", formatInt(len(rules)))
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(rules)
	})
}
