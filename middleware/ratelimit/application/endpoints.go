package application

import (
	"strings"

	"lockout-gateway/middleware/ratelimit/domain"
)

// RegisterEndpoints transforma rotas estáticas com regra embutida em regras
// do registry.
//
// A rota do endpoint sobrescreve "route" da regra; os métodos viram uma
// lista separada por vírgula, ou "any" quando o endpoint aceita qualquer
// método. Endpoints sem regra são ignorados. Retorna quantas regras entraram.
func RegisterEndpoints(reg *Registry, endpoints []domain.Endpoint) int {
	n := 0
	for _, ep := range endpoints {
		if ep.Rule == nil {
			continue
		}
		args := make(domain.RuleArgs, len(ep.Rule)+2)
		for k, v := range ep.Rule {
			args[k] = v
		}
		args[domain.FieldRoute] = ep.Route
		args[domain.FieldMethod] = joinMethods(ep.Methods)

		if reg.Add(args) {
			n++
		}
	}
	return n
}

func joinMethods(methods []string) string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return domain.MethodAny
	}
	return strings.Join(out, ",")
}
