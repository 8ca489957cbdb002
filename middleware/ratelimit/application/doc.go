// Package application contém os casos de uso do rate limit com lockout:
// Registry (registro de regras), Engine (decisão admit/reject) e
// RegisterEndpoints (regras declaradas nas rotas estáticas).
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Engine.Evaluate(ctx, path, method) retorna um Verdict (allow/deny + retry-after).
package application
