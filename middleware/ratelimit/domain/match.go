package domain

import (
	"regexp"
	"strings"
)

// MatchMethod decide se o método da requisição satisfaz o método da regra.
//
// Com TreatHeadLikeGet, HEAD é comparado como GET.
func MatchMethod(method string, r Rule) bool {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "HEAD" && r.TreatHeadLikeGet {
		method = "GET"
	}
	if r.Method == MethodAny || r.Method == method {
		return true
	}
	for _, m := range strings.Split(r.Method, ",") {
		if m == method {
			return true
		}
	}
	return false
}

// Route é o padrão de rota de uma regra já compilado.
//
// Um padrão inválido gera uma Route que nunca casa; Err informa o motivo.
type Route struct {
	pattern string
	re      *regexp.Regexp
	err     error
}

// CompileRoute compila o padrão como (?i)^(?:pattern)$.
//
// O padrão é compilado sozinho antes: parênteses desbalanceados como
// "/a)|(/b" fechariam o grupo do wrapper e produziriam uma regex válida
// sem âncoras.
func CompileRoute(pattern string) Route {
	if _, err := regexp.Compile(pattern); err != nil {
		return Route{pattern: pattern, err: err}
	}
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
	if err != nil {
		return Route{pattern: pattern, err: err}
	}
	return Route{pattern: pattern, re: re}
}

func (r Route) Pattern() string { return r.pattern }

func (r Route) Err() error { return r.err }

func (r Route) Match(path string) bool {
	if r.re == nil {
		return false
	}
	return r.re.MatchString(path)
}
