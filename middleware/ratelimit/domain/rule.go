package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Nomes dos campos aceitos em RuleArgs.
const (
	FieldRoute            = "route"
	FieldMethod           = "method"
	FieldWindow           = "window"
	FieldLimit            = "limit"
	FieldLockout          = "lockout"
	FieldTreatHeadLikeGet = "treat_head_like_get"
)

// MethodAny é o pseudo-método que casa com qualquer método HTTP.
const MethodAny = "any"

// DefaultMethods é a enumeração usada quando o framework HTTP não informa
// uma lista própria. HEAD é sempre aceito, mesmo que o framework não o liste.
var DefaultMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"}

// ErrInvalidRule indica que um candidato a regra falhou na validação.
var ErrInvalidRule = errors.New("invalid rule")

// RuleArgs é a forma "crua" de uma regra, como chega de YAML/JSON ou de código.
//
// Campos obrigatórios: route, window, limit, lockout. method e
// treat_head_like_get recebem defaults em ApplyDefaults.
type RuleArgs map[string]any

// Rule é uma regra já validada e tipada.
type Rule struct {
	// Route é uma regex ancorada (^...$) e case-insensitive contra o path.
	// O conteúdo não é validado.
	Route string `json:"route"`
	// Method é "any" ou uma lista separada por vírgula de métodos concretos,
	// sempre em maiúsculas e sem espaços.
	Method string `json:"method"`
	// Window, Limit e Lockout são estritamente positivos. Window e Lockout em segundos.
	Window  float64 `json:"window"`
	Limit   float64 `json:"limit"`
	Lockout float64 `json:"lockout"`

	TreatHeadLikeGet bool `json:"treat_head_like_get"`
}

// ApplyDefaults devolve uma cópia de args com method=any e
// treat_head_like_get=true quando ausentes. Valores presentes (inclusive nil)
// são mantidos.
func ApplyDefaults(args RuleArgs) RuleArgs {
	out := make(RuleArgs, len(args)+2)
	out[FieldMethod] = MethodAny
	out[FieldTreatHeadLikeGet] = true
	for k, v := range args {
		out[k] = v
	}
	return out
}

// ValidateRule verifica, na ordem, route, method, window, limit, lockout e
// treat_head_like_get. A primeira falha encerra a validação.
//
// methods é a enumeração de métodos do framework; nil usa DefaultMethods.
func ValidateRule(args RuleArgs, methods []string) (Rule, error) {
	var r Rule

	route, ok := args[FieldRoute].(string)
	if !ok || route == "" {
		return Rule{}, invalid(FieldRoute, "required string")
	}
	r.Route = route

	rawMethod, ok := args[FieldMethod].(string)
	if !ok {
		return Rule{}, invalid(FieldMethod, "required string")
	}
	method, ok := canonicalMethod(rawMethod, methods)
	if !ok {
		return Rule{}, invalid(FieldMethod, fmt.Sprintf("unsupported method %q", rawMethod))
	}
	r.Method = method

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{FieldWindow, &r.Window},
		{FieldLimit, &r.Limit},
		{FieldLockout, &r.Lockout},
	} {
		v, ok := args[f.name]
		if !ok || v == nil {
			return Rule{}, invalid(f.name, "required")
		}
		n, ok := toPositive(v)
		if !ok {
			return Rule{}, invalid(f.name, "must be a number > 0")
		}
		*f.dst = n
	}

	b, ok := args[FieldTreatHeadLikeGet].(bool)
	if !ok {
		return Rule{}, invalid(FieldTreatHeadLikeGet, "must be a boolean")
	}
	r.TreatHeadLikeGet = b

	return r, nil
}

// KnownMethod informa se m (qualquer caixa) faz parte da enumeração;
// lista vazia usa DefaultMethods. HEAD é sempre conhecido.
func KnownMethod(m string, methods []string) bool {
	if len(methods) == 0 {
		methods = DefaultMethods
	}
	return supported(strings.ToUpper(strings.TrimSpace(m)), methods)
}

// IsValidRule é a forma booleana de ValidateRule.
func IsValidRule(args RuleArgs, methods []string) bool {
	_, err := ValidateRule(args, methods)
	return err == nil
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRule, field, reason)
}

// canonicalMethod normaliza "get, post" para "GET,POST". "any" não pode ser
// combinado com métodos concretos.
func canonicalMethod(raw string, methods []string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, MethodAny) {
		return MethodAny, true
	}
	if raw == "" {
		return "", false
	}
	if len(methods) == 0 {
		methods = DefaultMethods
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		m := strings.ToUpper(strings.TrimSpace(p))
		if m == "" || !supported(m, methods) {
			return "", false
		}
		out = append(out, m)
	}
	return strings.Join(out, ","), true
}

func supported(m string, methods []string) bool {
	if m == "HEAD" {
		return true
	}
	for _, s := range methods {
		if strings.EqualFold(s, m) {
			return true
		}
	}
	return false
}

func toPositive(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}
