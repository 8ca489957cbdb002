package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// RuleKey identifica uma regra: "<digest>_<method>".
//
// O digest é hex (sem '_'), então o primeiro '_' sempre separa digest e método.
type RuleKey string

const keySep = "_"

// identity é a parte da regra que entra no digest (sem o método).
// A ordem dos campos é fixa, o que torna a serialização estável.
type identity struct {
	Route            string  `json:"route"`
	Window           float64 `json:"window"`
	Limit            float64 `json:"limit"`
	Lockout          float64 `json:"lockout"`
	TreatHeadLikeGet bool    `json:"treat_head_like_get"`
}

// Fingerprint calcula a chave da regra.
func Fingerprint(r Rule) RuleKey {
	// json.Marshal de struct com tipos simples não falha.
	b, _ := json.Marshal(identity{
		Route:            r.Route,
		Window:           r.Window,
		Limit:            r.Limit,
		Lockout:          r.Lockout,
		TreatHeadLikeGet: r.TreatHeadLikeGet,
	})
	sum := sha256.Sum256(b)
	return RuleKey(hex.EncodeToString(sum[:]) + keySep + r.Method)
}

// AnyVariant troca o sufixo de método por "any".
func AnyVariant(k RuleKey) RuleKey {
	return RuleKey(k.Digest() + keySep + MethodAny)
}

// Digest é a parte da chave antes do primeiro '_'.
func (k RuleKey) Digest() string {
	d, _, _ := strings.Cut(string(k), keySep)
	return d
}

// Method é o sufixo de método da chave.
func (k RuleKey) Method() string {
	_, m, _ := strings.Cut(string(k), keySep)
	return m
}

func (k RuleKey) IsAny() bool { return k.Method() == MethodAny }
