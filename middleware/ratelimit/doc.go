// Package ratelimit fornece o adapter HTTP (net/http) do rate limit por rota
// e método com lockout.
//
// Visão geral (camadas):
//
//   - domain: regras, chaves, matching e contratos (sem dependência de net/http)
//   - application: Registry, Engine (admit/reject + retry-after) e RegisterEndpoints
//   - infra: KVStore em memória e Redis, sinks de estatística
//   - ratelimit (este pacote): middleware HTTP + extração de rota/método + tradução para status/headers
//
// Fluxo no gateway:
//
//   1) Extrai path (opcionalmente sem prefixo) e método da requisição
//   2) Chama o Engine para obter o Verdict
//   3) Se bloqueado, responde 429 com Retry-After
//   4) Se permitido, chama o próximo handler (ex: reverse proxy)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como RATE_RULES_FILE, RATE_STORE, RATE_REDIS_ADDR e RATE_FAIL_OPEN.
package ratelimit
