// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryKV: KVStore em memória com TTL e janitor
//   - RedisKV: KVStore sobre github.com/redis/go-redis/v9
//   - MemoryStatsStore / RedisStatsStore / PrometheusStats: estatísticas das decisões
package infra
