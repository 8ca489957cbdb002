// Package domain define regras, chaves e contratos do rate limit com lockout.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Validação, fingerprint e matching de método/rota são funções puras daqui;
// os casos de uso ficam em application e os stores em infra.
package domain
