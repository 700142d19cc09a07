// Package ratelimit fornece adapters HTTP (net/http) para rate limit por cliente e
// limite de gerações simultâneas.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa, semáforo)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no GET de dados (/{id}):
//
//  1. Extrai a chave do cliente (header/XFF/IP)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 (rate limit) ou 503 (sem vaga de geração)
//  4. Se permitido, chama o próximo handler (lookup no store + despacho ao gerador)
//
// RATE_LIMIT, RATE_WINDOW, CONCURRENCY_MAX e CONCURRENCY_TIMEOUT controlam o comportamento
// (ver internal/config).
package ratelimit
