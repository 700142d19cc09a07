package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

type Key string

// LimiterStore decide, por chave (IP, API key...), se a chamada atual é admitida.
//
// resetIn é quanto falta para a janela da chave terminar; serve para Retry-After.
// Implementações devem ser seguras para uso concorrente e independentes entre chaves.
type LimiterStore interface {
	Admit(Key) (allowed bool, resetIn time.Duration)
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
