package application

import (
	"time"

	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
)

// Service transforma o resultado do store em uma Decision.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.LimiterStore
	// RetryAfter é usado quando o store não informa quanto falta para a janela terminar.
	RetryAfter time.Duration
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	allowed, resetIn := s.Store.Admit(key)
	if allowed {
		return domain.Decision{Allowed: true}
	}

	retry := resetIn
	if retry <= 0 {
		retry = s.RetryAfter
	}
	if retry <= 0 {
		retry = 1 * time.Second
	}
	return domain.Decision{Allowed: false, RetryAfter: retry}
}
