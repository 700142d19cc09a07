package infra

import (
	"time"

	"github.com/isaacronan/poorbox-service/internal/expiring"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
)

// WindowStore é um contador de janela fixa por chave.
//
// A primeira chamada de uma chave abre a janela e agenda a limpeza do contador
// para daqui a `window`. Enquanto a janela existir, chamadas com count >= limit
// são rejeitadas (e não incrementam). Rajadas na virada da janela são
// subcontadas; é uma aproximação, não um log deslizante.
//
// O estado é só em memória e pode ser perdido num restart.
type WindowStore struct {
	limit  int
	window time.Duration
	counts *expiring.Map[domain.Key, int]
}

type WindowOption func(*windowConfig)

type windowConfig struct {
	onReset func(domain.Key, int)
}

// WithOnReset recebe a chave e o total contado quando a janela dela termina.
func WithOnReset(fn func(key domain.Key, count int)) WindowOption {
	return func(c *windowConfig) { c.onReset = fn }
}

func NewWindowStore(limit int, window time.Duration, opts ...WindowOption) *WindowStore {
	cfg := windowConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var mopts []expiring.Option[domain.Key, int]
	if cfg.onReset != nil {
		mopts = append(mopts, expiring.WithOnExpire(cfg.onReset))
	}
	return &WindowStore{
		limit:  limit,
		window: window,
		counts: expiring.New(mopts...),
	}
}

func (s *WindowStore) Limit() int            { return s.limit }
func (s *WindowStore) Window() time.Duration { return s.window }

// Admit implementa domain.LimiterStore.
func (s *WindowStore) Admit(key domain.Key) (bool, time.Duration) {
	allowed := false
	_, resetAt := s.counts.Update(key, s.window, func(n int, _ bool) int {
		if n >= s.limit {
			return n
		}
		allowed = true
		return n + 1
	})
	return allowed, max(time.Until(resetAt), 0)
}

// Count devolve o contador atual da chave (0 se não há janela aberta).
func (s *WindowStore) Count(key domain.Key) int {
	n, _, _ := s.counts.Get(key)
	return n
}

// Close cancela os timers pendentes.
func (s *WindowStore) Close() { s.counts.Close() }
