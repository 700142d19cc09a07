package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
)

// ConcurrencyService limita as gerações em andamento (chamadas ao gerador externo)
// e conta quantas estão abertas, sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration

	inFlight atomic.Int64
}

// Acquire tenta adquirir uma vaga.
// - Se `AcquireTimeout <= 0`, espera até o ctx cancelar.
// - Se `AcquireTimeout > 0`, espera no máximo esse tempo.
// Se ok=false, nenhuma vaga foi adquirida e não há release a chamar.
func (s *ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	release := func() {}
	if s.Pool != nil {
		acqCtx := ctx
		if s.AcquireTimeout > 0 {
			var cancel context.CancelFunc
			acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
			defer cancel()
		}
		r, ok := s.Pool.Acquire(acqCtx)
		if !ok {
			return nil, false
		}
		release = r
	}

	s.inFlight.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.inFlight.Add(-1)
			release()
		})
	}, true
}

// InFlight devolve quantas vagas estão ocupadas agora.
func (s *ConcurrencyService) InFlight() int64 { return s.inFlight.Load() }
