package infra

import (
	"context"

	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
)

// slotPool é um semáforo baseado em channel.
type slotPool struct {
	sem chan struct{}
}

// NewSlotPool cria um pool com capacidade `max`.
func NewSlotPool(max int) domain.SlotPool {
	return &slotPool{sem: make(chan struct{}, max)}
}

func (p *slotPool) Acquire(ctx context.Context) (func(), bool) {
	// ctx já encerrado perde mesmo havendo vaga (select escolheria ao acaso)
	if ctx.Err() != nil {
		return nil, false
	}
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
