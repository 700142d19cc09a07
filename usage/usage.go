// Package usage conta os desfechos das requisições para o operador
// (quantos endpoints criados, quantas gerações, quantos 429, ...).
//
// A gravação é best-effort: quem chama registra e segue, um erro aqui nunca
// derruba a requisição.
package usage

import (
	"context"
	"time"
)

type Outcome string

const (
	Created       Outcome = "created"
	Deleted       Outcome = "deleted"
	Inspected     Outcome = "inspected"
	Generated     Outcome = "generated"
	NotFound      Outcome = "not_found"
	Invalid       Outcome = "invalid"
	OverPotential Outcome = "over_potential"
	RateLimited   Outcome = "rate_limited"
	Upstream      Outcome = "upstream_error"
	Unavailable   Outcome = "unavailable"
	Internal      Outcome = "internal_error"
)

// Event é um desfecho de requisição. Route é o padrão da rota ("GET /{id}"),
// nunca o path concreto, para não explodir a cardinalidade.
type Event struct {
	Route   string
	Outcome Outcome
	At      time.Time
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Reader expõe os totais acumulados (usado pelo /healthz).
type Reader interface {
	Totals(ctx context.Context) (map[Outcome]int64, error)
}

// Nop descarta tudo (STATS_BACKEND=none).
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

func (Nop) Totals(context.Context) (map[Outcome]int64, error) {
	return map[Outcome]int64{}, nil
}
