package usage

import (
	"context"
	"sync"
)

// MemoryRecorder guarda os contadores no processo. Sem expiração.
type MemoryRecorder struct {
	mu      sync.Mutex
	total   map[Outcome]int64
	byRoute map[string]map[Outcome]int64
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		total:   make(map[Outcome]int64),
		byRoute: make(map[string]map[Outcome]int64),
	}
}

func (m *MemoryRecorder) Record(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total[ev.Outcome]++
	if ev.Route == "" {
		return nil
	}
	r, ok := m.byRoute[ev.Route]
	if !ok {
		r = make(map[Outcome]int64)
		m.byRoute[ev.Route] = r
	}
	r[ev.Outcome]++
	return nil
}

func (m *MemoryRecorder) Totals(context.Context) (map[Outcome]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[Outcome]int64, len(m.total))
	for k, v := range m.total {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryRecorder) ByRoute() map[string]map[Outcome]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]map[Outcome]int64, len(m.byRoute))
	for route, counts := range m.byRoute {
		c := make(map[Outcome]int64, len(counts))
		for k, v := range counts {
			c[k] = v
		}
		out[route] = c
	}
	return out
}
