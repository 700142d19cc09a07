package usage

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryRecorder_CountsTotalsAndRoutes(t *testing.T) {
	m := NewMemoryRecorder()
	ctx := context.Background()

	_ = m.Record(ctx, Event{Route: "POST /config", Outcome: Created})
	_ = m.Record(ctx, Event{Route: "POST /config", Outcome: Invalid})
	_ = m.Record(ctx, Event{Route: "GET /{id}", Outcome: Generated})
	_ = m.Record(ctx, Event{Route: "GET /{id}", Outcome: Generated})
	_ = m.Record(ctx, Event{Outcome: NotFound})

	totals, err := m.Totals(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals[Generated] != 2 || totals[Created] != 1 || totals[Invalid] != 1 || totals[NotFound] != 1 {
		t.Fatalf("unexpected totals %v", totals)
	}

	routes := m.ByRoute()
	if routes["GET /{id}"][Generated] != 2 {
		t.Fatalf("unexpected route counters %v", routes)
	}
	if _, ok := routes[""]; ok {
		t.Fatalf("events without route must not create a route entry")
	}
}

func TestMemoryRecorder_TotalsIsACopy(t *testing.T) {
	m := NewMemoryRecorder()
	ctx := context.Background()
	_ = m.Record(ctx, Event{Outcome: Created})

	totals, _ := m.Totals(ctx)
	totals[Created] = 100

	again, _ := m.Totals(ctx)
	if again[Created] != 1 {
		t.Fatalf("expected internal state untouched, got %d", again[Created])
	}
}

func TestMemoryRecorder_Concurrent(t *testing.T) {
	m := NewMemoryRecorder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Record(ctx, Event{Route: "GET /{id}", Outcome: RateLimited})
		}()
	}
	wg.Wait()

	totals, _ := m.Totals(ctx)
	if totals[RateLimited] != 100 {
		t.Fatalf("expected 100, got %d", totals[RateLimited])
	}
}

func TestNop(t *testing.T) {
	var n Nop
	if err := n.Record(context.Background(), Event{Outcome: Created}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totals, err := n.Totals(context.Background())
	if err != nil || len(totals) != 0 {
		t.Fatalf("expected empty totals, got %v %v", totals, err)
	}
}
