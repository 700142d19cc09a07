package endpoint

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isaacronan/poorbox-service/schema"
)

type storeFactory func(t *testing.T, opts ...Option) Store

var numberSchema = schema.Number{Min: 1, Max: 1, Scale: 0}

// runStoreContract roda as mesmas verificações contra qualquer backend.
// ttl deve ser >= 1s para que a expiração em segundos inteiros seja observável.
func runStoreContract(t *testing.T, newStore storeFactory, ttl time.Duration) {
	ctx := context.Background()

	t.Run("get after create reports full ttl", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl))
		created, err := s.Create(ctx, numberSchema)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if len(created.ID) != 8 {
			t.Fatalf("expected 8-char id, got %q", created.ID)
		}
		if got, want := created.Expiration(), Seconds(ttl); got != want {
			t.Fatalf("expected expiration %d on create, got %d", want, got)
		}

		got, err := s.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Expiration() != Seconds(ttl) {
			t.Fatalf("expected full ttl after get, got %d", got.Expiration())
		}
		n, ok := got.Schema.(schema.Number)
		if !ok || n != numberSchema {
			t.Fatalf("expected stored number schema, got %#v", got.Schema)
		}
	})

	t.Run("expires without refresh", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl))
		created, err := s.Create(ctx, numberSchema)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		time.Sleep(ttl + 300*time.Millisecond)
		if _, err := s.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after ttl, got %v", err)
		}
	})

	t.Run("get slides expiry", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl))
		created, err := s.Create(ctx, numberSchema)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		step := ttl * 6 / 10
		for i := 0; i < 2; i++ {
			time.Sleep(step)
			if _, err := s.Get(ctx, created.ID); err != nil {
				t.Fatalf("expected entry alive at step %d, got %v", i, err)
			}
		}
	})

	t.Run("peek does not refresh", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl))
		created, err := s.Create(ctx, numberSchema)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		time.Sleep(ttl * 6 / 10)
		peeked, err := s.Peek(ctx, created.ID)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if peeked.ExpiresAt.After(created.ExpiresAt.Add(50 * time.Millisecond)) {
			t.Fatalf("peek moved expiry: %v -> %v", created.ExpiresAt, peeked.ExpiresAt)
		}
		time.Sleep(ttl*6/10 + 200*time.Millisecond)
		if _, err := s.Peek(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected entry to expire despite peeks, got %v", err)
		}
	})

	t.Run("delete then get", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl))
		created, err := s.Create(ctx, numberSchema)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		deleted, err := s.Delete(ctx, created.ID)
		if err != nil || !deleted {
			t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
		}
		if _, err := s.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		deleted, err = s.Delete(ctx, created.ID)
		if err != nil || deleted {
			t.Fatalf("expected second delete to report not found, got %v %v", deleted, err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl))
		if _, err := s.Get(ctx, "deadbeef"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.Peek(ctx, "deadbeef"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on peek, got %v", err)
		}
		if deleted, err := s.Delete(ctx, "deadbeef"); err != nil || deleted {
			t.Fatalf("expected not found, got %v %v", deleted, err)
		}
	})

	t.Run("concurrent creates get unique ids", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl))
		const n = 50
		ids := make(chan string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e, err := s.Create(ctx, numberSchema)
				if err != nil {
					t.Errorf("create: %v", err)
					return
				}
				ids <- e.ID
			}()
		}
		wg.Wait()
		close(ids)

		seen := map[string]bool{}
		for id := range ids {
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	})

	t.Run("collision retries with next id", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl), WithIDFunc(sequence("aaaaaaaa", "aaaaaaaa", "bbbbbbbb")))
		first, err := s.Create(ctx, numberSchema)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		second, err := s.Create(ctx, numberSchema)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if first.ID != "aaaaaaaa" || second.ID != "bbbbbbbb" {
			t.Fatalf("unexpected ids %s %s", first.ID, second.ID)
		}
	})

	t.Run("id space exhausted", func(t *testing.T) {
		s := newStore(t, WithTTL(ttl), WithIDFunc(func() (string, error) { return "cccccccc", nil }))
		if _, err := s.Create(ctx, numberSchema); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := s.Create(ctx, numberSchema); !errors.Is(err, ErrIDSpaceExhausted) {
			t.Fatalf("expected ErrIDSpaceExhausted, got %v", err)
		}
	})
}

// sequence devolve os ids na ordem e repete o último.
func sequence(ids ...string) IDFunc {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		id := ids[min(i, len(ids)-1)]
		i++
		return id, nil
	}
}
