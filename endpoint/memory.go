package endpoint

import (
	"context"
	"log/slog"
	"time"

	"github.com/isaacronan/poorbox-service/internal/expiring"
	"github.com/isaacronan/poorbox-service/schema"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore mantém as entradas no processo. Cada entrada tem seu timer de
// expiração, cancelado e reagendado a cada Get, cancelado no Delete.
type MemoryStore struct {
	ttl     time.Duration
	ids     IDFunc
	entries *expiring.Map[string, schema.Schema]
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	log := o.logger
	return &MemoryStore{
		ttl: o.ttl,
		ids: o.ids,
		entries: expiring.New(expiring.WithOnExpire(func(id string, _ schema.Schema) {
			log.Debug("endpoint expired", slog.String("id", id))
		})),
	}
}

func (s *MemoryStore) TTL() time.Duration { return s.ttl }

func (s *MemoryStore) Create(ctx context.Context, sch schema.Schema) (Entry, error) {
	var expiresAt time.Time
	id, err := createWith(ctx, s.ids, func(id string) (bool, error) {
		exp, ok := s.entries.Insert(id, sch, s.ttl)
		expiresAt = exp
		return ok, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Schema: sch, ExpiresAt: expiresAt}, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	sch, exp, ok := s.entries.Touch(id, s.ttl)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{ID: id, Schema: sch, ExpiresAt: exp}, nil
}

func (s *MemoryStore) Peek(_ context.Context, id string) (Entry, error) {
	sch, exp, ok := s.entries.Get(id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{ID: id, Schema: sch, ExpiresAt: exp}, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	return s.entries.Delete(id), nil
}

// Len devolve quantas entradas estão vivas.
func (s *MemoryStore) Len() int { return s.entries.Len() }

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close cancela todos os timers pendentes.
func (s *MemoryStore) Close() error {
	s.entries.Close()
	return nil
}
