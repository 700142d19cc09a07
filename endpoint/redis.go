package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/isaacronan/poorbox-service/schema"
)

var _ Store = (*RedisStore)(nil)

// RedisStore guarda cada entrada em `<prefix>:<id>` com expiração nativa.
//
//   - Create: SET NX + EX (checagem de colisão e inserção atômicas)
//   - Get:    GETEX (leitura e renovação atômicas)
//   - Peek:   GET + PTTL
//   - Delete: DEL
//
// A expiração é do próprio Redis; não há timer local.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	ids    IDFunc
	log    *slog.Logger
}

func NewRedisStore(rdb *redis.Client, opts ...Option) *RedisStore {
	o := buildOptions(opts)
	return &RedisStore{
		rdb:    rdb,
		prefix: o.prefix,
		ttl:    o.ttl,
		ids:    o.ids,
		log:    o.logger,
	}
}

func (s *RedisStore) TTL() time.Duration { return s.ttl }

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Create(ctx context.Context, sch schema.Schema) (Entry, error) {
	payload, err := json.Marshal(sch)
	if err != nil {
		return Entry{}, fmt.Errorf("encode schema: %w", err)
	}

	id, err := createWith(ctx, s.ids, func(id string) (bool, error) {
		ok, err := s.rdb.SetNX(ctx, s.key(id), payload, s.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis setnx: %w", err)
		}
		if !ok {
			s.log.Debug("endpoint id collision", slog.String("id", id))
		}
		return ok, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Schema: sch, ExpiresAt: time.Now().Add(s.ttl)}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Entry, error) {
	data, err := s.rdb.GetEx(ctx, s.key(id), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("redis getex: %w", err)
	}
	sch, err := s.decode(id, data)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Schema: sch, ExpiresAt: time.Now().Add(s.ttl)}, nil
}

func (s *RedisStore) Peek(ctx context.Context, id string) (Entry, error) {
	pipe := s.rdb.Pipeline()
	get := pipe.Get(ctx, s.key(id))
	pttl := pipe.PTTL(ctx, s.key(id))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("redis peek: %w", err)
	}

	// -2: chave sumiu entre os comandos; -1: sem expiração (não deveria acontecer)
	remaining := pttl.Val()
	switch {
	case remaining == -2:
		return Entry{}, ErrNotFound
	case remaining < 0:
		remaining = s.ttl
	}

	data, err := get.Bytes()
	if err != nil {
		return Entry{}, fmt.Errorf("redis get: %w", err)
	}
	sch, err := s.decode(id, data)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Schema: sch, ExpiresAt: time.Now().Add(remaining)}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close não fecha o client: ele pertence a quem o criou (cmd/poorbox).
func (s *RedisStore) Close() error { return nil }

func (s *RedisStore) decode(id string, data []byte) (schema.Schema, error) {
	sch, err := schema.Parse(data)
	if err != nil {
		// %v: um payload corrompido é falha do servidor, não ErrInvalidFormat do cliente
		return nil, fmt.Errorf("decode stored schema %s: %v", id, err)
	}
	return sch, nil
}
