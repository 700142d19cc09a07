// Package endpoint guarda as schemas registradas sob um handle opaco e efêmero.
//
// Duas implementações cumprem o mesmo contrato (Store):
//
//   - MemoryStore: mapa em processo, um timer por entrada (internal/expiring)
//   - RedisStore: chave por handle com expiração nativa do Redis
//
// Em ambas o TTL é deslizante: Get renova a expiração para now+TTL; Peek não.
package endpoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/isaacronan/poorbox-service/schema"
)

var (
	ErrNotFound = errors.New("endpoint not found")
	// ErrIDSpaceExhausted indica que nenhum handle livre foi achado em maxIDAttempts tentativas.
	ErrIDSpaceExhausted = errors.New("endpoint id space exhausted")
)

const (
	DefaultTTL    = 120 * time.Second
	maxIDAttempts = 32
	idBytes       = 4
)

type Entry struct {
	ID        string
	Schema    schema.Schema
	ExpiresAt time.Time
}

// Expiration é o TTL restante em segundos inteiros, arredondado ao mais próximo
// (o mesmo critério do comando TTL do Redis). Nunca negativo.
func (e Entry) Expiration() int64 {
	return Seconds(time.Until(e.ExpiresAt))
}

func Seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second/2) / time.Second)
}

type Store interface {
	// Create gera um handle livre, guarda a schema e agenda a expiração.
	Create(ctx context.Context, s schema.Schema) (Entry, error)
	// Get devolve a entrada viva e renova sua expiração.
	Get(ctx context.Context, id string) (Entry, error)
	// Peek devolve a entrada viva sem tocar na expiração.
	Peek(ctx context.Context, id string) (Entry, error)
	// Delete remove a entrada; false quando o handle não existe.
	Delete(ctx context.Context, id string) (bool, error)
	TTL() time.Duration
	Ping(ctx context.Context) error
	Close() error
}

// IDFunc gera handles candidatos. A unicidade é garantida pelo store.
type IDFunc func() (string, error)

// RandomID: 4 bytes aleatórios em hex (8 caracteres).
func RandomID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// createWith repete a geração até claim aceitar um handle livre.
// claim deve fazer checagem+inserção de forma atômica.
func createWith(ctx context.Context, next IDFunc, claim func(id string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id, err := next()
		if err != nil {
			return "", err
		}
		ok, err := claim(id)
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDSpaceExhausted, maxIDAttempts)
}
