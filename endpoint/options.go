package endpoint

import (
	"log/slog"
	"strings"
	"time"
)

type options struct {
	ttl    time.Duration
	ids    IDFunc
	logger *slog.Logger
	prefix string
}

type Option func(*options)

func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithIDFunc troca o gerador de handles (usado em testes de colisão).
func WithIDFunc(fn IDFunc) Option {
	return func(o *options) { o.ids = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPrefix define o prefixo das chaves no Redis. Ignorado pelo MemoryStore.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = strings.Trim(prefix, ":") }
}

func buildOptions(opts []Option) options {
	o := options{
		ttl:    DefaultTTL,
		ids:    RandomID,
		logger: slog.Default(),
		prefix: "poorbox:endpoint",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	return o
}
