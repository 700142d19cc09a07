// Package logger monta o *slog.Logger do serviço (JSON, nível via LOG_LEVEL).
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const LevelTrace = slog.Level(-8)

// ParseLevel aceita TRACE, DEBUG, INFO, WARN/WARNING e ERROR (sem distinção de caixa).
// Nome desconhecido devolve INFO junto com o erro.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (defaulting to INFO)", s)
	}
}

// New cria um logger JSON em w. O nível pode ser trocado depois via o LevelVar devolvido.
func New(level slog.Level, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	lv.Set(level)
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lv,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return slog.New(h).With(slog.String("service", "poorbox")), lv
}
