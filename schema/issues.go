package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat é o erro sentinela de toda falha estrutural.
// Issues satisfaz errors.Is(err, ErrInvalidFormat).
var ErrInvalidFormat = errors.New("schema: invalid format")

const (
	CodeInvalidType = "invalid_type"
	CodeRequired    = "required"
	CodeUnknownKey  = "unknown_key"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
	CodeInvalidEnum = "invalid_enum"
	CodeParseError  = "parse_error"
)

// Issue é uma violação individual. Path é um JSON Pointer ("" é a raiz).
type Issue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Issues []Issue

// Error resume as primeiras violações.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ErrInvalidFormat.Error()
	}
	const maxShown = 3
	b := &strings.Builder{}
	b.WriteString("schema: ")
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		path := iss[i].Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

func (iss Issues) Is(target error) bool { return target == ErrInvalidFormat }

// AsIssues extrai Issues de um erro (via errors.As).
func AsIssues(err error) (Issues, bool) {
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPath(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}

func indexPath(base string, i int) string {
	return fmt.Sprintf("%s/%d", base, i)
}
