package dispatcher

import (
	"errors"
	"fmt"
)

var ErrUpstream = errors.New("upstream generator failure")

// UpstreamError descreve uma falha da chamada ao gerador. Nunca vai para o
// cliente HTTP: só para o log do operador.
type UpstreamError struct {
	Op         string // "throttle", "request", "status", "decode"
	DispatchID string
	Status     int
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("dispatch %s: %s", e.DispatchID, e.Op)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *UpstreamError) Unwrap() error { return e.Err }
