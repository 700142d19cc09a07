package ratelimit

import (
	"net/http"

	"github.com/isaacronan/poorbox-service/middleware/ratelimit/application"
)

type ConcurrencyOptions struct {
	// Service é compartilhado para que o health check leia InFlight.
	Service      *application.ConcurrencyService
	RejectStatus int
	Reject       RejectFunc
}

// ConcurrencyMiddleware reserva uma vaga de geração durante o handler.
// Sem vaga dentro do AcquireTimeout (ou cliente desconectado): 503.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Service == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Reject == nil {
		opts.Reject = func(w http.ResponseWriter, _ *http.Request, status int) {
			http.Error(w, http.StatusText(status), status)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := opts.Service.Acquire(r.Context())
			if !ok {
				opts.Reject(w, r, opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
