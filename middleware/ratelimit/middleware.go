package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/isaacronan/poorbox-service/middleware/ratelimit/application"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
)

type KeyFunc func(r *http.Request) string

// RejectFunc escreve a resposta de bloqueio. Retry-After já foi definido.
type RejectFunc func(w http.ResponseWriter, r *http.Request, status int)

type Options struct {
	Store               domain.LimiterStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	Reject              RejectFunc
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	// OnDecision, se definido, é chamado para toda decisão (ex.: estatísticas).
	OnDecision func(r *http.Request, key string, dec domain.Decision)
}

type rateInfo interface {
	Limit() int
	Window() time.Duration
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// Middleware aplica o limite por cliente antes do handler protegido.
// Bloqueado: responde RejectStatus (429) com Retry-After e não chama next.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Reject == nil {
		opts.Reject = func(w http.ResponseWriter, _ *http.Request, status int) {
			http.Error(w, http.StatusText(status), status)
		}
	}

	svc := application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-Limit", strconv.Itoa(ri.Limit()))
					w.Header().Set("X-RateLimit-Window", strconv.Itoa(int(ri.Window().Seconds())))
				}
			}

			dec := svc.Decide(domain.Key(key))
			if opts.OnDecision != nil {
				opts.OnDecision(r, key, dec)
			}
			if !dec.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(dec.RetryAfter)))
				opts.Reject(w, r, opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retrySeconds arredonda para cima: Retry-After 0 convidaria a repetir na hora.
func retrySeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	return max(s, 1)
}
