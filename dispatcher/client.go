// Package dispatcher encaminha uma schema validada ao gerador externo e
// devolve a árvore de valores gerada. Sem retry: qualquer falha vira
// *UpstreamError e quem chama decide o que fazer.
package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/isaacronan/poorbox-service/schema"
)

const (
	DefaultTimeout = 5 * time.Second
	// maxResponseBytes limita o corpo lido do gerador.
	maxResponseBytes = 32 << 20
	DispatchIDHeader = "X-Dispatch-Id"
)

type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	log      *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit limita as chamadas de saída (rps sustentado, burst inicial).
// rps <= 0 desliga o limite.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New cria um client para o gerador em baseURL; as chamadas vão para baseURL+"/config".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/config",
		timeout:  DefaultTimeout,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Generate envia a schema e devolve o JSON gerado, já verificado.
// Timeout, erro de transporte, status != 2xx e corpo inválido viram *UpstreamError.
func (c *Client) Generate(ctx context.Context, s schema.Schema) (json.RawMessage, error) {
	id := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{Op: "throttle", DispatchID: id, Err: err}
		}
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &UpstreamError{Op: "request", DispatchID: id, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(DispatchIDHeader, id)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "request", DispatchID: id, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &UpstreamError{Op: "decode", DispatchID: id, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Op: "status", DispatchID: id, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	if len(body) > maxResponseBytes {
		return nil, &UpstreamError{Op: "decode", DispatchID: id, Status: resp.StatusCode, Err: errors.New("response too large")}
	}
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return nil, &UpstreamError{Op: "decode", DispatchID: id, Status: resp.StatusCode, Err: errors.New("malformed json response")}
	}

	c.log.Debug("generator call",
		slog.String("dispatch_id", id),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return json.RawMessage(body), nil
}
