package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/isaacronan/poorbox-service/dispatcher"
	"github.com/isaacronan/poorbox-service/endpoint"
	"github.com/isaacronan/poorbox-service/schema"
	"github.com/isaacronan/poorbox-service/usage"
)

const (
	msgCreated     = "Created endpoint."
	msgDeleted     = "Deleted endpoint."
	msgNotFound    = "Not found."
	msgNoEndpoint  = "Endpoint not found."
	msgInvalid     = "Format is invalid."
	msgRateLimited = "Rate limit reached."
	msgUnavailable = "Service unavailable."
	msgInternal    = "Internal server error."
)

type errorResponse struct {
	Error     string        `json:"error"`
	Issues    schema.Issues `json:"issues,omitempty"`
	Potential int64         `json:"potential,omitempty"`
	Max       *int64        `json:"max,omitempty"`
}

// fail traduz o erro de domínio em status + corpo. É o único lugar que faz isso.
// Detalhes de erros internos e do gerador vão para o log, nunca para o cliente.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, route string, err error) {
	var pe *schema.PotentialError
	switch {
	case errors.As(err, &pe):
		s.record(r, route, usage.OverPotential)
		ceiling := pe.Max
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     fmt.Sprintf("Potential exceeds maximum of %d.", pe.Max),
			Potential: pe.Potential,
			Max:       &ceiling,
		})

	case errors.Is(err, schema.ErrInvalidFormat):
		s.record(r, route, usage.Invalid)
		iss, _ := schema.AsIssues(err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalid, Issues: iss})

	case errors.Is(err, endpoint.ErrNotFound):
		s.record(r, route, usage.NotFound)
		s.writeError(w, http.StatusNotFound, msgNoEndpoint)

	case errors.Is(err, endpoint.ErrIDSpaceExhausted):
		s.record(r, route, usage.Unavailable)
		s.log.Warn("endpoint id space exhausted", s.reqAttrs(r, err)...)
		s.writeError(w, http.StatusServiceUnavailable, msgUnavailable)

	default:
		level := slog.LevelError
		msg, outcome := "internal error", usage.Internal
		if errors.Is(err, dispatcher.ErrUpstream) {
			msg, outcome = "upstream generator failure", usage.Upstream
		}
		s.record(r, route, outcome)
		// cliente desistiu no meio da geração: não é problema do operador
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			level = slog.LevelWarn
			msg = "client canceled request"
		}
		s.log.Log(r.Context(), level, msg, s.reqAttrs(r, err)...)
		s.writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (s *Server) reqAttrs(r *http.Request, err error) []any {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err.Error(),
	}
	var ue *dispatcher.UpstreamError
	if errors.As(err, &ue) {
		attrs = append(attrs, "dispatch_id", ue.DispatchID, "op", ue.Op)
		if ue.Status != 0 {
			attrs = append(attrs, "upstream_status", ue.Status)
		}
	}
	return attrs
}

// writeJSON codifica antes de escrever o status: se a codificação falhar o
// cliente recebe 500, e não um 200 de corpo vazio.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.log.Error("encode response", "error", err, "status", status)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: msgInternal})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.Debug("write response", "error", err)
	}
}

func writeRaw(w http.ResponseWriter, status int, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
