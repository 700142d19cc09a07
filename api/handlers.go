package api

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/isaacronan/poorbox-service/endpoint"
	"github.com/isaacronan/poorbox-service/schema"
	"github.com/isaacronan/poorbox-service/usage"
)

const maxBodyBytes = 1 << 20

// rotas como aparecem nas estatísticas de uso
const (
	routeTest    = "POST /test"
	routeCreate  = "POST /config"
	routeInspect = "GET /config/{id}"
	routeDelete  = "DELETE /config/{id}"
	routeData    = "GET /{id}"
)

type createResponse struct {
	Message    string `json:"message"`
	ID         string `json:"id"`
	URL        string `json:"url"`
	Expiration int64  `json:"expiration"`
}

type inspectResponse struct {
	ID         string        `json:"id"`
	URL        string        `json:"url"`
	Expiration int64         `json:"expiration"`
	Schema     schema.Schema `json:"schema"`
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	sch, err := s.readSchema(w, r)
	if err != nil {
		s.fail(w, r, routeTest, err)
		return
	}
	data, err := s.gen.Generate(r.Context(), sch)
	if err != nil {
		s.fail(w, r, routeTest, err)
		return
	}
	s.record(r, routeTest, usage.Generated)
	writeRaw(w, http.StatusOK, data)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sch, err := s.readSchema(w, r)
	if err != nil {
		s.fail(w, r, routeCreate, err)
		return
	}
	e, err := s.store.Create(r.Context(), sch)
	if err != nil {
		s.fail(w, r, routeCreate, err)
		return
	}

	s.log.Info("endpoint created",
		"id", e.ID,
		"kind", sch.Kind(),
		"potential", schema.Potential(sch),
	)
	s.record(r, routeCreate, usage.Created)
	s.writeJSON(w, http.StatusOK, createResponse{
		Message:    msgCreated,
		ID:         e.ID,
		URL:        s.endpointURL(r, e.ID),
		Expiration: e.Expiration(),
	})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := s.store.Peek(r.Context(), id)
	if err != nil {
		s.fail(w, r, routeInspect, err)
		return
	}
	s.record(r, routeInspect, usage.Inspected)
	s.writeJSON(w, http.StatusOK, inspectResponse{
		ID:         e.ID,
		URL:        s.endpointURL(r, e.ID),
		Expiration: e.Expiration(),
		Schema:     e.Schema,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := s.store.Delete(r.Context(), id)
	if err == nil && !deleted {
		err = endpoint.ErrNotFound
	}
	if err != nil {
		s.fail(w, r, routeDelete, err)
		return
	}
	s.log.Info("endpoint deleted", "id", id)
	s.record(r, routeDelete, usage.Deleted)
	s.writeJSON(w, http.StatusOK, map[string]string{"message": msgDeleted})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, routeData, err)
		return
	}
	data, err := s.gen.Generate(r.Context(), e.Schema)
	if err != nil {
		s.fail(w, r, routeData, err)
		return
	}
	s.record(r, routeData, usage.Generated)
	writeRaw(w, http.StatusOK, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	body := map[string]any{"status": "healthy"}
	if s.slots != nil {
		body["inFlight"] = s.slots.InFlight()
	}
	if s.totals != nil {
		if totals, err := s.totals.Totals(ctx); err == nil {
			body["usage"] = totals
		} else {
			s.log.Warn("read usage totals", "error", err)
		}
	}
	s.writeJSON(w, http.StatusOK, body)
}

// readSchema lê o corpo (JSON, ou YAML pelo Content-Type), valida e aplica o teto.
func (s *Server) readSchema(w http.ResponseWriter, r *http.Request) (schema.Schema, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return s.guard.Admit(schema.ParseReader(body, isYAML(r)))
}

func isYAML(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

// endpointURL monta a URL pública do handle: PublicURL quando configurado,
// senão o esquema e o host da própria requisição.
func (s *Server) endpointURL(r *http.Request, id string) string {
	base := strings.TrimRight(s.publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if s.trustXFF {
			if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
				scheme = p
			}
		}
		base = scheme + "://" + r.Host
	}
	return base + s.basePath + "/" + id
}

// record é best-effort: falha na gravação de uso só vai para o log.
func (s *Server) record(r *http.Request, route string, outcome usage.Outcome) {
	ev := usage.Event{Route: route, Outcome: outcome, At: time.Now()}
	if err := s.usage.Record(context.WithoutCancel(r.Context()), ev); err != nil {
		s.log.Debug("record usage", "error", err, "outcome", string(outcome))
	}
}
