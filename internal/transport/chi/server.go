// Package chi exposes the engine over an HTTP API shaped like the
// upstream search server's REST surface, so client SDKs pointed at a
// test process speak their native protocol.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/engine"
	"github.com/kailas-cloud/elastimock/internal/metrics"
	"github.com/kailas-cloud/elastimock/internal/query"
	"github.com/kailas-cloud/elastimock/internal/scripting"
	"github.com/kailas-cloud/elastimock/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server routes the REST API onto the engine.
type Server struct {
	engine          *engine.Engine
	runner          scripting.Runner
	autocreate      bool
	maxResultWindow int
	logger          *zap.Logger
	errorHandlers   []errorHandler
}

const defaultMaxResultWindow = 10000

// NewServer creates an HTTP API server. runner may be nil, in which
// case scripted updates fail with an illegal argument error.
func NewServer(e *engine.Engine, runner scripting.Runner, autocreate bool, logger *zap.Logger) *Server {
	s := &Server{
		engine:          e,
		runner:          runner,
		autocreate:      autocreate,
		maxResultWindow: defaultMaxResultWindow,
		logger:          logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, "index_not_found_exception"),
		sentinelHandler(domain.ErrDocumentMissing, http.StatusNotFound, "document_missing_exception"),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, "resource_already_exists_exception"),
		sentinelHandler(domain.ErrInvalidIndexName, http.StatusBadRequest, "invalid_index_name_exception"),
		sentinelHandler(domain.ErrMapperParsing, http.StatusBadRequest, "mapper_parsing_exception"),
		sentinelHandler(domain.ErrTypeConflict, http.StatusBadRequest, "illegal_argument_exception"),
		sentinelHandler(domain.ErrStrictDynamicMapping, http.StatusBadRequest, "strict_dynamic_mapping_exception"),
		sentinelHandler(domain.ErrParsing, http.StatusBadRequest, "parsing_exception"),
		sentinelHandler(domain.ErrNumberFormat, http.StatusBadRequest, "number_format_exception"),
		sentinelHandler(domain.ErrDateTimeParse, http.StatusBadRequest, "date_time_parse_exception"),
		sentinelHandler(domain.ErrIllegalArgument, http.StatusBadRequest, "illegal_argument_exception"),
		sentinelHandler(domain.ErrQueryShard, http.StatusBadRequest, "query_shard_exception"),
		sentinelHandler(domain.ErrScript, http.StatusBadRequest, "script_exception"),
	}
	return s
}

// WithMaxResultWindow caps from + size on search requests.
func (s *Server) WithMaxResultWindow(n int) *Server {
	if n > 0 {
		s.maxResultWindow = n
	}
	return s
}

// Routes mounts every API route on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/_search", s.SearchAll)
	r.Post("/_search", s.SearchAll)

	r.Put("/{index}", s.CreateIndex)
	r.Delete("/{index}", s.DeleteIndex)
	r.Head("/{index}", s.IndexExists)
	r.Get("/{index}/_mapping", s.GetMapping)
	r.Put("/{index}/_mapping", s.PutMapping)
	r.Get("/{index}/_settings", s.GetSettings)

	r.Post("/{index}/_doc", s.IndexDocumentAutoID)
	r.Put("/{index}/_doc/{id}", s.IndexDocument)
	r.Put("/{index}/_create/{id}", s.CreateDocument)
	r.Get("/{index}/_doc/{id}", s.GetDocument)
	r.Head("/{index}/_doc/{id}", s.DocumentExists)
	r.Delete("/{index}/_doc/{id}", s.DeleteDocument)
	r.Post("/{index}/_update/{id}", s.UpdateDocument)

	r.Get("/{index}/_search", s.SearchIndex)
	r.Post("/{index}/_search", s.SearchIndex)
	r.Get("/{index}/_count", s.CountIndex)
	r.Post("/{index}/_count", s.CountIndex)
}

// Root handles GET / with the server banner.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "elastimock",
		"version": map[string]any{"number": version.Version, "build_hash": version.Commit},
		"tagline": "You Know, for Search",
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "green",
		"indices": len(s.engine.Names()),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// CreateIndex handles PUT /{index}.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", "invalid request body: "+err.Error())
		return
	}

	if _, err := s.engine.CreateIndice(name, body); err != nil {
		s.handleDomainError(w, err)
		return
	}
	metrics.IndicesTotal.Set(float64(len(s.engine.Names())))
	writeJSON(w, http.StatusOK, map[string]any{
		"acknowledged":        true,
		"shards_acknowledged": true,
		"index":               name,
	})
}

// DeleteIndex handles DELETE /{index}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteIndice(chi.URLParam(r, "index")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	metrics.IndicesTotal.Set(float64(len(s.engine.Names())))
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

// IndexExists handles HEAD /{index}.
func (s *Server) IndexExists(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Exists(chi.URLParam(r, "index")) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetMapping handles GET /{index}/_mapping.
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	ind, err := s.engine.Indice(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		name: map[string]any{"mappings": ind.Mappings()},
	})
}

// PutMapping handles PUT /{index}/_mapping.
func (s *Server) PutMapping(w http.ResponseWriter, r *http.Request) {
	ind, err := s.engine.Indice(chi.URLParam(r, "index"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", "invalid request body: "+err.Error())
		return
	}
	if err := ind.PutMapping(body); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

// GetSettings handles GET /{index}/_settings.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	ind, err := s.engine.Indice(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	settings := ind.Settings()
	writeJSON(w, http.StatusOK, map[string]any{
		name: map[string]any{
			"settings": map[string]any{
				"index": map[string]any{
					"number_of_shards":   settings.NumberOfShards,
					"number_of_replicas": settings.NumberOfReplicas,
					"uuid":               settings.UUID,
					"creation_date":      settings.CreationDate,
					"provided_name":      settings.ProvidedName,
				},
			},
		},
	})
}

// IndexDocumentAutoID handles POST /{index}/_doc.
func (s *Server) IndexDocumentAutoID(w http.ResponseWriter, r *http.Request) {
	s.indexDocument(w, r, "", engine.OpTypeIndex)
}

// IndexDocument handles PUT /{index}/_doc/{id}.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	s.indexDocument(w, r, chi.URLParam(r, "id"), engine.OpTypeIndex)
}

// CreateDocument handles PUT /{index}/_create/{id}.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	s.indexDocument(w, r, chi.URLParam(r, "id"), engine.OpTypeCreate)
}

func (s *Server) indexDocument(w http.ResponseWriter, r *http.Request, id string, opType engine.OpType) {
	name := chi.URLParam(r, "index")
	ind, err := s.resolveIndice(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	source, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", "invalid request body: "+err.Error())
		return
	}

	result, doc, err := ind.Index(source, id, opType)
	if err != nil {
		metrics.DocumentOperationsTotal.WithLabelValues("index", "error").Inc()
		s.handleDomainError(w, err)
		return
	}
	metrics.DocumentOperationsTotal.WithLabelValues("index", string(result)).Inc()

	status := http.StatusOK
	if result == engine.ResultCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, docResponse(name, doc, result))
}

// GetDocument handles GET /{index}/_doc/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	id := chi.URLParam(r, "id")
	ind, err := s.engine.Indice(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	doc, ok := ind.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"_index": name,
			"_id":    id,
			"found":  false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"_index":        name,
		"_type":         document.DocType,
		"_id":           doc.ID,
		"_version":      doc.Version,
		"_seq_no":       doc.SeqNo,
		"_primary_term": doc.PrimaryTerm,
		"found":         true,
		"_source":       doc.Source,
	})
}

// DocumentExists handles HEAD /{index}/_doc/{id}.
func (s *Server) DocumentExists(w http.ResponseWriter, r *http.Request) {
	ind, err := s.engine.Indice(chi.URLParam(r, "index"))
	if err != nil || !ind.Exists(chi.URLParam(r, "id")) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteDocument handles DELETE /{index}/_doc/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	ind, err := s.engine.Indice(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, doc, err := ind.Delete(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	metrics.DocumentOperationsTotal.WithLabelValues("delete", string(result)).Inc()

	if result == engine.ResultNotFound {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"_index": name,
			"_id":    chi.URLParam(r, "id"),
			"result": string(result),
		})
		return
	}
	writeJSON(w, http.StatusOK, docResponse(name, doc, result))
}

// UpdateDocument handles POST /{index}/_update/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	ind, err := s.engine.Indice(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", "invalid request body: "+err.Error())
		return
	}

	req, err := updateRequestFromBody(body)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, doc, err := ind.Update(r.Context(), chi.URLParam(r, "id"), req, s.runner)
	if err != nil {
		metrics.DocumentOperationsTotal.WithLabelValues("update", "error").Inc()
		s.handleDomainError(w, err)
		return
	}
	metrics.DocumentOperationsTotal.WithLabelValues("update", string(result)).Inc()

	status := http.StatusOK
	if result == engine.ResultCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, docResponse(name, doc, result))
}

// SearchIndex handles GET and POST /{index}/_search. The index path
// segment may carry a comma separated list of indices.
func (s *Server) SearchIndex(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, splitIndices(chi.URLParam(r, "index")))
}

// SearchAll handles GET and POST /_search across every indice.
func (s *Server) SearchAll(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, s.engine.Names())
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, indices []string) {
	req, err := searchRequestFromRequest(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if req.from+req.size > s.maxResultWindow {
		s.handleDomainError(w, domain.IllegalArgument(
			"Result window is too large, from + size must be less than or equal to: [%d] but was [%d]",
			s.maxResultWindow, req.from+req.size,
		))
		return
	}

	start := time.Now()
	hits, err := query.Search(s.engine, indices, req.query)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues("search", "error").Inc()
		s.handleDomainError(w, err)
		return
	}
	metrics.SearchQueriesTotal.WithLabelValues("search", "ok").Inc()

	// total counts every match, the hit list carries only the page
	page := hits
	if req.from >= len(page) {
		page = nil
	} else {
		page = page[req.from:]
	}
	if len(page) > req.size {
		page = page[:req.size]
	}

	out := make([]map[string]any, len(page))
	for i, h := range page {
		out[i] = map[string]any{
			"_index":  h.Indice,
			"_id":     h.ID,
			"_score":  h.Score,
			"_source": h.Source,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"took":      time.Since(start).Milliseconds(),
		"timed_out": false,
		"hits": map[string]any{
			"total":     map[string]any{"value": len(hits), "relation": "eq"},
			"max_score": maxScore(hits),
			"hits":      out,
		},
	})
}

// CountIndex handles GET and POST /{index}/_count.
func (s *Server) CountIndex(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromRequest(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	n, err := query.Count(s.engine, splitIndices(chi.URLParam(r, "index")), req.query)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues("count", "error").Inc()
		s.handleDomainError(w, err)
		return
	}
	metrics.SearchQueriesTotal.WithLabelValues("count", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

// resolveIndice honors the autocreate setting for document writes.
func (s *Server) resolveIndice(name string) (*engine.Indice, error) {
	if s.autocreate {
		ind, err := s.engine.Autocreate(name)
		if err == nil {
			metrics.IndicesTotal.Set(float64(len(s.engine.Names())))
		}
		return ind, err
	}
	return s.engine.Indice(name)
}

type searchRequest struct {
	query map[string]any
	from  int
	size  int
}

// searchRequestFromRequest reads a search body. A missing body or a
// body without a query defaults to match_all.
func searchRequestFromRequest(r *http.Request) (searchRequest, error) {
	req := searchRequest{
		query: map[string]any{"match_all": map[string]any{}},
		size:  10,
	}
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	body, err := decodeBody(r)
	if err != nil {
		return searchRequest{}, domain.Parsing("invalid search body: %s", err.Error())
	}
	if raw, ok := body["query"]; ok {
		q, ok := raw.(map[string]any)
		if !ok {
			return searchRequest{}, domain.Parsing("[query] malformed, expected an object")
		}
		req.query = q
	}
	if raw, ok := body["from"]; ok {
		n, ok := asNonNegativeInt(raw)
		if !ok {
			return searchRequest{}, domain.IllegalArgument("failed to parse [from], expected a non-negative integer")
		}
		req.from = n
	}
	if raw, ok := body["size"]; ok {
		n, ok := asNonNegativeInt(raw)
		if !ok {
			return searchRequest{}, domain.IllegalArgument("failed to parse [size], expected a non-negative integer")
		}
		req.size = n
	}
	return req, nil
}

func asNonNegativeInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) || t < 0 {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil || n < 0 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func updateRequestFromBody(body map[string]any) (engine.UpdateRequest, error) {
	req := engine.UpdateRequest{}
	for key, v := range body {
		switch key {
		case "script":
			script, err := scripting.Parse(v)
			if err != nil {
				return engine.UpdateRequest{}, err
			}
			req.Script = &script
		case "doc":
			doc, ok := v.(map[string]any)
			if !ok {
				return engine.UpdateRequest{}, domain.Parsing("[doc] malformed, expected an object")
			}
			req.Doc = doc
		case "upsert":
			upsert, ok := v.(map[string]any)
			if !ok {
				return engine.UpdateRequest{}, domain.Parsing("[upsert] malformed, expected an object")
			}
			req.Upsert = upsert
		case "doc_as_upsert":
			b, ok := v.(bool)
			if !ok {
				return engine.UpdateRequest{}, domain.Parsing("[doc_as_upsert] malformed, expected a boolean")
			}
			req.DocAsUpsert = b
		default:
			return engine.UpdateRequest{}, domain.IllegalArgument("unknown field [%s] in update request", key)
		}
	}
	return req, nil
}

func docResponse(index string, doc *document.Document, result engine.Result) map[string]any {
	return map[string]any{
		"_index":        index,
		"_type":         document.DocType,
		"_id":           doc.ID,
		"_version":      doc.Version,
		"_seq_no":       doc.SeqNo,
		"_primary_term": doc.PrimaryTerm,
		"result":        string(result),
	}
}

func splitIndices(path string) []string {
	parts := strings.Split(path, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func maxScore(hits []query.Hit) any {
	if len(hits) == 0 {
		return nil
	}
	return 1.0
}

// decodeBody reads a request body with UseNumber so whole-valued floats
// like 1.0 stay distinguishable from integers during dynamic inference.
func decodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, reason string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"type":   errType,
			"reason": reason,
		},
		"status": status,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, errType string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, errType, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
