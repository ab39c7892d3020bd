// Package elastimock is an in-process, in-memory emulation of a
// document search engine: typed mappings with dynamic inference,
// versioned document storage and query evaluation over live documents.
// It is meant to stand in for a real cluster in tests, either through
// this package's API or through the HTTP handler returned by
// Client.Handler.
package elastimock

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/engine"
	"github.com/kailas-cloud/elastimock/internal/query"
	"github.com/kailas-cloud/elastimock/internal/scripting"
	chiTransport "github.com/kailas-cloud/elastimock/internal/transport/chi"
)

// Document is a stored document with its versioning metadata.
type Document = document.Document

// Hit is one search result.
type Hit = query.Hit

// Result names the outcome of a write operation.
type Result = engine.Result

const (
	ResultCreated  = engine.ResultCreated
	ResultUpdated  = engine.ResultUpdated
	ResultDeleted  = engine.ResultDeleted
	ResultNotFound = engine.ResultNotFound
	ResultNoop     = engine.ResultNoop
)

// Script is a scripted update request.
type Script = scripting.Script

// ScriptRunner executes update scripts. The library ships no script
// engine; tests plug in a ScriptRunnerFunc that mutates ctx.Source.
type ScriptRunner = scripting.Runner

// ScriptRunnerFunc adapts a function to ScriptRunner.
type ScriptRunnerFunc = scripting.RunnerFunc

// ScriptContext carries the document state a script runner mutates.
type ScriptContext = scripting.Context

// UpdateRequest is a partial update: a script, a doc merge, or either
// combined with an upsert source.
type UpdateRequest = engine.UpdateRequest

// Client is the embedded engine. The zero value is not usable; create
// one with New.
type Client struct {
	engine *engine.Engine
	runner scripting.Runner
}

// New builds an empty in-memory engine. A nil logger disables logging.
func New(logger *zap.Logger) *Client {
	return &Client{engine: engine.New(logger)}
}

// WithScriptRunner installs the runner used for scripted updates.
func (c *Client) WithScriptRunner(r ScriptRunner) *Client {
	c.runner = r
	return c
}

// WithDefaultAnalyzer sets the analyzer used by text mappings that do
// not name one. One of standard, simple or keyword.
func (c *Client) WithDefaultAnalyzer(name string) *Client {
	c.engine.WithDefaultAnalyzer(name)
	return c
}

// CreateIndex creates a named index from an optional body with
// "settings" and "mappings" sections.
func (c *Client) CreateIndex(name string, body map[string]any) error {
	_, err := c.engine.CreateIndice(name, body)
	return err
}

// DeleteIndex removes a named index and all its documents.
func (c *Client) DeleteIndex(name string) error {
	return c.engine.DeleteIndice(name)
}

// IndexExists reports whether a named index exists.
func (c *Client) IndexExists(name string) bool {
	return c.engine.Exists(name)
}

// IndexNames lists all indices in lexical order.
func (c *Client) IndexNames() []string {
	return c.engine.Names()
}

// PutMapping merges a mapping body into an index.
func (c *Client) PutMapping(index string, body map[string]any) error {
	ind, err := c.engine.Indice(index)
	if err != nil {
		return err
	}
	return ind.PutMapping(body)
}

// GetMapping renders an index's mapping tree as a nested body.
func (c *Client) GetMapping(index string) (map[string]any, error) {
	ind, err := c.engine.Indice(index)
	if err != nil {
		return nil, err
	}
	return ind.Mappings(), nil
}

// Index stores a document, creating the index with defaults when it
// does not exist. An empty id is replaced with a generated one.
func (c *Client) Index(index, id string, source map[string]any) (Result, *Document, error) {
	ind, err := c.engine.Autocreate(index)
	if err != nil {
		return "", nil, err
	}
	return ind.Index(source, id, engine.OpTypeIndex)
}

// Create stores a document only if the id is unused.
func (c *Client) Create(index, id string, source map[string]any) (Result, *Document, error) {
	ind, err := c.engine.Autocreate(index)
	if err != nil {
		return "", nil, err
	}
	return ind.Index(source, id, engine.OpTypeCreate)
}

// Get fetches a document by id.
func (c *Client) Get(index, id string) (*Document, bool) {
	ind, err := c.engine.Indice(index)
	if err != nil {
		return nil, false
	}
	return ind.Get(id)
}

// Delete removes a document. A missing document yields ResultNotFound
// with no error.
func (c *Client) Delete(index, id string) (Result, error) {
	ind, err := c.engine.Indice(index)
	if err != nil {
		return "", err
	}
	result, _, err := ind.Delete(id)
	return result, err
}

// Update applies a partial update using the installed script runner.
func (c *Client) Update(ctx context.Context, index, id string, req UpdateRequest) (Result, *Document, error) {
	ind, err := c.engine.Indice(index)
	if err != nil {
		return "", nil, err
	}
	return ind.Update(ctx, id, req, c.runner)
}

// Search evaluates a query clause against one or more indices and
// returns hits in indexing order.
func (c *Client) Search(indices []string, queryBody map[string]any) ([]Hit, error) {
	return query.Search(c.engine, indices, queryBody)
}

// Count returns the number of documents matching a query clause.
func (c *Client) Count(indices []string, queryBody map[string]any) (int, error) {
	return query.Count(c.engine, indices, queryBody)
}

// Handler returns an http.Handler exposing the engine over the REST
// API, for tests that point a real client SDK at an httptest server.
func (c *Client) Handler() http.Handler {
	r := chi.NewRouter()
	chiTransport.NewServer(c.engine, c.runner, true, zap.NewNop()).Routes(r)
	return r
}
