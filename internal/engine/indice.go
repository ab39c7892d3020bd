// Package engine implements the in-memory indice store: indice
// lifecycle, document CRUD with versioning metadata, and the dynamic
// mapping hook every write runs through.
package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elastimock/internal/analysis"
	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/domain/mapping"
	"github.com/kailas-cloud/elastimock/internal/scripting"
)

// Result names the outcome of a write operation.
type Result string

const (
	ResultCreated  Result = "created"
	ResultUpdated  Result = "updated"
	ResultDeleted  Result = "deleted"
	ResultNotFound Result = "not_found"
	ResultNoop     Result = "noop"
)

// OpType selects the write mode of an index operation.
type OpType string

const (
	// OpTypeIndex stores the document, overwriting any existing one.
	OpTypeIndex OpType = "index"
	// OpTypeCreate stores the document only if the id is unused.
	OpTypeCreate OpType = "create"
)

// Indice is one named index: a mapping tree plus its documents.
type Indice struct {
	mu              sync.RWMutex
	name            string
	settings        Settings
	mappings        *mapping.Tree
	docs            map[string]*document.Document
	seq             int64
	analyzers       *analysis.Registry
	defaultAnalyzer string
	log             *zap.Logger
}

func newIndice(name string, settings Settings, analyzers *analysis.Registry, defaultAnalyzer string, log *zap.Logger) *Indice {
	return &Indice{
		name:            name,
		settings:        settings,
		mappings:        mapping.NewTree(),
		docs:            make(map[string]*document.Document),
		analyzers:       analyzers,
		defaultAnalyzer: defaultAnalyzer,
		log:             log.With(zap.String("indice", name)),
	}
}

// Name returns the indice name.
func (i *Indice) Name() string { return i.name }

// Settings returns the indice settings.
func (i *Indice) Settings() Settings { return i.settings }

// Mappings renders the current mapping tree as a nested body.
func (i *Indice) Mappings() map[string]any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.mappings.ToMap()
}

// PutMapping merges a mapping body into the indice.
func (i *Indice) PutMapping(body map[string]any) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mappings.Merge(body)
}

// Index stores a document. An empty id is replaced with a generated
// one. Dynamic mapping runs before the document is stored, so a source
// rejected by the mapping leaves the indice unchanged.
func (i *Indice) Index(source map[string]any, id string, opType OpType) (Result, *document.Document, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	prior := i.docs[id]
	if opType == OpTypeCreate && prior != nil {
		return "", nil, domain.VersionConflict(id, prior.Version)
	}

	if err := i.mappings.DynamicMap(source); err != nil {
		return "", nil, err
	}
	if err := i.validateSource(source); err != nil {
		return "", nil, err
	}

	i.seq++
	doc := &document.Document{
		ID:          id,
		Source:      document.CloneSource(source),
		SeqNo:       i.seq,
		PrimaryTerm: 1,
		Version:     1,
	}
	result := ResultCreated
	if prior != nil {
		doc.Version = prior.Version + 1
		result = ResultUpdated
	}
	i.docs[id] = doc

	i.log.Debug("indexed document",
		zap.String("id", id),
		zap.Int64("version", doc.Version),
		zap.String("result", string(result)))
	return result, doc, nil
}

// UpdateRequest is the body of an update operation. Exactly one of
// Script or Doc drives the change; Upsert and DocAsUpsert control what
// happens when the document does not exist.
type UpdateRequest struct {
	Script      *scripting.Script
	Doc         map[string]any
	Upsert      map[string]any
	DocAsUpsert bool
}

// Update applies a partial update. A doc update that changes nothing is
// a noop; a missing document falls back to the upsert source when one
// is given, otherwise the update fails.
func (i *Indice) Update(ctx context.Context, id string, req UpdateRequest, runner scripting.Runner) (Result, *document.Document, error) {
	i.mu.Lock()
	prior := i.docs[id]
	i.mu.Unlock()

	if prior == nil {
		switch {
		case req.Upsert != nil:
			return i.Index(req.Upsert, id, OpTypeIndex)
		case req.DocAsUpsert && req.Doc != nil:
			return i.Index(req.Doc, id, OpTypeIndex)
		default:
			return "", nil, domain.DocumentMissing(document.DocType, id)
		}
	}

	switch {
	case req.Script != nil:
		if runner == nil {
			return "", nil, domain.IllegalArgument("no script runner configured for lang [%s]", req.Script.Lang)
		}
		sctx := &scripting.Context{
			ID:     id,
			Source: document.CloneSource(prior.Source),
			Params: req.Script.Params,
		}
		if err := runner.Execute(ctx, *req.Script, sctx); err != nil {
			return "", nil, scripting.WrapError(err)
		}
		return i.Index(sctx.Source, id, OpTypeIndex)
	case req.Doc != nil:
		merged := document.MergeSource(prior.Source, req.Doc)
		if sourcesEqual(prior.Source, merged) {
			return ResultNoop, prior, nil
		}
		return i.Index(merged, id, OpTypeIndex)
	default:
		return "", nil, domain.IllegalArgument("update requires [script] or [doc]")
	}
}

// Delete removes a document. A missing id is reported through the
// result, not an error.
func (i *Indice) Delete(id string) (Result, *document.Document, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc, ok := i.docs[id]
	if !ok {
		return ResultNotFound, nil, nil
	}
	delete(i.docs, id)
	i.log.Debug("deleted document", zap.String("id", id))
	return ResultDeleted, doc, nil
}

// Get returns the stored document for an id.
func (i *Indice) Get(id string) (*document.Document, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	doc, ok := i.docs[id]
	return doc, ok
}

// Exists reports whether a document is stored under the id.
func (i *Indice) Exists(id string) bool {
	_, ok := i.Get(id)
	return ok
}

// Documents returns all stored documents sorted by sequence number.
func (i *Indice) Documents() []*document.Document {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]*document.Document, 0, len(i.docs))
	for _, d := range i.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SeqNo < out[b].SeqNo })
	return out
}

// Count returns the number of stored documents.
func (i *Indice) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// FieldMapper exposes the mapper at a dotted path for query planning.
func (i *Indice) FieldMapper(path string) (*mapping.Field, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.mappings.Field(path)
}
