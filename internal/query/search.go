package query

import (
	"github.com/kailas-cloud/elastimock/internal/engine"
)

// Hit is one matching document in a search response.
type Hit struct {
	Indice string
	ID     string
	Score  float64
	Source map[string]any
}

// Search evaluates a query body against one or more indices. The query
// is resolved against each indice's mapping before any document is
// read, so an unknown field or an unsupported field type fails the
// search even when the indice is empty. Hits come back grouped by
// indice in the order the names were given, documents in indexing
// order. A missing indice fails the whole search.
func Search(e *engine.Engine, indices []string, body map[string]any) ([]Hit, error) {
	q, err := Parse(body)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, name := range indices {
		ind, err := e.Indice(name)
		if err != nil {
			return nil, err
		}
		if err := q.Resolve(ind); err != nil {
			return nil, err
		}
		for _, doc := range ind.Documents() {
			ok, err := q.Match(ind, doc)
			if err != nil {
				return nil, err
			}
			if ok {
				hits = append(hits, Hit{
					Indice: name,
					ID:     doc.ID,
					Score:  1.0,
					Source: doc.Source,
				})
			}
		}
	}
	return hits, nil
}

// Count evaluates a query body and returns the number of matching
// documents across the given indices.
func Count(e *engine.Engine, indices []string, body map[string]any) (int, error) {
	hits, err := Search(e, indices, body)
	if err != nil {
		return 0, err
	}
	return len(hits), nil
}
