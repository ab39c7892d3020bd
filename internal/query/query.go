// Package query implements the query DSL: parsing of query bodies into
// an evaluable tree and matching that tree against stored documents.
package query

import (
	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/domain/mapping"
	"github.com/kailas-cloud/elastimock/internal/engine"
)

// Query is one parsed query clause. Resolve checks the clause's field
// paths against one indice's mapping before any document is read, so
// the same parsed query works across indices with different mappings.
type Query interface {
	Resolve(ind *engine.Indice) error
	Match(ind *engine.Indice, doc *document.Document) (bool, error)
}

// Parse reads a query body. The body must hold exactly one clause.
func Parse(body map[string]any) (Query, error) {
	if len(body) == 0 {
		return nil, domain.Parsing("query malformed, empty clause")
	}
	kind, params := singleKey(body)
	if len(body) > 1 {
		return nil, domain.Parsing("[%s] malformed query, expected [END_OBJECT] but found [FIELD_NAME]", kind)
	}

	switch kind {
	case "match_all":
		return parseMatchAll(params)
	case "term":
		return parseTerm(params)
	case "prefix":
		return parsePrefix(params)
	case "range":
		return parseRange(params)
	case "geo_distance":
		return parseGeoDistance(params)
	case "geo_shape":
		return parseGeoShape(params)
	case "match":
		return parseMatch(params)
	case "match_bool_prefix":
		return parseMatchBoolPrefix(params)
	case "multi_match":
		return parseMultiMatch(params)
	case "bool":
		return parseBool(params)
	case "dis_max":
		return parseDisMax(params)
	default:
		return nil, domain.Parsing("unknown query [%s]", kind)
	}
}

func singleKey(body map[string]any) (string, any) {
	var first string
	for k := range body {
		if first == "" || k < first {
			first = k
		}
	}
	return first, body[first]
}

// asObject coerces a clause body to an object, erroring with the query
// kind on mismatch.
func asObject(kind string, v any) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, domain.Parsing("[%s] query malformed, expected an object", kind)
	}
	return obj, nil
}

// singleField extracts the one field a single-field query addresses.
func singleField(kind string, params map[string]any, reserved map[string]bool) (field string, spec any, err error) {
	for k, v := range params {
		if reserved[k] {
			continue
		}
		if field != "" {
			return "", nil, domain.Parsing("[%s] query doesn't support multiple fields, found [%s] and [%s]", kind, field, k)
		}
		field, spec = k, v
	}
	if field == "" {
		return "", nil, domain.Parsing("[%s] query malformed, no field specified", kind)
	}
	return field, spec, nil
}

// resolveField looks a clause's field up in the indice mapping. An
// unknown path is a parse error; a mapper outside the supported types
// is a shard error naming the field, its type and the query kind.
func resolveField(ind *engine.Indice, field, kind string, types ...mapping.Type) (*mapping.Field, error) {
	mapper, ok := ind.FieldMapper(field)
	if !ok {
		return nil, domain.Parsing("no mapper found for field [%s]", field)
	}
	for _, t := range types {
		if mapper.Type == t {
			return mapper, nil
		}
	}
	return nil, domain.QueryShard(field, string(mapper.Type), kind)
}

type matchAllQuery struct{}

func parseMatchAll(v any) (Query, error) {
	if _, err := asObject("match_all", v); err != nil {
		return nil, err
	}
	return matchAllQuery{}, nil
}

func (matchAllQuery) Resolve(*engine.Indice) error { return nil }

func (matchAllQuery) Match(*engine.Indice, *document.Document) (bool, error) {
	return true, nil
}
