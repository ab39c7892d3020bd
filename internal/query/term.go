package query

import (
	"strings"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/domain/mapping"
	"github.com/kailas-cloud/elastimock/internal/domain/value"
	"github.com/kailas-cloud/elastimock/internal/engine"
)

type termQuery struct {
	field string
	value any
}

func parseTerm(v any) (Query, error) {
	params, err := asObject("term", v)
	if err != nil {
		return nil, err
	}
	field, spec, err := singleField("term", params, nil)
	if err != nil {
		return nil, err
	}
	q := termQuery{field: field}
	switch s := spec.(type) {
	case map[string]any:
		val, ok := s["value"]
		if !ok {
			return nil, domain.Parsing("[term] query malformed, no [value] specified for field [%s]", field)
		}
		for k := range s {
			if k != "value" && k != "boost" && k != "case_insensitive" {
				return nil, domain.Parsing("[term] query does not support [%s]", k)
			}
		}
		q.value = val
	default:
		q.value = spec
	}
	return q, nil
}

// termTypes are the field types exact-value matching supports.
var termTypes = []mapping.Type{
	mapping.TypeKeyword, mapping.TypeBoolean, mapping.TypeLong,
	mapping.TypeFloat, mapping.TypeDouble, mapping.TypeDate, mapping.TypeText,
}

func (q termQuery) Resolve(ind *engine.Indice) error {
	_, err := resolveField(ind, q.field, "term", termTypes...)
	return err
}

func (q termQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	return matchTerm(ind, doc, q.field, q.value)
}

// matchTerm implements exact-value matching for a single field. Multi
// valued fields match when any stored value does; a mapped field whose
// value is absent from the document never matches. Unknown fields are
// rejected earlier, during Resolve.
func matchTerm(ind *engine.Indice, doc *document.Document, field string, queryValue any) (bool, error) {
	mapper, ok := ind.FieldMapper(field)
	if !ok {
		return false, nil
	}
	values := document.ExtractPath(doc.Source, mapper.SourcePath)
	if len(values) == 0 {
		return false, nil
	}

	switch mapper.Type {
	case mapping.TypeKeyword:
		want, err := value.ParseKeyword(queryValue)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			got, err := value.ParseKeyword(v)
			if err != nil {
				return false, err
			}
			if got == want {
				return true, nil
			}
		}
	case mapping.TypeBoolean:
		want, err := value.ParseBoolean(queryValue)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			got, err := value.ParseBoolean(v)
			if err != nil {
				return false, err
			}
			if got == want {
				return true, nil
			}
		}
	case mapping.TypeLong:
		want, err := value.ParseLong(queryValue)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			got, err := value.ParseLong(v)
			if err != nil {
				return false, err
			}
			if got == want {
				return true, nil
			}
		}
	case mapping.TypeFloat:
		want, err := value.ParseFloat(queryValue)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			got, err := value.ParseFloat(v)
			if err != nil {
				return false, err
			}
			if got == want {
				return true, nil
			}
		}
	case mapping.TypeDouble:
		want, err := value.ParseDouble(queryValue)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			got, err := value.ParseDouble(v)
			if err != nil {
				return false, err
			}
			if got.Equal(want) {
				return true, nil
			}
		}
	case mapping.TypeDate:
		want, err := value.ParseDate(queryValue, mapper.Format)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			got, err := value.ParseDate(v, mapper.Format)
			if err != nil {
				return false, err
			}
			if got.Time.Equal(want.Time) {
				return true, nil
			}
		}
	case mapping.TypeText:
		token, err := value.ParseKeyword(queryValue)
		if err != nil {
			return false, err
		}
		analyzed, err := analyzedValues(ind, mapper, values)
		if err != nil {
			return false, err
		}
		for _, txt := range analyzed {
			if txt.Contains(token) {
				return true, nil
			}
		}
	default:
		return false, domain.QueryShard(field, string(mapper.Type), "term")
	}
	return false, nil
}

func analyzedValues(ind *engine.Indice, mapper *mapping.Field, values []any) ([]value.Text, error) {
	a, err := ind.AnalyzerFor(mapper)
	if err != nil {
		return nil, err
	}
	out := make([]value.Text, 0, len(values))
	for _, v := range values {
		txt, err := value.ParseText(v, a)
		if err != nil {
			return nil, err
		}
		out = append(out, txt)
	}
	return out, nil
}

type prefixQuery struct {
	field string
	value string
}

func parsePrefix(v any) (Query, error) {
	params, err := asObject("prefix", v)
	if err != nil {
		return nil, err
	}
	field, spec, err := singleField("prefix", params, nil)
	if err != nil {
		return nil, err
	}
	q := prefixQuery{field: field}
	switch s := spec.(type) {
	case string:
		q.value = s
	case map[string]any:
		val, ok := s["value"].(string)
		if !ok {
			return nil, domain.Parsing("[prefix] query malformed, no [value] specified for field [%s]", field)
		}
		q.value = val
	default:
		return nil, domain.Parsing("[prefix] query malformed, value must be a string")
	}
	return q, nil
}

func (q prefixQuery) Resolve(ind *engine.Indice) error {
	_, err := resolveField(ind, q.field, "prefix", mapping.TypeKeyword)
	return err
}

func (q prefixQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	mapper, ok := ind.FieldMapper(q.field)
	if !ok {
		return false, nil
	}
	if mapper.Type != mapping.TypeKeyword {
		return false, domain.QueryShard(q.field, string(mapper.Type), "prefix")
	}
	for _, v := range document.ExtractPath(doc.Source, mapper.SourcePath) {
		s, err := value.ParseKeyword(v)
		if err != nil {
			return false, err
		}
		if strings.HasPrefix(s, q.value) {
			return true, nil
		}
	}
	return false, nil
}
