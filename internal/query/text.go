package query

import (
	"strings"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/domain/mapping"
	"github.com/kailas-cloud/elastimock/internal/domain/value"
	"github.com/kailas-cloud/elastimock/internal/engine"
)

type matchQuery struct {
	field    string
	text     string
	operator string
}

func parseMatch(v any) (Query, error) {
	params, err := asObject("match", v)
	if err != nil {
		return nil, err
	}
	field, spec, err := singleField("match", params, nil)
	if err != nil {
		return nil, err
	}

	q := matchQuery{field: field, operator: "or"}
	switch s := spec.(type) {
	case string:
		q.text = s
	case map[string]any:
		text, ok := s["query"].(string)
		if !ok {
			return nil, domain.Parsing("[match] query malformed, no [query] specified for field [%s]", field)
		}
		q.text = text
		if op, ok := s["operator"].(string); ok {
			op = strings.ToLower(op)
			if op != "or" && op != "and" {
				return nil, domain.IllegalArgument("operator [%s] not supported for [match] query", op)
			}
			q.operator = op
		}
	default:
		return nil, domain.Parsing("[match] query malformed, value must be a string or an object")
	}
	return q, nil
}

func (q matchQuery) Resolve(ind *engine.Indice) error {
	_, err := resolveField(ind, q.field, "match", termTypes...)
	return err
}

func (q matchQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	tokens, err := queryTokens(ind, q.field, q.text)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, nil
	}
	matched := 0
	for _, token := range tokens {
		ok, err := matchTerm(ind, doc, q.field, token)
		if err != nil {
			return false, err
		}
		if ok {
			matched++
		}
	}
	if q.operator == "and" {
		return matched == len(tokens), nil
	}
	return matched > 0, nil
}

type matchBoolPrefixQuery struct {
	field string
	text  string
}

func parseMatchBoolPrefix(v any) (Query, error) {
	params, err := asObject("match_bool_prefix", v)
	if err != nil {
		return nil, err
	}
	field, spec, err := singleField("match_bool_prefix", params, nil)
	if err != nil {
		return nil, err
	}
	q := matchBoolPrefixQuery{field: field}
	switch s := spec.(type) {
	case string:
		q.text = s
	case map[string]any:
		text, ok := s["query"].(string)
		if !ok {
			return nil, domain.Parsing("[match_bool_prefix] query malformed, no [query] specified for field [%s]", field)
		}
		q.text = text
	default:
		return nil, domain.Parsing("[match_bool_prefix] query malformed, value must be a string or an object")
	}
	return q, nil
}

func (q matchBoolPrefixQuery) Resolve(ind *engine.Indice) error {
	_, err := resolveField(ind, q.field, "match_bool_prefix", mapping.TypeText, mapping.TypeKeyword)
	return err
}

// Match treats every token but the last as a term and the last as a
// prefix, mirroring search-as-you-type behavior.
func (q matchBoolPrefixQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	tokens, err := queryTokens(ind, q.field, q.text)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, nil
	}
	last := tokens[len(tokens)-1]
	for _, token := range tokens[:len(tokens)-1] {
		ok, err := matchTerm(ind, doc, q.field, token)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return matchTokenPrefix(ind, doc, q.field, last)
}

func matchTokenPrefix(ind *engine.Indice, doc *document.Document, field, prefix string) (bool, error) {
	mapper, ok := ind.FieldMapper(field)
	if !ok {
		return false, nil
	}
	values := document.ExtractPath(doc.Source, mapper.SourcePath)

	switch mapper.Type {
	case mapping.TypeText:
		analyzed, err := analyzedValues(ind, mapper, values)
		if err != nil {
			return false, err
		}
		for _, txt := range analyzed {
			for _, token := range txt.Tokens {
				if strings.HasPrefix(token, prefix) {
					return true, nil
				}
			}
		}
	case mapping.TypeKeyword:
		for _, v := range values {
			s, err := value.ParseKeyword(v)
			if err != nil {
				return false, err
			}
			if strings.HasPrefix(s, prefix) {
				return true, nil
			}
		}
	default:
		return false, domain.QueryShard(field, string(mapper.Type), "match_bool_prefix")
	}
	return false, nil
}

// queryTokens analyzes the query text with the target field's analyzer.
// Non-text fields see the whole text as one token.
func queryTokens(ind *engine.Indice, field, text string) ([]string, error) {
	mapper, ok := ind.FieldMapper(field)
	if !ok || mapper.Type != mapping.TypeText {
		return []string{text}, nil
	}
	a, err := ind.AnalyzerFor(mapper)
	if err != nil {
		return nil, err
	}
	txt, err := value.ParseText(text, a)
	if err != nil {
		return nil, err
	}
	return txt.Tokens, nil
}

type multiMatchQuery struct {
	perField []Query
}

func parseMultiMatch(v any) (Query, error) {
	params, err := asObject("multi_match", v)
	if err != nil {
		return nil, err
	}
	text, ok := params["query"].(string)
	if !ok {
		return nil, domain.Parsing("[multi_match] query malformed, no [query] specified")
	}
	rawFields, ok := params["fields"].([]any)
	if !ok || len(rawFields) == 0 {
		return nil, domain.Parsing("[multi_match] query malformed, no [fields] specified")
	}
	kind := "best_fields"
	if k, ok := params["type"].(string); ok {
		kind = k
	}
	for key := range params {
		switch key {
		case "query", "fields", "type", "tie_breaker":
		default:
			return nil, domain.Parsing("[multi_match] query does not support [%s]", key)
		}
	}

	q := multiMatchQuery{}
	for _, rf := range rawFields {
		field, ok := rf.(string)
		if !ok {
			return nil, domain.Parsing("[multi_match] query malformed, fields must be strings")
		}
		switch kind {
		case "best_fields":
			q.perField = append(q.perField, matchQuery{field: field, text: text, operator: "or"})
		case "bool_prefix":
			q.perField = append(q.perField, matchBoolPrefixQuery{field: field, text: text})
		default:
			return nil, domain.IllegalArgument("unsupported multi_match type [%s]", kind)
		}
	}
	return q, nil
}

func (q multiMatchQuery) Resolve(ind *engine.Indice) error {
	for _, sub := range q.perField {
		if err := sub.Resolve(ind); err != nil {
			return err
		}
	}
	return nil
}

func (q multiMatchQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	for _, sub := range q.perField {
		ok, err := sub.Match(ind, doc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
