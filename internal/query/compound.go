package query

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/engine"
)

type boolQuery struct {
	must    []Query
	filter  []Query
	should  []Query
	mustNot []Query
	// minimumShouldMatch is nil when the default applies
	minimumShouldMatch *int
}

func parseBool(v any) (Query, error) {
	params, err := asObject("bool", v)
	if err != nil {
		return nil, err
	}

	q := boolQuery{}
	for key, raw := range params {
		switch key {
		case "must":
			q.must, err = parseClauseList("must", raw)
		case "filter":
			q.filter, err = parseClauseList("filter", raw)
		case "should":
			q.should, err = parseClauseList("should", raw)
		case "must_not":
			q.mustNot, err = parseClauseList("must_not", raw)
		case "minimum_should_match":
			var msm int
			msm, err = parseMinimumShouldMatch(raw)
			if err == nil {
				q.minimumShouldMatch = &msm
			}
		case "boost":
		default:
			err = domain.Parsing("[bool] query does not support [%s]", key)
		}
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

func parseClauseList(occur string, raw any) ([]Query, error) {
	var clauses []any
	switch t := raw.(type) {
	case []any:
		clauses = t
	case map[string]any:
		clauses = []any{t}
	default:
		return nil, domain.Parsing("malformed [%s] clause, expected an object or a list", occur)
	}
	out := make([]Query, 0, len(clauses))
	for _, c := range clauses {
		body, ok := c.(map[string]any)
		if !ok {
			return nil, domain.Parsing("malformed [%s] clause, expected an object", occur)
		}
		sub, err := Parse(body)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func parseMinimumShouldMatch(raw any) (int, error) {
	switch t := raw.(type) {
	case float64:
		n := int(t)
		if float64(n) != t {
			return 0, domain.IllegalArgument("failed to parse minimum_should_match [%v]", raw)
		}
		return n, nil
	case int:
		return t, nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, domain.IllegalArgument("failed to parse minimum_should_match [%v]", raw)
		}
		return int(n), nil
	case string:
		if strings.HasSuffix(t, "%") {
			return 0, domain.IllegalArgument("percentage minimum_should_match [%s] is not supported", t)
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, domain.IllegalArgument("failed to parse minimum_should_match [%s]", t)
		}
		return n, nil
	default:
		return 0, domain.IllegalArgument("failed to parse minimum_should_match [%v]", raw)
	}
}

func (q boolQuery) Resolve(ind *engine.Indice) error {
	for _, list := range [][]Query{q.must, q.filter, q.should, q.mustNot} {
		for _, sub := range list {
			if err := sub.Resolve(ind); err != nil {
				return err
			}
		}
	}
	return nil
}

func (q boolQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	for _, sub := range q.must {
		ok, err := sub.Match(ind, doc)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, sub := range q.filter {
		ok, err := sub.Match(ind, doc)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, sub := range q.mustNot {
		ok, err := sub.Match(ind, doc)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}

	matched := 0
	for _, sub := range q.should {
		ok, err := sub.Match(ind, doc)
		if err != nil {
			return false, err
		}
		if ok {
			matched++
		}
	}
	return matched >= q.requiredShould(), nil
}

// requiredShould resolves the minimum_should_match in effect: explicit
// values count from the end of the list when negative, and the default
// is one when should clauses stand alone, zero otherwise.
func (q boolQuery) requiredShould() int {
	if q.minimumShouldMatch != nil {
		n := *q.minimumShouldMatch
		if n < 0 {
			n = len(q.should) + n
		}
		return n
	}
	if len(q.should) > 0 && len(q.must) == 0 && len(q.filter) == 0 {
		return 1
	}
	return 0
}

type disMaxQuery struct {
	queries []Query
}

func parseDisMax(v any) (Query, error) {
	params, err := asObject("dis_max", v)
	if err != nil {
		return nil, err
	}
	raw, ok := params["queries"]
	if !ok {
		return nil, domain.Parsing("[dis_max] query malformed, no [queries] specified")
	}
	for key := range params {
		switch key {
		case "queries", "tie_breaker", "boost":
		default:
			return nil, domain.Parsing("[dis_max] query does not support [%s]", key)
		}
	}
	subs, err := parseClauseList("queries", raw)
	if err != nil {
		return nil, err
	}
	return disMaxQuery{queries: subs}, nil
}

func (q disMaxQuery) Resolve(ind *engine.Indice) error {
	for _, sub := range q.queries {
		if err := sub.Resolve(ind); err != nil {
			return err
		}
	}
	return nil
}

// Match is a plain disjunction: without scoring, dis_max and a should
// list behave the same.
func (q disMaxQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	for _, sub := range q.queries {
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
