package query

import (
	"time"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/domain/mapping"
	"github.com/kailas-cloud/elastimock/internal/domain/value"
	"github.com/kailas-cloud/elastimock/internal/engine"
)

type rangeQuery struct {
	field  string
	gt     any
	gte    any
	lt     any
	lte    any
	format string
}

func parseRange(v any) (Query, error) {
	params, err := asObject("range", v)
	if err != nil {
		return nil, err
	}
	field, spec, err := singleField("range", params, nil)
	if err != nil {
		return nil, err
	}
	bounds, err := asObject("range", spec)
	if err != nil {
		return nil, err
	}

	q := rangeQuery{field: field}
	for k, bv := range bounds {
		switch k {
		case "gt":
			q.gt = bv
		case "gte":
			q.gte = bv
		case "lt":
			q.lt = bv
		case "lte":
			q.lte = bv
		case "format":
			q.format, _ = bv.(string)
		case "boost", "relation", "time_zone":
			// accepted, no effect on matching
		default:
			return nil, domain.Parsing("[range] query does not support [%s]", k)
		}
	}
	return q, nil
}

func (q rangeQuery) Resolve(ind *engine.Indice) error {
	_, err := resolveField(ind, q.field, "range",
		mapping.TypeLong, mapping.TypeFloat, mapping.TypeDouble, mapping.TypeDate)
	return err
}

func (q rangeQuery) Match(ind *engine.Indice, doc *document.Document) (bool, error) {
	mapper, ok := ind.FieldMapper(q.field)
	if !ok {
		return false, nil
	}
	values := document.ExtractPath(doc.Source, mapper.SourcePath)
	if len(values) == 0 {
		return false, nil
	}

	switch mapper.Type {
	case mapping.TypeLong:
		return q.matchLong(values)
	case mapping.TypeFloat:
		return q.matchFloat(values)
	case mapping.TypeDouble:
		return q.matchDouble(values)
	case mapping.TypeDate:
		return q.matchDate(mapper, values)
	default:
		return false, domain.QueryShard(q.field, string(mapper.Type), "range")
	}
}

func (q rangeQuery) matchLong(values []any) (bool, error) {
	for _, v := range values {
		got, err := value.ParseLong(v)
		if err != nil {
			return false, err
		}
		ok, err := q.within(func(bound any) (int, error) {
			b, err := value.ParseLong(bound)
			if err != nil {
				return 0, err
			}
			switch {
			case got < b:
				return -1, nil
			case got > b:
				return 1, nil
			default:
				return 0, nil
			}
		})
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (q rangeQuery) matchFloat(values []any) (bool, error) {
	for _, v := range values {
		got, err := value.ParseFloat(v)
		if err != nil {
			return false, err
		}
		ok, err := q.within(func(bound any) (int, error) {
			b, err := value.ParseFloat(bound)
			if err != nil {
				return 0, err
			}
			switch {
			case got < b:
				return -1, nil
			case got > b:
				return 1, nil
			default:
				return 0, nil
			}
		})
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (q rangeQuery) matchDouble(values []any) (bool, error) {
	for _, v := range values {
		got, err := value.ParseDouble(v)
		if err != nil {
			return false, err
		}
		ok, err := q.within(func(bound any) (int, error) {
			b, err := value.ParseDouble(bound)
			if err != nil {
				return 0, err
			}
			return got.Cmp(b), nil
		})
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (q rangeQuery) matchDate(mapper *mapping.Field, values []any) (bool, error) {
	format := mapper.Format
	if q.format != "" {
		format = q.format
	}
	for _, v := range values {
		got, err := value.ParseDate(v, mapper.Format)
		if err != nil {
			return false, err
		}
		ok, err := q.within(func(bound any) (int, error) {
			t, err := q.boundTime(bound, format)
			if err != nil {
				return 0, err
			}
			switch {
			case got.Time.Before(t):
				return -1, nil
			case got.Time.After(t):
				return 1, nil
			default:
				return 0, nil
			}
		})
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (q rangeQuery) boundTime(bound any, format string) (time.Time, error) {
	if s, ok := bound.(string); ok && value.IsDateMath(s) {
		return value.ResolveDateMath(s, time.Now().UTC(), format)
	}
	d, err := value.ParseDate(bound, format)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

// within reports whether a stored value satisfies every bound set on
// the query. cmp returns the ordering of the stored value against one
// bound value.
func (q rangeQuery) within(cmp func(bound any) (int, error)) (bool, error) {
	check := func(bound any, pass func(int) bool) (bool, error) {
		if bound == nil {
			return true, nil
		}
		c, err := cmp(bound)
		if err != nil {
			return false, err
		}
		return pass(c), nil
	}

	ok, err := check(q.gt, func(c int) bool { return c > 0 })
	if err != nil || !ok {
		return false, err
	}
	ok, err = check(q.gte, func(c int) bool { return c >= 0 })
	if err != nil || !ok {
		return false, err
	}
	ok, err = check(q.lt, func(c int) bool { return c < 0 })
	if err != nil || !ok {
		return false, err
	}
	return check(q.lte, func(c int) bool { return c <= 0 })
}
