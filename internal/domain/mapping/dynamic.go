package mapping

import (
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/value"
)

// DynamicMap introduces mappers for the unmapped fields of a document
// source according to the dynamic policy in effect at each object
// level. The tree is only mutated when the whole source is accepted.
func (t *Tree) DynamicMap(source map[string]any) error {
	staged := make(map[string]*Field)
	if err := t.dynamicWalk("", source, t.dynamic, staged); err != nil {
		return err
	}
	for path, f := range staged {
		t.fields[path] = f
	}
	return nil
}

func (t *Tree) dynamicWalk(prefix string, obj map[string]any, policy Dynamic, staged map[string]*Field) error {
	for name, raw := range obj {
		path := join(prefix, name)

		if existing, ok := t.fields[path]; ok {
			if existing.Type == TypeObject {
				childPolicy := policy
				if existing.Dynamic != "" {
					childPolicy = existing.Dynamic
				}
				if err := t.dynamicDescend(path, raw, childPolicy, staged); err != nil {
					return err
				}
			}
			continue
		}
		if _, ok := staged[path]; ok {
			if staged[path].Type == TypeObject {
				if err := t.dynamicDescend(path, raw, policy, staged); err != nil {
					return err
				}
			}
			continue
		}

		leaves := value.Flatten(raw)
		if len(leaves) == 0 {
			continue
		}
		probe := leaves[0]

		switch policy {
		case DynamicFalse:
			// stored but not indexed
			continue
		case DynamicStrict:
			return domain.StrictDynamicMapping(name, parentName(path))
		}

		if child, ok := probe.(map[string]any); ok {
			// only the true policy introduces object mappers; runtime
			// leaves the whole subtree unmapped
			if policy != DynamicTrue {
				continue
			}
			staged[path] = &Field{Path: path, SourcePath: path, Type: TypeObject}
			if err := t.dynamicWalk(path, child, policy, staged); err != nil {
				return err
			}
			continue
		}

		f, ok := t.infer(path, probe, policy)
		if ok {
			staged[path] = f
		}
	}
	return nil
}

func (t *Tree) dynamicDescend(path string, raw any, policy Dynamic, staged map[string]*Field) error {
	for _, el := range value.Flatten(raw) {
		child, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if err := t.dynamicWalk(path, child, policy, staged); err != nil {
			return err
		}
	}
	return nil
}

// infer picks a mapper type for an unmapped scalar. Under the runtime
// policy strings with decimal literals become doubles and free text
// becomes a keyword; under true they become floats and analyzed text.
func (t *Tree) infer(path string, probe any, policy Dynamic) (*Field, bool) {
	f := &Field{Path: path, SourcePath: path}
	switch v := probe.(type) {
	case bool:
		f.Type = TypeBoolean
	case int:
		f.Type = TypeLong
	case int64:
		f.Type = TypeLong
	case json.Number:
		// keeps 1 and 1.0 apart, which float64 decoding cannot
		if _, err := v.Int64(); err == nil {
			f.Type = TypeLong
		} else if policy == DynamicRuntime {
			f.Type = TypeDouble
		} else {
			f.Type = TypeFloat
		}
	case float64:
		if v == float64(int64(v)) {
			f.Type = TypeLong
		} else if policy == DynamicRuntime {
			f.Type = TypeDouble
		} else {
			f.Type = TypeFloat
		}
	case string:
		switch {
		case t.numericDetection && value.LooksLikeLong(v):
			f.Type = TypeLong
		case t.numericDetection && value.LooksLikeDecimal(v):
			if policy == DynamicRuntime {
				f.Type = TypeDouble
			} else {
				f.Type = TypeFloat
			}
		case t.dateDetection && t.matchDateFormat(v) != "":
			f.Type = TypeDate
			f.Format = t.matchDateFormat(v)
		case policy == DynamicRuntime:
			f.Type = TypeKeyword
		default:
			f.Type = TypeText
		}
	default:
		return nil, false
	}
	return f, true
}

func (t *Tree) matchDateFormat(s string) string {
	for _, format := range t.dynamicDateFormats {
		if _, err := value.ParseDate(s, format); err == nil {
			return format
		}
	}
	return ""
}

func parentName(path string) string {
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return "_doc"
	}
	return segments[len(segments)-2]
}
