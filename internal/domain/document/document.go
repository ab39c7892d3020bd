// Package document defines the stored document envelope and the source
// merge used by partial updates.
package document

import "strings"

// DocType is the single document type every indice carries.
const DocType = "_doc"

// Document is one stored document with its versioning metadata.
type Document struct {
	ID          string
	Source      map[string]any
	SeqNo       int64
	PrimaryTerm int64
	Version     int64
}

// Lookup resolves a dotted path against the source. Absent segments
// report false.
func (d *Document) Lookup(path string) (any, bool) {
	return LookupPath(d.Source, path)
}

// LookupPath resolves a dotted path against a source object.
func LookupPath(source map[string]any, path string) (any, bool) {
	node := any(source)
	start := 0
	for start <= len(path) {
		end := start
		for end < len(path) && path[end] != '.' {
			end++
		}
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = obj[path[start:end]]
		if !ok {
			return nil, false
		}
		if end == len(path) {
			return node, true
		}
		start = end + 1
	}
	return nil, false
}

// ExtractPath collects every value reachable at a dotted path,
// descending through arrays of objects along the way. Scalars come
// back flattened; a missing path yields an empty list.
func ExtractPath(source map[string]any, path string) []any {
	return extract(source, path)
}

func extract(node any, path string) []any {
	if arr, ok := node.([]any); ok {
		var out []any
		for _, el := range arr {
			out = append(out, extract(el, path)...)
		}
		return out
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	seg := path
	rest := ""
	if i := strings.IndexByte(path, '.'); i >= 0 {
		seg, rest = path[:i], path[i+1:]
	}
	child, ok := obj[seg]
	if !ok || child == nil {
		return nil
	}
	if rest == "" {
		if arr, isArr := child.([]any); isArr {
			var out []any
			for _, el := range arr {
				if el != nil {
					out = append(out, el)
				}
			}
			return out
		}
		return []any{child}
	}
	return extract(child, rest)
}

// ExtractLeaves is ExtractPath without the final unwrap: a leaf array
// comes back as one value. Geo point fields need this, where an array
// leaf is a coordinate pair rather than a list of values.
func ExtractLeaves(source map[string]any, path string) []any {
	return extractLeaves(source, path)
}

func extractLeaves(node any, path string) []any {
	obj, ok := node.(map[string]any)
	if !ok {
		if arr, isArr := node.([]any); isArr {
			var out []any
			for _, el := range arr {
				out = append(out, extractLeaves(el, path)...)
			}
			return out
		}
		return nil
	}
	seg := path
	rest := ""
	if i := strings.IndexByte(path, '.'); i >= 0 {
		seg, rest = path[:i], path[i+1:]
	}
	child, ok := obj[seg]
	if !ok || child == nil {
		return nil
	}
	if rest == "" {
		return []any{child}
	}
	return extractLeaves(child, rest)
}

// MergeSource overlays a partial document onto a base source, the way
// a doc update does: objects merge recursively, scalars and arrays
// replace. The inputs are not mutated.
func MergeSource(base, partial map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		bv, ok := out[k]
		if ok {
			bo, baseIsObj := bv.(map[string]any)
			po, partIsObj := v.(map[string]any)
			if baseIsObj && partIsObj {
				out[k] = MergeSource(bo, po)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// CloneSource deep-copies a source object so stored documents cannot be
// mutated through retained caller references.
func CloneSource(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}
	out := make(map[string]any, len(source))
	for k, v := range source {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneSource(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneValue(el)
		}
		return out
	default:
		return v
	}
}
