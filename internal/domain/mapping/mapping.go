// Package mapping implements the field mapping engine: explicit mapping
// bodies are parsed and merged into a flat field tree, and unmapped
// document fields are introduced through dynamic inference.
package mapping

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/elastimock/internal/domain"
	"github.com/kailas-cloud/elastimock/internal/domain/value"
)

// Type identifies a field mapper kind.
type Type string

const (
	TypeObject   Type = "object"
	TypeKeyword  Type = "keyword"
	TypeBoolean  Type = "boolean"
	TypeLong     Type = "long"
	TypeFloat    Type = "float"
	TypeDouble   Type = "double"
	TypeDate     Type = "date"
	TypeText     Type = "text"
	TypeGeoPoint Type = "geo_point"
	TypeGeoShape Type = "geo_shape"
)

var knownTypes = map[Type]bool{
	TypeObject: true, TypeKeyword: true, TypeBoolean: true,
	TypeLong: true, TypeFloat: true, TypeDouble: true,
	TypeDate: true, TypeText: true, TypeGeoPoint: true, TypeGeoShape: true,
}

// Dynamic is an object-level mapping policy.
type Dynamic string

const (
	DynamicTrue    Dynamic = "true"
	DynamicFalse   Dynamic = "false"
	DynamicStrict  Dynamic = "strict"
	DynamicRuntime Dynamic = "runtime"
)

// Field is a single mapper in the tree. SourcePath names the location
// in the document source the mapper reads; it differs from Path for
// multi-fields, which index a sibling of their parent's value.
type Field struct {
	Path       string
	SourcePath string
	Type       Type
	Format     string  // date only
	Analyzer   string  // text only
	Dynamic    Dynamic // object only, empty means inherit
}

// Name returns the last path segment.
func (f *Field) Name() string {
	if i := strings.LastIndexByte(f.Path, '.'); i >= 0 {
		return f.Path[i+1:]
	}
	return f.Path
}

// Tree holds the mapping of one indice as a flat path-to-mapper map.
type Tree struct {
	fields             map[string]*Field
	dynamic            Dynamic
	dynamicDateFormats []string
	dateDetection      bool
	numericDetection   bool
}

// NewTree returns an empty mapping with dynamic mapping enabled.
func NewTree() *Tree {
	return &Tree{
		fields:             make(map[string]*Field),
		dynamic:            DynamicTrue,
		dynamicDateFormats: value.DefaultDynamicDateFormats,
		dateDetection:      true,
		numericDetection:   true,
	}
}

// Field looks up the mapper at a dotted path.
func (t *Tree) Field(path string) (*Field, bool) {
	f, ok := t.fields[path]
	return f, ok
}

// Fields returns all mappers sorted by path.
func (t *Tree) Fields() []*Field {
	out := make([]*Field, 0, len(t.fields))
	for _, f := range t.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Dynamic returns the root dynamic policy.
func (t *Tree) Dynamic() Dynamic { return t.dynamic }

// DynamicDateFormats returns the formats date detection probes with.
func (t *Tree) DynamicDateFormats() []string { return t.dynamicDateFormats }

// DateDetection reports whether unmapped strings are probed as dates.
func (t *Tree) DateDetection() bool { return t.dateDetection }

// NumericDetection reports whether unmapped strings are probed as numbers.
func (t *Tree) NumericDetection() bool { return t.numericDetection }

// Merge validates a mapping body and applies it on top of the current
// tree. Validation covers the whole body before any mapper is stored,
// so a rejected merge leaves the tree untouched.
func (t *Tree) Merge(body map[string]any) error {
	staged := make([]*Field, 0)
	var stagedDynamic *Dynamic
	var stagedFormats []string
	var stagedDateDetection, stagedNumericDetection *bool

	for key, v := range body {
		switch key {
		case "dynamic":
			d, err := parseDynamic(v)
			if err != nil {
				return err
			}
			stagedDynamic = &d
		case "date_detection":
			b, ok := v.(bool)
			if !ok {
				return domain.MapperParsing("failed to parse [date_detection], value [%v]", v)
			}
			stagedDateDetection = &b
		case "numeric_detection":
			b, ok := v.(bool)
			if !ok {
				return domain.MapperParsing("failed to parse [numeric_detection], value [%v]", v)
			}
			stagedNumericDetection = &b
		case "dynamic_date_formats":
			formats, err := parseStringList(v)
			if err != nil {
				return domain.MapperParsing("failed to parse [dynamic_date_formats], value [%v]", v)
			}
			stagedFormats = formats
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				return domain.MapperParsing("failed to parse [properties], expected an object")
			}
			fields, err := parseProperties("", props)
			if err != nil {
				return err
			}
			staged = append(staged, fields...)
		default:
			return domain.MapperParsing("unknown key [%s] in mapping definition", key)
		}
	}

	for _, f := range staged {
		if existing, ok := t.fields[f.Path]; ok && existing.Type != f.Type {
			return domain.TypeConflict(f.Path, string(existing.Type), string(f.Type))
		}
	}

	for _, f := range staged {
		if existing, ok := t.fields[f.Path]; ok {
			existing.applyUpdate(f)
			continue
		}
		t.fields[f.Path] = f
	}
	if stagedDynamic != nil {
		t.dynamic = *stagedDynamic
	}
	if stagedFormats != nil {
		t.dynamicDateFormats = stagedFormats
	}
	if stagedDateDetection != nil {
		t.dateDetection = *stagedDateDetection
	}
	if stagedNumericDetection != nil {
		t.numericDetection = *stagedNumericDetection
	}
	return nil
}

// applyUpdate folds a re-merged spec into an existing mapper. Only the
// parameters the new spec actually carries change; everything else the
// mapper already holds is kept.
func (f *Field) applyUpdate(in *Field) {
	if in.Format != "" {
		f.Format = in.Format
	}
	if in.Analyzer != "" {
		f.Analyzer = in.Analyzer
	}
	if in.Dynamic != "" {
		f.Dynamic = in.Dynamic
	}
}

func parseProperties(prefix string, props map[string]any) ([]*Field, error) {
	var out []*Field
	for name, raw := range props {
		spec, ok := raw.(map[string]any)
		if !ok {
			return nil, domain.MapperParsing("failed to parse mapping for [%s], expected an object", join(prefix, name))
		}
		fields, err := parseFieldSpec(join(prefix, name), spec)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}

func parseFieldSpec(path string, spec map[string]any) ([]*Field, error) {
	ft := TypeObject
	if raw, ok := spec["type"]; ok {
		s, _ := raw.(string)
		ft = Type(s)
	}
	if !knownTypes[ft] {
		return nil, domain.MapperParsing("No handler for type [%s] declared on field [%s]", ft, lastSegment(path))
	}

	f := &Field{Path: path, SourcePath: path, Type: ft}
	var out []*Field

	for param, v := range spec {
		switch {
		case param == "type":
		case param == "format" && ft == TypeDate:
			f.Format, _ = v.(string)
		case param == "analyzer" && ft == TypeText:
			f.Analyzer, _ = v.(string)
		case param == "dynamic" && ft == TypeObject:
			d, err := parseDynamic(v)
			if err != nil {
				return nil, err
			}
			f.Dynamic = d
		case param == "properties" && ft == TypeObject:
			props, ok := v.(map[string]any)
			if !ok {
				return nil, domain.MapperParsing("failed to parse mapping for [%s], expected an object under [properties]", path)
			}
			children, err := parseProperties(path, props)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		case param == "fields" && (ft == TypeText || ft == TypeKeyword):
			subs, ok := v.(map[string]any)
			if !ok {
				return nil, domain.MapperParsing("failed to parse mapping for [%s], expected an object under [fields]", path)
			}
			multi, err := parseMultiFields(path, subs)
			if err != nil {
				return nil, err
			}
			out = append(out, multi...)
		default:
			return nil, domain.MapperParsing("unknown parameter [%s] on mapper [%s] of type [%s]", param, lastSegment(path), ft)
		}
	}

	return append(out, f), nil
}

func parseMultiFields(parent string, subs map[string]any) ([]*Field, error) {
	var out []*Field
	for name, raw := range subs {
		spec, ok := raw.(map[string]any)
		if !ok {
			return nil, domain.MapperParsing("failed to parse mapping for [%s.%s], expected an object", parent, name)
		}
		fields, err := parseFieldSpec(join(parent, name), spec)
		if err != nil {
			return nil, err
		}
		// a multi-field indexes its parent's source value
		for _, f := range fields {
			f.SourcePath = parent
		}
		out = append(out, fields...)
	}
	return out, nil
}

func parseDynamic(v any) (Dynamic, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return DynamicTrue, nil
		}
		return DynamicFalse, nil
	case string:
		switch Dynamic(t) {
		case DynamicTrue, DynamicFalse, DynamicStrict, DynamicRuntime:
			return Dynamic(t), nil
		}
	}
	return "", domain.MapperParsing("failed to parse [dynamic], value [%v]", v)
}

func parseStringList(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, domain.ErrMapperParsing
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, domain.ErrMapperParsing
		}
		out = append(out, s)
	}
	return out, nil
}

// ToMap renders the tree back into a nested mapping body. The output
// round-trips: feeding it to Merge reproduces the same tree.
func (t *Tree) ToMap() map[string]any {
	root := map[string]any{"dynamic": string(t.dynamic)}
	if !t.dateDetection {
		root["date_detection"] = false
	}
	if !t.numericDetection {
		root["numeric_detection"] = false
	}
	for _, f := range t.Fields() {
		if f.SourcePath != f.Path {
			continue // multi-field, rendered under its parent below
		}
		fillFieldSpec(specNode(root, f.Path), f)
	}
	for _, f := range t.Fields() {
		if f.SourcePath == f.Path {
			continue
		}
		parent := specNode(root, f.SourcePath)
		subs, _ := parent["fields"].(map[string]any)
		if subs == nil {
			subs = make(map[string]any)
			parent["fields"] = subs
		}
		sub := make(map[string]any)
		fillFieldSpec(sub, f)
		subs[f.Name()] = sub
	}
	return root
}

// specNode walks to the spec object at a dotted path, creating the
// intermediate properties objects as needed.
func specNode(root map[string]any, path string) map[string]any {
	node := root
	for _, seg := range strings.Split(path, ".") {
		props, _ := node["properties"].(map[string]any)
		if props == nil {
			props = make(map[string]any)
			node["properties"] = props
		}
		child, _ := props[seg].(map[string]any)
		if child == nil {
			child = make(map[string]any)
			props[seg] = child
		}
		node = child
	}
	return node
}

func fillFieldSpec(node map[string]any, f *Field) {
	if f.Type != TypeObject {
		node["type"] = string(f.Type)
	}
	if f.Format != "" {
		node["format"] = f.Format
	}
	if f.Analyzer != "" {
		node["analyzer"] = f.Analyzer
	}
	if f.Type == TypeObject && f.Dynamic != "" {
		node["dynamic"] = string(f.Dynamic)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
