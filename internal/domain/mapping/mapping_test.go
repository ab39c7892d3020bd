package mapping

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

func mustMerge(t *testing.T, tree *Tree, body map[string]any) {
	t.Helper()
	if err := tree.Merge(body); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
}

func TestMergeProperties(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{
			"name": map[string]any{"type": "keyword"},
			"details": map[string]any{
				"properties": map[string]any{
					"age":  map[string]any{"type": "long"},
					"born": map[string]any{"type": "date", "format": "yyyy-MM-dd"},
				},
			},
		},
	})

	f, ok := tree.Field("name")
	if !ok || f.Type != TypeKeyword {
		t.Errorf("name mapper = %+v, ok %v", f, ok)
	}
	if f, ok := tree.Field("details"); !ok || f.Type != TypeObject {
		t.Errorf("details mapper = %+v, ok %v", f, ok)
	}
	if f, ok := tree.Field("details.age"); !ok || f.Type != TypeLong {
		t.Errorf("details.age mapper = %+v, ok %v", f, ok)
	}
	f, _ = tree.Field("details.born")
	if f == nil || f.Format != "yyyy-MM-dd" {
		t.Errorf("details.born mapper = %+v", f)
	}
}

func TestMergeTypeImmutability(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{"age": map[string]any{"type": "long"}},
	})

	err := tree.Merge(map[string]any{
		"properties": map[string]any{"age": map[string]any{"type": "keyword"}},
	})
	if !errors.Is(err, domain.ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "mapper [age] cannot be changed from type [long] to [keyword]") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestMergeIsAtomic(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{"age": map[string]any{"type": "long"}},
	})

	err := tree.Merge(map[string]any{
		"properties": map[string]any{
			"fresh": map[string]any{"type": "keyword"},
			"age":   map[string]any{"type": "text"},
		},
	})
	if !errors.Is(err, domain.ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
	if _, ok := tree.Field("fresh"); ok {
		t.Error("rejected merge must not stage any mapper")
	}
}

func TestMergeKeepsExistingParameters(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{
			"body": map[string]any{"type": "text", "analyzer": "simple"},
		},
	})
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{
			"body": map[string]any{"type": "text"},
		},
	})

	f, ok := tree.Field("body")
	if !ok {
		t.Fatal("body mapper missing")
	}
	if f.Analyzer != "simple" {
		t.Errorf("analyzer = %q, want %q", f.Analyzer, "simple")
	}

	t.Run("re-supplied parameter wins", func(t *testing.T) {
		mustMerge(t, tree, map[string]any{
			"properties": map[string]any{
				"body": map[string]any{"type": "text", "analyzer": "whitespace"},
			},
		})
		f, _ := tree.Field("body")
		if f.Analyzer != "whitespace" {
			t.Errorf("analyzer = %q, want %q", f.Analyzer, "whitespace")
		}
	})
}

func TestMergeUnknownType(t *testing.T) {
	tree := NewTree()
	err := tree.Merge(map[string]any{
		"properties": map[string]any{"x": map[string]any{"type": "integer_range"}},
	})
	if !errors.Is(err, domain.ErrMapperParsing) {
		t.Fatalf("expected ErrMapperParsing, got %v", err)
	}
	if !strings.Contains(err.Error(), "No handler for type [integer_range] declared on field [x]") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestMergeUnknownParameter(t *testing.T) {
	tree := NewTree()
	err := tree.Merge(map[string]any{
		"properties": map[string]any{"x": map[string]any{"type": "keyword", "store": true}},
	})
	if !errors.Is(err, domain.ErrMapperParsing) {
		t.Fatalf("expected ErrMapperParsing, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown parameter [store] on mapper [x] of type [keyword]") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestMergeMultiFields(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{
			"title": map[string]any{
				"type": "text",
				"fields": map[string]any{
					"raw": map[string]any{"type": "keyword"},
				},
			},
		},
	})

	raw, ok := tree.Field("title.raw")
	if !ok {
		t.Fatal("title.raw mapper missing")
	}
	if raw.Type != TypeKeyword {
		t.Errorf("title.raw type = %s", raw.Type)
	}
	if raw.SourcePath != "title" {
		t.Errorf("title.raw should read its parent's source, got %q", raw.SourcePath)
	}
}

func TestDynamicMapInference(t *testing.T) {
	tests := []struct {
		name     string
		policy   Dynamic
		val      any
		wantType Type
	}{
		{"bool", DynamicTrue, true, TypeBoolean},
		{"whole number", DynamicTrue, float64(3), TypeLong},
		{"fraction true", DynamicTrue, 3.5, TypeFloat},
		{"fraction runtime", DynamicRuntime, 3.5, TypeDouble},
		{"number token whole", DynamicTrue, json.Number("1"), TypeLong},
		{"number token whole float true", DynamicTrue, json.Number("1.0"), TypeFloat},
		{"number token whole float runtime", DynamicRuntime, json.Number("1.0"), TypeDouble},
		{"number token fraction", DynamicTrue, json.Number("3.5"), TypeFloat},
		{"integer string", DynamicTrue, "42", TypeLong},
		{"decimal string true", DynamicTrue, "42.5", TypeFloat},
		{"decimal string runtime", DynamicRuntime, "42.5", TypeDouble},
		{"date string", DynamicTrue, "2021-03-15", TypeDate},
		{"free text true", DynamicTrue, "hello world", TypeText},
		{"free text runtime", DynamicRuntime, "hello world", TypeKeyword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree()
			mustMerge(t, tree, map[string]any{"dynamic": string(tt.policy)})
			if err := tree.DynamicMap(map[string]any{"f": tt.val}); err != nil {
				t.Fatalf("DynamicMap() error = %v", err)
			}
			f, ok := tree.Field("f")
			if !ok {
				t.Fatal("mapper not introduced")
			}
			if f.Type != tt.wantType {
				t.Errorf("inferred type = %s, want %s", f.Type, tt.wantType)
			}
		})
	}
}

func TestDynamicMapObjects(t *testing.T) {
	tree := NewTree()
	if err := tree.DynamicMap(map[string]any{
		"user": map[string]any{"name": "amy", "age": float64(30)},
	}); err != nil {
		t.Fatalf("DynamicMap() error = %v", err)
	}
	if f, ok := tree.Field("user"); !ok || f.Type != TypeObject {
		t.Errorf("user mapper = %+v, ok %v", f, ok)
	}
	if f, ok := tree.Field("user.age"); !ok || f.Type != TypeLong {
		t.Errorf("user.age mapper = %+v, ok %v", f, ok)
	}
}

func TestDynamicMapRuntimeObject(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{"dynamic": "runtime"})

	if err := tree.DynamicMap(map[string]any{
		"obj": map[string]any{"inner": "molastic"},
	}); err != nil {
		t.Fatalf("DynamicMap() error = %v", err)
	}
	if _, ok := tree.Field("obj"); ok {
		t.Error("runtime must not introduce object mappers")
	}
	if _, ok := tree.Field("obj.inner"); ok {
		t.Error("runtime must not descend into unmapped objects")
	}
}

func TestDetectionFlags(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"date_detection":    false,
		"numeric_detection": false,
	})

	if err := tree.DynamicMap(map[string]any{
		"when":  "2021-03-15",
		"count": "42",
	}); err != nil {
		t.Fatalf("DynamicMap() error = %v", err)
	}
	if f, _ := tree.Field("when"); f == nil || f.Type != TypeText {
		t.Errorf("when mapper = %+v, want text", f)
	}
	if f, _ := tree.Field("count"); f == nil || f.Type != TypeText {
		t.Errorf("count mapper = %+v, want text", f)
	}

	t.Run("runtime falls back to keyword", func(t *testing.T) {
		tree := NewTree()
		mustMerge(t, tree, map[string]any{
			"dynamic":        "runtime",
			"date_detection": false,
		})
		if err := tree.DynamicMap(map[string]any{"when": "2021-03-15"}); err != nil {
			t.Fatalf("DynamicMap() error = %v", err)
		}
		if f, _ := tree.Field("when"); f == nil || f.Type != TypeKeyword {
			t.Errorf("when mapper = %+v, want keyword", f)
		}
	})

	t.Run("rendered when disabled", func(t *testing.T) {
		out := tree.ToMap()
		if out["date_detection"] != false || out["numeric_detection"] != false {
			t.Errorf("rendered flags = %v, %v", out["date_detection"], out["numeric_detection"])
		}
	})

	t.Run("non boolean rejected", func(t *testing.T) {
		err := NewTree().Merge(map[string]any{"date_detection": "nope"})
		if !errors.Is(err, domain.ErrMapperParsing) {
			t.Fatalf("expected ErrMapperParsing, got %v", err)
		}
	})
}

func TestDynamicMapSkipsNullAndEmpty(t *testing.T) {
	tree := NewTree()
	if err := tree.DynamicMap(map[string]any{"a": nil, "b": []any{}}); err != nil {
		t.Fatalf("DynamicMap() error = %v", err)
	}
	if _, ok := tree.Field("a"); ok {
		t.Error("null value must not introduce a mapper")
	}
	if _, ok := tree.Field("b"); ok {
		t.Error("empty array must not introduce a mapper")
	}
}

func TestDynamicMapStrict(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{"dynamic": "strict"})

	err := tree.DynamicMap(map[string]any{"surprise": "x"})
	if !errors.Is(err, domain.ErrStrictDynamicMapping) {
		t.Fatalf("expected ErrStrictDynamicMapping, got %v", err)
	}
	if !strings.Contains(err.Error(), "dynamic introduction of [surprise] within [_doc] is not allowed") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestDynamicMapStrictObject(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{
			"meta": map[string]any{"type": "object", "dynamic": "strict"},
		},
	})

	err := tree.DynamicMap(map[string]any{
		"meta": map[string]any{"oops": 1},
	})
	if !errors.Is(err, domain.ErrStrictDynamicMapping) {
		t.Fatalf("expected ErrStrictDynamicMapping, got %v", err)
	}
	if !strings.Contains(err.Error(), "dynamic introduction of [oops] within [meta] is not allowed") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestDynamicMapFalse(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{"dynamic": false})

	if err := tree.DynamicMap(map[string]any{"ghost": "x"}); err != nil {
		t.Fatalf("DynamicMap() error = %v", err)
	}
	if _, ok := tree.Field("ghost"); ok {
		t.Error("dynamic false must not introduce mappers")
	}
}

func TestDynamicMapArrayUnwrap(t *testing.T) {
	tree := NewTree()
	if err := tree.DynamicMap(map[string]any{"tags": []any{"hot", "cold"}}); err != nil {
		t.Fatalf("DynamicMap() error = %v", err)
	}
	f, ok := tree.Field("tags")
	if !ok || f.Type != TypeText {
		t.Errorf("tags mapper = %+v, ok %v", f, ok)
	}
}

func TestToMapRoundTrip(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{
			"name": map[string]any{"type": "keyword"},
			"geo":  map[string]any{"type": "geo_point"},
		},
	})

	out := tree.ToMap()
	props, _ := out["properties"].(map[string]any)
	if props == nil {
		t.Fatal("rendered mapping has no properties")
	}
	name, _ := props["name"].(map[string]any)
	if name == nil || name["type"] != "keyword" {
		t.Errorf("rendered name mapper = %v", name)
	}
}

func TestToMapMultiFields(t *testing.T) {
	tree := NewTree()
	mustMerge(t, tree, map[string]any{
		"properties": map[string]any{
			"title": map[string]any{
				"type": "text",
				"fields": map[string]any{
					"raw": map[string]any{"type": "keyword"},
				},
			},
		},
	})

	out := tree.ToMap()
	props, _ := out["properties"].(map[string]any)
	title, _ := props["title"].(map[string]any)
	if title == nil {
		t.Fatal("rendered title mapper missing")
	}
	if _, ok := title["properties"]; ok {
		t.Error("multi-field must not render as a properties child")
	}
	subs, _ := title["fields"].(map[string]any)
	raw, _ := subs["raw"].(map[string]any)
	if raw == nil || raw["type"] != "keyword" {
		t.Errorf("rendered title.raw = %v", raw)
	}

	t.Run("round trips through merge", func(t *testing.T) {
		again := NewTree()
		mustMerge(t, again, out)
		f, ok := again.Field("title.raw")
		if !ok || f.SourcePath != "title" {
			t.Errorf("re-merged title.raw = %+v, ok %v", f, ok)
		}
	})
}
