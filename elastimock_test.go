package elastimock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLibraryScenario(t *testing.T) {
	c := New(nil)

	err := c.CreateIndex("hotels", map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"name":     map[string]any{"type": "text"},
				"stars":    map[string]any{"type": "long"},
				"location": map[string]any{"type": "geo_point"},
				"opened":   map[string]any{"type": "date", "format": "yyyy-MM-dd"},
			},
		},
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	docs := []map[string]any{
		{"name": "Grand Hotel Paris", "stars": float64(5), "location": "48.8566,2.3522", "opened": "1889-05-06"},
		{"name": "Paris Budget Inn", "stars": float64(2), "location": "48.86,2.35", "opened": "2005-03-01"},
		{"name": "Lyon Central", "stars": float64(4), "location": "45.7640,4.8357", "opened": "1998-07-15"},
	}
	for i, source := range docs {
		if _, _, err := c.Index("hotels", string(rune('1'+i)), source); err != nil {
			t.Fatalf("index doc %d: %v", i, err)
		}
	}

	tests := []struct {
		name  string
		query map[string]any
		want  []string
	}{
		{
			name:  "match on analyzed text",
			query: map[string]any{"match": map[string]any{"name": "paris"}},
			want:  []string{"1", "2"},
		},
		{
			name:  "range over stars",
			query: map[string]any{"range": map[string]any{"stars": map[string]any{"gte": float64(4)}}},
			want:  []string{"1", "3"},
		},
		{
			name: "geo distance around paris",
			query: map[string]any{"geo_distance": map[string]any{
				"distance": "5km",
				"location": "48.8566,2.3522",
			}},
			want: []string{"1", "2"},
		},
		{
			name: "date range with math",
			query: map[string]any{"range": map[string]any{"opened": map[string]any{"lt": "now-30y/d"}}},
			want:  []string{"1"},
		},
		{
			name: "bool combining clauses",
			query: map[string]any{"bool": map[string]any{
				"must":     map[string]any{"match": map[string]any{"name": "paris"}},
				"must_not": map[string]any{"range": map[string]any{"stars": map[string]any{"lt": float64(3)}}},
			}},
			want: []string{"1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := c.Search([]string{"hotels"}, tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			got := make([]string, len(hits))
			for i, h := range hits {
				got[i] = h.ID
			}
			if len(got) != len(tt.want) {
				t.Fatalf("hits: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("hit %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAutocreateOnIndex(t *testing.T) {
	c := New(nil)

	result, doc, err := c.Index("logs", "", map[string]any{"level": "info"})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if result != ResultCreated || doc.ID == "" {
		t.Errorf("got result %s, id %q", result, doc.ID)
	}
	if !c.IndexExists("logs") {
		t.Error("expected logs index to be autocreated")
	}
}

func TestCreateConflict(t *testing.T) {
	c := New(nil)

	if _, _, err := c.Create("users", "1", map[string]any{"name": "amy"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _, err := c.Create("users", "1", map[string]any{"name": "bob"})
	if err == nil || !strings.Contains(err.Error(), "version conflict") {
		t.Errorf("expected version conflict, got %v", err)
	}
}

func TestScriptedUpdate(t *testing.T) {
	c := New(nil).WithScriptRunner(ScriptRunnerFunc(func(_ context.Context, script Script, sctx *ScriptContext) error {
		visits, _ := sctx.Source["visits"].(float64)
		inc, _ := script.Params["by"].(float64)
		sctx.Source["visits"] = visits + inc
		return nil
	}))

	if _, _, err := c.Index("pages", "home", map[string]any{"visits": float64(1)}); err != nil {
		t.Fatalf("index: %v", err)
	}

	result, doc, err := c.Update(context.Background(), "pages", "home", UpdateRequest{
		Script: &Script{Source: "ctx._source.visits += params.by", Params: map[string]any{"by": float64(2)}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result != ResultUpdated || doc.Source["visits"] != float64(3) {
		t.Errorf("result %s, visits %v", result, doc.Source["visits"])
	}
}

func TestUpdateMissingDocument(t *testing.T) {
	c := New(nil)
	_, _, _ = c.Index("pages", "home", map[string]any{"visits": float64(1)})

	_, _, err := c.Update(context.Background(), "pages", "ghost", UpdateRequest{
		Doc: map[string]any{"visits": float64(1)},
	})
	if err == nil || !strings.Contains(err.Error(), "document missing") {
		t.Errorf("expected document missing, got %v", err)
	}
}

func TestHandlerServesRESTAPI(t *testing.T) {
	c := New(nil)
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/books/_doc", "application/json",
		strings.NewReader(`{"title":"dune"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post status: got %d, want 201", resp.StatusCode)
	}

	resp2, err := http.Post(srv.URL+"/books/_search", "application/json",
		strings.NewReader(`{"query":{"match":{"title":"dune"}}}`))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	defer resp2.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp2.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	total := body["hits"].(map[string]any)["total"].(map[string]any)
	if total["value"] != float64(1) {
		t.Errorf("total: got %v, want 1", total["value"])
	}

	// library writes are visible through the handler and vice versa
	if _, ok := c.Get("books", ""); ok {
		t.Error("unexpected document under empty id")
	}
	if names := c.IndexNames(); len(names) != 1 || names[0] != "books" {
		t.Errorf("index names: got %v", names)
	}
}

func TestDeleteLifecycle(t *testing.T) {
	c := New(nil)
	_, _, _ = c.Index("books", "1", map[string]any{"title": "dune"})

	result, err := c.Delete("books", "1")
	if err != nil || result != ResultDeleted {
		t.Fatalf("delete: result %s, err %v", result, err)
	}
	result, err = c.Delete("books", "1")
	if err != nil || result != ResultNotFound {
		t.Errorf("repeat delete: result %s, err %v", result, err)
	}
	if err := c.DeleteIndex("books"); err != nil {
		t.Fatalf("delete index: %v", err)
	}
	if c.IndexExists("books") {
		t.Error("expected books index to be gone")
	}
}
