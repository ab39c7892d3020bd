package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

func TestValidateIndiceName(t *testing.T) {
	tests := []struct {
		name    string
		indice  string
		wantErr bool
	}{
		{"plain", "products", false},
		{"with dash", "my-index", false},
		{"with dot", "logs.2021", false},
		{"uppercase", "Products", true},
		{"wildcard", "pro*ducts", true},
		{"slash", "a/b", true},
		{"colon", "a:b", true},
		{"leading underscore", "_hidden", true},
		{"leading dash", "-idx", true},
		{"leading plus", "+idx", true},
		{"empty", "", true},
		{"dot", ".", true},
		{"space", "my index", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIndiceName(tt.indice)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIndiceName(%q) error = %v, wantErr %v", tt.indice, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidIndexName) {
				t.Errorf("error should wrap ErrInvalidIndexName, got %v", err)
			}
		})
	}
}

func TestCreateIndice(t *testing.T) {
	e := New(nil)

	ind, err := e.CreateIndice("products", map[string]any{
		"settings": map[string]any{"number_of_shards": float64(2)},
		"mappings": map[string]any{
			"properties": map[string]any{"name": map[string]any{"type": "keyword"}},
		},
	})
	if err != nil {
		t.Fatalf("CreateIndice() error = %v", err)
	}
	if ind.Settings().NumberOfShards != 2 {
		t.Errorf("shards = %d, want 2", ind.Settings().NumberOfShards)
	}
	if _, ok := ind.FieldMapper("name"); !ok {
		t.Error("mapping from create body not applied")
	}

	if _, err := e.CreateIndice("products", nil); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate create should fail with ErrAlreadyExists, got %v", err)
	}
}

func TestDeleteIndice(t *testing.T) {
	e := New(nil)
	if _, err := e.CreateIndice("tmp", nil); err != nil {
		t.Fatalf("CreateIndice() error = %v", err)
	}
	if err := e.DeleteIndice("tmp"); err != nil {
		t.Fatalf("DeleteIndice() error = %v", err)
	}
	if err := e.DeleteIndice("tmp"); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("second delete should fail with ErrIndexNotFound, got %v", err)
	}
}

func TestAutocreate(t *testing.T) {
	e := New(nil)
	ind, err := e.Autocreate("auto")
	if err != nil {
		t.Fatalf("Autocreate() error = %v", err)
	}
	if ind.Name() != "auto" {
		t.Errorf("indice name = %q", ind.Name())
	}
	again, err := e.Autocreate("auto")
	if err != nil {
		t.Fatalf("Autocreate() error = %v", err)
	}
	if again != ind {
		t.Error("second autocreate should return the same indice")
	}
}

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings(map[string]any{
		"number_of_shards":   "3",
		"number_of_replicas": float64(0),
	})
	if err != nil {
		t.Fatalf("ParseSettings() error = %v", err)
	}
	if s.NumberOfShards != 3 || s.NumberOfReplicas != 0 {
		t.Errorf("settings = %+v", s)
	}

	_, err = ParseSettings(map[string]any{"refresh_interval": "1s"})
	if err == nil || !strings.Contains(err.Error(), "unknown setting [refresh_interval]") {
		t.Errorf("unexpected error: %v", err)
	}
}
