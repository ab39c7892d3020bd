// Package analysis resolves text analyzers by name and turns raw text
// into token frequency maps for the text value variant.
package analysis

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/registry"
)

// DefaultName is the analyzer every schema can rely on.
const DefaultName = standard.Name

// Analyzer produces a finite, restartable token stream for a text.
type Analyzer interface {
	Analyze(input []byte) analysis.TokenStream
}

// Registry resolves analyzers by name from the bleve component registry.
type Registry struct {
	cache *registry.Cache
}

// NewRegistry creates an analyzer registry with the built-in analyzers
// (standard, simple, keyword) available.
func NewRegistry() *Registry {
	return &Registry{cache: registry.NewCache()}
}

// Named returns the analyzer registered under name.
// An unknown name is a configuration error.
func (r *Registry) Named(name string) (Analyzer, error) {
	a, err := r.cache.AnalyzerNamed(name)
	if err != nil {
		return nil, fmt.Errorf("analyzer [%s] not found: %w", name, err)
	}
	return a, nil
}

// Default returns the standard analyzer.
func (r *Registry) Default() Analyzer {
	a, err := r.Named(DefaultName)
	if err != nil {
		// The standard analyzer is registered by import; this cannot fail.
		panic(err)
	}
	return a
}

// TokenCounts runs the analyzer over text and counts each distinct token.
func TokenCounts(a Analyzer, text string) map[string]int {
	stream := a.Analyze([]byte(text))
	counts := make(map[string]int, len(stream))
	for _, tok := range stream {
		counts[string(tok.Term)]++
	}
	return counts
}
