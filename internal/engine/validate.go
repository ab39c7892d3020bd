package engine

import (
	"github.com/kailas-cloud/elastimock/internal/analysis"
	"github.com/kailas-cloud/elastimock/internal/domain/document"
	"github.com/kailas-cloud/elastimock/internal/domain/mapping"
	"github.com/kailas-cloud/elastimock/internal/domain/value"
)

// validateSource parses every mapped value in the source so a document
// with a type mismatch is rejected before it is stored. Called with the
// indice lock held, after dynamic mapping.
func (i *Indice) validateSource(source map[string]any) error {
	for _, f := range i.mappings.Fields() {
		switch f.Type {
		case mapping.TypeObject:
			continue
		case mapping.TypeGeoPoint:
			for _, leaf := range document.ExtractLeaves(source, f.SourcePath) {
				if _, err := value.ParseGeopoints(leaf); err != nil {
					return err
				}
			}
		case mapping.TypeGeoShape:
			for _, leaf := range document.ExtractLeaves(source, f.SourcePath) {
				if _, err := value.ParseGeoshape(leaf); err != nil {
					return err
				}
			}
		default:
			for _, v := range document.ExtractPath(source, f.SourcePath) {
				if err := i.validateScalar(f, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (i *Indice) validateScalar(f *mapping.Field, v any) error {
	var err error
	switch f.Type {
	case mapping.TypeKeyword:
		_, err = value.ParseKeyword(v)
	case mapping.TypeBoolean:
		_, err = value.ParseBoolean(v)
	case mapping.TypeLong:
		_, err = value.ParseLong(v)
	case mapping.TypeFloat:
		_, err = value.ParseFloat(v)
	case mapping.TypeDouble:
		_, err = value.ParseDouble(v)
	case mapping.TypeDate:
		_, err = value.ParseDate(v, f.Format)
	case mapping.TypeText:
		a, aerr := i.AnalyzerFor(f)
		if aerr != nil {
			return aerr
		}
		_, err = value.ParseText(v, a)
	}
	return err
}

// AnalyzerFor resolves the analyzer a text mapper uses, falling back to
// the indice default when the mapping names none.
func (i *Indice) AnalyzerFor(f *mapping.Field) (analysis.Analyzer, error) {
	name := f.Analyzer
	if name == "" {
		name = i.defaultAnalyzer
	}
	if name == "" {
		name = analysis.DefaultName
	}
	return i.analyzers.Named(name)
}
