// Package scripting defines the script collaborator contract used by
// scripted updates. The engine itself does not evaluate scripts; a
// Runner supplied by the caller does.
package scripting

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/elastimock/internal/domain"
)

// DefaultLang is assumed when a script body does not name a language.
const DefaultLang = "painless"

// Script is a parsed script clause from an update request.
type Script struct {
	Source string
	Lang   string
	Params map[string]any
}

// Context is what a script sees while it runs. Mutations to Source are
// written back to the stored document.
type Context struct {
	ID     string
	Source map[string]any
	Params map[string]any
}

// Runner executes scripts against a document context.
type Runner interface {
	Execute(ctx context.Context, script Script, sctx *Context) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, script Script, sctx *Context) error

func (f RunnerFunc) Execute(ctx context.Context, script Script, sctx *Context) error {
	return f(ctx, script, sctx)
}

// Parse reads a script clause, which is either a bare source string or
// an object with source, lang and params keys.
func Parse(v any) (Script, error) {
	switch t := v.(type) {
	case string:
		return Script{Source: t, Lang: DefaultLang}, nil
	case map[string]any:
		s := Script{Lang: DefaultLang}
		source, ok := t["source"].(string)
		if !ok {
			return Script{}, domain.IllegalArgument("script must have [source]")
		}
		s.Source = source
		if lang, ok := t["lang"].(string); ok {
			s.Lang = lang
		}
		if params, ok := t["params"].(map[string]any); ok {
			s.Params = params
		}
		return s, nil
	default:
		return Script{}, domain.IllegalArgument("failed to parse script [%v]", v)
	}
}

// WrapError tags a runner failure with the script error sentinel.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("script execution failed: %v: %w", err, domain.ErrScript)
}
