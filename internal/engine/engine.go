package engine

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elastimock/internal/analysis"
	"github.com/kailas-cloud/elastimock/internal/domain"
)

// Settings carries the per-indice settings block. Shards and replicas
// have no effect on a single-process store but are kept and echoed
// back the way callers set them. UUID, CreationDate and ProvidedName
// are filled in at creation, not parsed.
type Settings struct {
	NumberOfShards   int
	NumberOfReplicas int
	UUID             string
	CreationDate     int64
	ProvidedName     string
}

// DefaultSettings returns the settings an indice gets when none are given.
func DefaultSettings() Settings {
	return Settings{NumberOfShards: 1, NumberOfReplicas: 1}
}

// ParseSettings reads a settings body.
func ParseSettings(body map[string]any) (Settings, error) {
	s := DefaultSettings()
	for key, v := range body {
		n, ok := asInt(v)
		switch key {
		case "number_of_shards":
			if !ok || n < 1 {
				return Settings{}, domain.IllegalArgument("failed to parse value [%v] for setting [number_of_shards]", v)
			}
			s.NumberOfShards = n
		case "number_of_replicas":
			if !ok || n < 0 {
				return Settings{}, domain.IllegalArgument("failed to parse value [%v] for setting [number_of_replicas]", v)
			}
			s.NumberOfReplicas = n
		default:
			return Settings{}, domain.IllegalArgument("unknown setting [%s]", key)
		}
	}
	return s, nil
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), float64(int(t)) == t
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n := 0
		for _, c := range t {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		return n, t != ""
	default:
		return 0, false
	}
}

// Engine is the root object: a registry of named indices.
type Engine struct {
	mu              sync.RWMutex
	indices         map[string]*Indice
	analyzers       *analysis.Registry
	defaultAnalyzer string
	log             *zap.Logger
}

// New builds an empty engine. A nil logger disables logging.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		indices:         make(map[string]*Indice),
		analyzers:       analysis.NewRegistry(),
		defaultAnalyzer: analysis.DefaultName,
		log:             log,
	}
}

// WithDefaultAnalyzer sets the analyzer used by text mappers that do
// not name one. Applies to indices created afterwards.
func (e *Engine) WithDefaultAnalyzer(name string) *Engine {
	e.defaultAnalyzer = name
	return e
}

// Analyzers exposes the analyzer registry shared by all indices.
func (e *Engine) Analyzers() *analysis.Registry { return e.analyzers }

// CreateIndice creates a named indice from an optional body with
// "settings" and "mappings" sections.
func (e *Engine) CreateIndice(name string, body map[string]any) (*Indice, error) {
	if err := ValidateIndiceName(name); err != nil {
		return nil, err
	}

	settings := DefaultSettings()
	var mappings map[string]any
	for key, v := range body {
		switch key {
		case "settings":
			sb, ok := v.(map[string]any)
			if !ok {
				return nil, domain.IllegalArgument("failed to parse [settings], expected an object")
			}
			parsed, err := ParseSettings(sb)
			if err != nil {
				return nil, err
			}
			settings = parsed
		case "mappings":
			mb, ok := v.(map[string]any)
			if !ok {
				return nil, domain.MapperParsing("failed to parse [mappings], expected an object")
			}
			mappings = mb
		default:
			return nil, domain.IllegalArgument("unknown key [%s] in create index body", key)
		}
	}

	settings.UUID = uuid.NewString()
	settings.CreationDate = time.Now().UnixMilli()
	settings.ProvidedName = name

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[name]; ok {
		return nil, domain.IndexAlreadyExists(name)
	}
	ind := newIndice(name, settings, e.analyzers, e.defaultAnalyzer, e.log)
	if mappings != nil {
		if err := ind.PutMapping(mappings); err != nil {
			return nil, err
		}
	}
	e.indices[name] = ind
	e.log.Info("created indice", zap.String("indice", name))
	return ind, nil
}

// DeleteIndice removes a named indice.
func (e *Engine) DeleteIndice(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[name]; !ok {
		return domain.IndexNotFound(name)
	}
	delete(e.indices, name)
	e.log.Info("deleted indice", zap.String("indice", name))
	return nil
}

// Indice looks up an existing indice.
func (e *Engine) Indice(name string) (*Indice, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ind, ok := e.indices[name]
	if !ok {
		return nil, domain.IndexNotFound(name)
	}
	return ind, nil
}

// Exists reports whether a named indice exists.
func (e *Engine) Exists(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.indices[name]
	return ok
}

// Autocreate returns the named indice, creating it with defaults when
// absent. Document writes against unknown indices go through here.
func (e *Engine) Autocreate(name string) (*Indice, error) {
	e.mu.RLock()
	ind, ok := e.indices[name]
	e.mu.RUnlock()
	if ok {
		return ind, nil
	}
	ind, err := e.CreateIndice(name, nil)
	if err == nil {
		return ind, nil
	}
	// lost the race to a concurrent create
	if e.Exists(name) {
		return e.Indice(name)
	}
	return nil, err
}

// Names lists all indices in lexical order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.indices))
	for name := range e.indices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

const forbiddenNameChars = ` "*\<|,>/?`

// ValidateIndiceName enforces the indice naming rules: lowercase, no
// path or wildcard characters, no colon, and no leading -, _ or +.
func ValidateIndiceName(name string) error {
	if name == "" || name == "." || name == ".." {
		return invalidName(name, "must not be empty, [.] or [..]")
	}
	if strings.ToLower(name) != name {
		return invalidName(name, "must be lowercase")
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return invalidName(name, "must not contain the following characters "+forbiddenNameChars)
	}
	if strings.ContainsRune(name, ':') {
		return invalidName(name, "must not contain [:]")
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "+") {
		return invalidName(name, "must not start with [-], [_] or [+]")
	}
	return nil
}

func invalidName(name, reason string) error {
	return domain.InvalidIndexName(name, reason)
}

func sourcesEqual(a, b map[string]any) bool {
	return reflect.DeepEqual(a, b)
}
