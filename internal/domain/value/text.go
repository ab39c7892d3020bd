package value

import (
	"fmt"

	"github.com/kailas-cloud/elastimock/internal/analysis"
	"github.com/kailas-cloud/elastimock/internal/domain"
)

// Text is an analyzed field value: the original source string plus the
// tokens its analyzer produced, ordered as they appear.
type Text struct {
	Raw    string
	Tokens []string
}

// ParseText analyzes a source value with the given analyzer. Non-string
// scalars take their keyword form first.
func ParseText(v any, a analysis.Analyzer) (Text, error) {
	s, err := ParseKeyword(v)
	if err != nil {
		return Text{}, domain.MapperParsing("failed to parse field of type [text], value [%v]", v)
	}
	stream := a.Analyze([]byte(s))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, string(tok.Term))
	}
	return Text{Raw: s, Tokens: tokens}, nil
}

// TermFrequencies folds the token list into term counts.
func (t Text) TermFrequencies() map[string]int {
	freq := make(map[string]int, len(t.Tokens))
	for _, tok := range t.Tokens {
		freq[tok]++
	}
	return freq
}

// Contains reports whether the analyzed value carries the given token.
func (t Text) Contains(token string) bool {
	for _, tok := range t.Tokens {
		if tok == token {
			return true
		}
	}
	return false
}

func (t Text) String() string { return fmt.Sprintf("text(%q)", t.Raw) }
