package classify

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/crehub/news-digest/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed counties.yaml
var defaultCountiesYAML []byte

type vocabularyFile struct {
	Kind    string `yaml:"kind"`
	Version string `yaml:"version"`
	States  []struct {
		State    string   `yaml:"state"`
		Counties []string `yaml:"counties"`
	} `yaml:"states"`
}

func (f *vocabularyFile) Validate() error {
	if f.Kind != "CountyVocabulary" {
		return fmt.Errorf("kind must be CountyVocabulary, got %q", f.Kind)
	}
	if len(f.States) == 0 {
		return fmt.Errorf("at least one state is required")
	}
	for i, s := range f.States {
		if s.State == "" {
			return fmt.Errorf("states[%d] must have state defined", i)
		}
		if len(s.Counties) == 0 {
			return fmt.Errorf("states[%d] must list counties", i)
		}
	}
	return nil
}

// Vocabulary is the closed, read-only set of county names the geography classifier may emit.
// It always contains the "Other" sentinel.
type Vocabulary struct {
	names []string
	index map[string]string // lower-cased name -> canonical name
}

func NewVocabulary(names []string) Vocabulary {
	v := Vocabulary{index: make(map[string]string, len(names)+1)}
	all := make([]string, 0, len(names)+1)
	all = append(all, names...)
	for _, n := range append(all, domain.OtherCounty) {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := v.index[key]; ok {
			continue
		}
		v.index[key] = n
		v.names = append(v.names, n)
	}
	return v
}

// LoadVocabulary reads a CountyVocabulary YAML document.
func LoadVocabulary(r io.Reader) (Vocabulary, error) {
	var f vocabularyFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return Vocabulary{}, fmt.Errorf("decode county vocabulary: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("invalid county vocabulary: %w", err)
	}
	var names []string
	for _, s := range f.States {
		names = append(names, s.Counties...)
	}
	return NewVocabulary(names), nil
}

// DefaultVocabulary returns the embedded county list.
func DefaultVocabulary() Vocabulary {
	v, err := LoadVocabulary(bytes.NewReader(defaultCountiesYAML))
	if err != nil {
		panic(err)
	}
	return v
}

// Names returns a copy of the vocabulary in declaration order.
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

func (v Vocabulary) Len() int {
	return len(v.names)
}

// Canonical returns the vocabulary spelling of name, matched case-insensitively.
func (v Vocabulary) Canonical(name string) (string, bool) {
	c, ok := v.index[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

func (v Vocabulary) Contains(name string) bool {
	_, ok := v.Canonical(name)
	return ok
}

// Split partitions values into canonical vocabulary members and rejected names.
// "Other" is dropped when a real county is also present.
func (v Vocabulary) Split(values []string) (valid, invalid []string) {
	seen := make(map[string]struct{}, len(values))
	hasOther := false
	for _, raw := range values {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		c, ok := v.Canonical(name)
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		if c == domain.OtherCounty {
			hasOther = true
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		valid = append(valid, c)
	}
	if len(valid) == 0 && hasOther {
		valid = []string{domain.OtherCounty}
	}
	return valid, invalid
}
