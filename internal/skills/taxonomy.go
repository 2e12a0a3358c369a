// Package skills recognizes skill names in CV text against a closed taxonomy.
//
// The taxonomy is an immutable lookup table keyed by lowercase name. It is
// built once at startup, either from the embedded catalog or from a YAML file,
// and is safe for concurrent reads.
package skills

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// categoryOrder fixes iteration order so outputs never depend on map order.
var categoryOrder = []domain.SkillCategory{
	domain.CategoryTechnical,
	domain.CategoryFramework,
	domain.CategoryDatabase,
	domain.CategoryCloudPlatform,
	domain.CategoryMethodology,
	domain.CategorySoftSkill,
}

var validSkillChars = regexp.MustCompile(`^[a-zA-Z0-9\s.\-+#]*$`)

// Entry is one taxonomy skill.
type Entry struct {
	Name     string
	Category domain.SkillCategory
}

// Taxonomy is the read-only skill catalog plus capitalization overrides.
type Taxonomy struct {
	entries   []Entry
	byLower   map[string]Entry
	technical map[string]struct{}
	overrides map[string]string
	upper     cases.Caser
	lower     cases.Caser
}

type taxonomyFile struct {
	Categories     map[string][]string `yaml:"categories"`
	Capitalization map[string]string   `yaml:"capitalization"`
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the embedded taxonomy.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Parse(defaultTaxonomyYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded taxonomy: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

// Load reads a taxonomy file; an empty path yields the embedded default.
func Load(path string) (*Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // operator supplied config path
	if err != nil {
		return nil, fmt.Errorf("op=taxonomy.load: %w", err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("op=taxonomy.load: %w", err)
	}
	return t, nil
}

// Parse builds a taxonomy from its YAML form.
func Parse(b []byte) (*Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: taxonomy yaml: %v", domain.ErrInvalidArgument, err)
	}
	t := &Taxonomy{
		byLower:   map[string]Entry{},
		technical: map[string]struct{}{},
		overrides: map[string]string{},
		upper:     cases.Upper(language.Und),
		lower:     cases.Lower(language.Und),
	}
	for name := range f.Categories {
		if !knownCategory(domain.SkillCategory(name)) {
			return nil, fmt.Errorf("%w: unknown skill category %q", domain.ErrInvalidArgument, name)
		}
	}
	for _, cat := range categoryOrder {
		for _, raw := range f.Categories[string(cat)] {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, dup := t.byLower[key]; dup {
				continue
			}
			e := Entry{Name: name, Category: cat}
			t.entries = append(t.entries, e)
			t.byLower[key] = e
			switch cat {
			case domain.CategoryTechnical, domain.CategoryFramework, domain.CategoryDatabase, domain.CategoryCloudPlatform:
				t.technical[name] = struct{}{}
			}
		}
	}
	if len(t.entries) == 0 {
		return nil, fmt.Errorf("%w: taxonomy has no skills", domain.ErrInvalidArgument)
	}
	for k, v := range f.Capitalization {
		t.overrides[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return t, nil
}

func knownCategory(c domain.SkillCategory) bool {
	for _, k := range categoryOrder {
		if k == c {
			return true
		}
	}
	return false
}

// Entries returns the catalog in category order.
func (t *Taxonomy) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup finds an entry case-insensitively.
func (t *Taxonomy) Lookup(s string) (Entry, bool) {
	e, ok := t.byLower[strings.ToLower(strings.TrimSpace(s))]
	return e, ok
}

// IsKnown reports case-insensitive taxonomy membership.
func (t *Taxonomy) IsKnown(s string) bool {
	_, ok := t.Lookup(s)
	return ok
}

// IsTechnicalTerm reports whether s is a known skill, or is longer than two
// characters and listed verbatim in a language, framework, database or cloud
// category.
func (t *Taxonomy) IsTechnicalTerm(s string) bool {
	if t.IsKnown(s) {
		return true
	}
	if utf8.RuneCountInString(s) <= 2 {
		return false
	}
	_, ok := t.technical[s]
	return ok
}

// IsValidSkill applies the shape checks every extracted skill must pass.
func (t *Taxonomy) IsValidSkill(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if n := utf8.RuneCountInString(s); n < 2 || n > 25 {
		return false
	}
	if !validSkillChars.MatchString(s) {
		return false
	}
	return t.IsKnown(s) || t.IsTechnicalTerm(s)
}

// Canonical returns the display form of s: the override table first, then
// the taxonomy name, else first letter upper and the rest lower.
func (t *Taxonomy) Canonical(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	key := strings.ToLower(s)
	if v, ok := t.overrides[key]; ok {
		return v
	}
	if e, ok := t.byLower[key]; ok {
		return e.Name
	}
	_, size := utf8.DecodeRuneInString(s)
	return t.upper.String(s[:size]) + t.lower.String(s[size:])
}
