package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := Default()
	require.NotNil(t, tax)
	assert.Same(t, tax, Default())

	e, ok := tax.Lookup("postgresql")
	require.True(t, ok)
	assert.Equal(t, "PostgreSQL", e.Name)
	assert.Equal(t, domain.CategoryDatabase, e.Category)

	e, ok = tax.Lookup("  scrum ")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryMethodology, e.Category)

	assert.False(t, tax.IsKnown("Docker"))
	assert.Equal(t, domain.CategoryTechnical, tax.Entries()[0].Category)
}

func TestTaxonomy_IsValidSkill(t *testing.T) {
	tax := Default()
	tests := []struct {
		in   string
		want bool
	}{
		{"Java", true},
		{"java", true},
		{"C++", true},
		{"C#", true},
		{"Node.js", true},
		{"Ruby on Rails", true},
		{"Go", true},
		{"R", false},
		{"CI/CD", false},
		{"Objective-C", true},
		{"Docker", false},
		{"Kubernetes", false},
		{"", false},
		{"Java!", false},
		{"Communication", true},
		{"Some Very Long Made Up Skill Name", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.IsValidSkill(tt.in))
		})
	}
}

func TestTaxonomy_Canonical(t *testing.T) {
	tax := Default()
	tests := map[string]string{
		"javascript": "JavaScript",
		"JAVASCRIPT": "JavaScript",
		"Node.JS":    "Node.js",
		"nodejs":     "Node.js",
		"ci/cd":      "CI/CD",
		"aws":        "AWS",
		"postgresql": "PostgreSQL",
		"MONGODB":    "MongoDB",
		"docker":     "Docker",
		"KUBERNETES": "Kubernetes",
		"html":       "HTML",
		"  java ":    "Java",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, tax.Canonical(in), "input %q", in)
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("categories: [oops"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = Parse([]byte("categories:\n  WIZARDRY: [Spells]\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = Parse([]byte("categories: {}\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestLoad_CustomFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tax.yaml")
	body := "categories:\n  TECHNICAL: [Elixir, Java]\n  SOFT_SKILL: [Mentoring]\ncapitalization:\n  elixir: Elixir\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tax, err := Load(path)
	require.NoError(t, err)
	assert.True(t, tax.IsKnown("ELIXIR"))
	assert.False(t, tax.IsKnown("Python"))
	assert.Len(t, tax.Entries(), 3)

	def, err := Load("")
	require.NoError(t, err)
	assert.Same(t, Default(), def)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
