package sections

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

func TestExtractExperience(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "header until education",
			text: "Jane Doe\nExperience\nSenior Engineer at Acme 2018-2023\nBuilt APIs\nEducation\nBSc Computer Science",
			want: "Senior Engineer at Acme 2018-2023\nBuilt APIs",
		},
		{
			name: "work history until end",
			text: "Work History: Backend developer at Initech",
			want: ": Backend developer at Initech",
		},
		{
			name: "no header",
			text: "A short note without sections",
			want: domain.ExperienceNotIdentified,
		},
		{
			name: "empty capture",
			text: "Experience\nEducation\nBSc",
			want: domain.ExperienceNotIdentified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractExperience(tt.text))
		})
	}
}

func TestExtractExperience_Truncates(t *testing.T) {
	got := ExtractExperience("Experience " + strings.Repeat("é", 1500))
	assert.Equal(t, MaxSectionLength, len([]rune(got)))
}

func TestExtractEducation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "header section",
			text: "Education\nBachelor of Science in Computer Science, MIT 2015\nSkills\nGo",
			want: "Bachelor of Science in Computer Science, MIT 2015",
		},
		{
			name: "degree phrase",
			text: "Holds a Master of Science in Data Engineering",
			want: "Master of Science in Data Engineering",
		},
		{
			name: "institution name",
			text: "Studied at Stanford University",
			want: "Studied at Stanford University",
		},
		{
			name: "nothing found",
			text: "Nothing relevant here",
			want: domain.EducationNotIdentified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEducation(tt.text))
		})
	}
}

func TestExtractEducation_ShortHeaderFallsThrough(t *testing.T) {
	got := ExtractEducation("Education: BSc\nExperience at Acme. Completed a Bachelor of Arts in History")
	assert.Equal(t, "Bachelor of Arts in History", got)
}

func TestExtractYearsOfExperience(t *testing.T) {
	tests := []struct {
		text string
		want *int
	}{
		{"Over 10+ years of experience in Go", intPtr(10)},
		{"3 years experience with Java", intPtr(3)},
		{"1 year work in retail", intPtr(1)},
		{"5 YEARS OF EXPERIENCE", intPtr(5)},
		{"no figures here", nil},
		{"99999999999999999999 years of experience", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractYearsOfExperience(tt.text))
		})
	}
}

func TestExtract_Combined(t *testing.T) {
	cv := "Summary\n5 years of experience building Java and Spring services on PostgreSQL.\n" +
		"Education\nBachelor of Science in Computer Science"
	res := Extract(context.Background(), cv)

	require.NotNil(t, res.YearsOfExperience)
	assert.Equal(t, 5, *res.YearsOfExperience)
	assert.Equal(t, "building Java and Spring services on PostgreSQL.", res.Experience)
	assert.Equal(t, "Bachelor of Science in Computer Science", res.Education)
}

func intPtr(v int) *int { return &v }
