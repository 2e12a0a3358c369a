// Package sections isolates the experience and education parts of a CV and
// reads the stated years of experience. Every extraction resolves to a value;
// unidentified sections yield fixed sentinel strings.
package sections

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/pkg/textx"
)

// MaxSectionLength caps header-based captures, in characters.
const MaxSectionLength = 1000

var (
	experiencePattern = regexp.MustCompile(`(?is)(experience|work history|employment|career)(.*?)(?:education|skills|references|$)`)

	educationHeaderPattern = regexp.MustCompile(`(?is)\b(education|academic|qualifications?|degrees?|diplomas?|certifications?|training|schooling|university|college)\b[\s:]*\n?(.*?)(?:\n\s*\b(?:experience|work|employment|skills|references|achievements|projects|languages)\b|$)`)

	degreePattern = regexp.MustCompile(`(?i)\b(bachelor'?s?|master'?s?|phd|doctorate|associate|diploma|certificate|b\.?[a-z]{1,4}|m\.?[a-z]{1,4}|ph\.?d\.?)\s+(of|in|degree)\s+[a-zA-Z\s,]+`)

	institutionPattern = regexp.MustCompile(`(?i)\b(university|college|institute|academy|school)\s+of\s+[a-zA-Z\s,]+|[a-zA-Z\s,]+\s+(university|college|institute)`)

	yearsPattern = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s*)?(?:experience|work)`)
)

// Result bundles the three section extractions of one CV.
type Result struct {
	Experience        string
	Education         string
	YearsOfExperience *int
}

// Extract runs all section extractions over sanitized CV text.
func Extract(ctx context.Context, text string) Result {
	years, err := yearsOf(text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("could not parse years of experience", slog.Any("error", err))
	}
	return Result{
		Experience:        ExtractExperience(text),
		Education:         ExtractEducation(text),
		YearsOfExperience: years,
	}
}

// ExtractExperience returns the text following the first experience header,
// up to the next education, skills or references header.
func ExtractExperience(text string) string {
	m := experiencePattern.FindStringSubmatch(text)
	if m == nil {
		return domain.ExperienceNotIdentified
	}
	content := strings.TrimSpace(m[2])
	if content == "" {
		return domain.ExperienceNotIdentified
	}
	return textx.Truncate(content, MaxSectionLength)
}

// ExtractEducation tries, in order: a header-delimited section, degree
// phrases, then institution names.
func ExtractEducation(text string) string {
	if m := educationHeaderPattern.FindStringSubmatch(text); m != nil {
		content := strings.TrimSpace(m[2])
		if len([]rune(content)) > 10 {
			return textx.Truncate(content, MaxSectionLength)
		}
	}
	if s := joinMatches(degreePattern, text); s != "" {
		return s
	}
	if s := joinMatches(institutionPattern, text); s != "" {
		return s
	}
	return domain.EducationNotIdentified
}

// ExtractYearsOfExperience returns the first "N years of experience" figure,
// or nil when none is stated.
func ExtractYearsOfExperience(text string) *int {
	years, err := yearsOf(text)
	if err != nil {
		slog.Warn("could not parse years of experience", slog.Any("error", err))
	}
	return years
}

func yearsOf(text string) (*int, error) {
	m := yearsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("years %q: %w", m[1], err)
	}
	return &n, nil
}

func joinMatches(re *regexp.Regexp, text string) string {
	matches := re.FindAllString(text, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimSpace(m); m != "" {
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, "; ")
}
