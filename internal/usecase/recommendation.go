package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// NoCandidatesRecommendation is returned when the ranking was empty.
const NoCandidatesRecommendation = "No candidates found in the database."

const notSpecified = "Not specified"

// Recommender phrases the top-candidate recommendation, through a narrative
// generator when one is configured and deterministically otherwise.
type Recommender struct {
	Generator domain.NarrativeGenerator
	Timeout   time.Duration
}

// Recommend never fails; generator errors and blank replies yield the
// fallback sentence.
func (r Recommender) Recommend(ctx context.Context, job domain.JobRequirement, ranking Ranking) string {
	top, ok := ranking.Top()
	if !ok || ranking.NoCandidates {
		return NoCandidatesRecommendation
	}
	if r.Generator == nil {
		return FallbackRecommendation(top)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	text, err := r.Generator.Generate(ctx, RecommendationPrompt(job, top))
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to generate recommendation; using fallback",
			slog.String("job_title", job.Title), slog.Any("error", err))
		return FallbackRecommendation(top)
	}
	if text = strings.TrimSpace(text); text == "" {
		return FallbackRecommendation(top)
	}
	return text
}

// RecommendationPrompt builds the narrative request for the top candidate.
func RecommendationPrompt(job domain.JobRequirement, top domain.MatchResult) string {
	required := notSpecified
	if len(job.RequiredSkills) > 0 {
		required = strings.Join(job.RequiredSkills, ", ")
	}
	highlights := "No highlights"
	if len(top.KeyHighlights) > 0 {
		highlights = strings.Join(top.KeyHighlights, "; ")
	}
	return fmt.Sprintf(`Based on the job analysis for "%s", the top candidate is %s with a match score of %.1f%%.

Job Requirements:
- Title: %s
- Required Skills: %s
- Experience Level: %s
- Education: %s

Top Candidate Highlights:
- %s

Please provide a brief professional recommendation (2-3 sentences) about this candidate for this role.
`,
		job.Title, top.Name, top.MatchScore,
		job.Title, required, orNotSpecified(job.ExperienceLevel), orNotSpecified(job.EducationRequirement),
		highlights,
	)
}

// FallbackRecommendation is the deterministic sentence used without a generator.
func FallbackRecommendation(top domain.MatchResult) string {
	return fmt.Sprintf("%s is the top candidate with a %.1f%% match score based on the analysis criteria.", top.Name, top.MatchScore)
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
