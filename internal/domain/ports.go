package domain

import (
	"io"
	"time"
)

// Repositories (ports)

//go:generate mockery --name=CandidateRepository --with-expecter --filename=candidate_repository_mock.go
//go:generate mockery --name=JobAnalysisRepository --with-expecter --filename=job_analysis_repository_mock.go

type CandidateRepository interface {
	Create(ctx Context, c Candidate) (string, error)
	Get(ctx Context, id string) (Candidate, error)
	List(ctx Context) ([]Candidate, error)
	Delete(ctx Context, id string) error
	FindByEmail(ctx Context, email string) (Candidate, error)
	FindByYearsRange(ctx Context, minYears, maxYears int) ([]Candidate, error)
	SearchByName(ctx Context, name string) ([]Candidate, error)
}

type JobAnalysisRepository interface {
	Create(ctx Context, a JobAnalysis) (string, error)
	AddRanking(ctx Context, analysisID string, r MatchResult) error
	Get(ctx Context, id string) (JobAnalysis, error)
}

// DashboardRepository exposes the aggregate queries behind the dashboard.
type DashboardRepository interface {
	CountCandidates(ctx Context) (int64, error)
	CountCandidatesSince(ctx Context, since time.Time) (int64, error)
	CountAnalyses(ctx Context) (int64, error)
	TopSkills(ctx Context, limit int) ([]SkillCount, error)
	SkillCounts(ctx Context) ([]int, error)
	ExperienceDistribution(ctx Context) (map[string]int64, error)
	AverageExperience(ctx Context) (float64, error)
	RecentCandidates(ctx Context, limit int) ([]CandidateSummary, error)
	RecentAnalyses(ctx Context, limit int) ([]AnalysisSummary, error)
	// CountCandidatesBetween counts candidates created in [from, to).
	CountCandidatesBetween(ctx Context, from, to time.Time) (int64, error)
	DailyCandidateCounts(ctx Context, since time.Time) ([]DailyCount, error)
	DailyAnalysisCounts(ctx Context, since time.Time) ([]DailyCount, error)
}

// MetricsCache stores rendered dashboard metrics between refreshes.
type MetricsCache interface {
	GetDashboard(ctx Context) (DashboardMetrics, bool, error)
	SetDashboard(ctx Context, m DashboardMetrics, ttl time.Duration) error
	Invalidate(ctx Context) error
}

// TextExtractor (port)
// ExtractPath extracts text from a file at path with provided original filename.
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// NarrativeGenerator turns a recommendation prompt into a few sentences of prose.
type NarrativeGenerator interface {
	Generate(ctx Context, prompt string) (string, error)
}

// AnalysisPublisher announces stored job analyses to downstream consumers.
type AnalysisPublisher interface {
	PublishAnalysisCompleted(ctx Context, ev AnalysisCompletedEvent) error
}

// AnalysisExporter renders a stored job analysis into a downloadable document.
type AnalysisExporter interface {
	Export(ctx Context, a JobAnalysis, w io.Writer) error
}
