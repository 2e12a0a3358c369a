package domain

import (
	"context"
	"time"
)

// Skill categories of the taxonomy.
type SkillCategory string

const (
	CategoryTechnical     SkillCategory = "TECHNICAL"
	CategoryFramework     SkillCategory = "FRAMEWORK"
	CategoryDatabase      SkillCategory = "DATABASE"
	CategoryCloudPlatform SkillCategory = "CLOUD_PLATFORM"
	CategoryMethodology   SkillCategory = "METHODOLOGY"
	CategorySoftSkill     SkillCategory = "SOFT_SKILL"
)

// Literal values stored when a section cannot be located in a CV.
const (
	ExperienceNotIdentified = "Experience details not clearly identified"
	EducationNotIdentified  = "Education details not clearly identified"
)

// Candidate is the structured profile built from one uploaded CV.
// Invariants: Name, Email, CVContent, FileName non-empty; Skills canonical and unique;
// YearsOfExperience nil or >= 0.
type Candidate struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	CVContent         string
	FileName          string
	Skills            []string
	Experience        string
	Education         string
	YearsOfExperience *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// JobRequirement describes what a role asks for. It is read-only for scoring.
type JobRequirement struct {
	Title                string   `json:"job_title" yaml:"job_title" validate:"required,max=255"`
	Description          string   `json:"job_description" yaml:"job_description" validate:"required,max=20000"`
	RequiredSkills       []string `json:"required_skills" yaml:"required_skills" validate:"max=100,dive,max=100"`
	PreferredSkills      []string `json:"preferred_skills" yaml:"preferred_skills" validate:"max=100,dive,max=100"`
	ExperienceLevel      string   `json:"experience_level,omitempty" yaml:"experience_level" validate:"max=100"`
	EducationRequirement string   `json:"education_requirement,omitempty" yaml:"education_requirement" validate:"max=255"`
	MinYearsExperience   *int     `json:"min_years_experience,omitempty" yaml:"min_years_experience" validate:"omitempty,min=0"`
	MaxYearsExperience   *int     `json:"max_years_experience,omitempty" yaml:"max_years_experience" validate:"omitempty,min=0"`
}

// MatchResult is one ranked candidate of a job analysis.
type MatchResult struct {
	CandidateID   string
	Name          string
	Email         string
	Phone         string
	MatchScore    float64 // [0,100]
	RankPosition  int     // 1-based
	KeyHighlights []string
}

// JobAnalysis is a persisted ranking run for one job requirement.
type JobAnalysis struct {
	ID                         string
	Job                        JobRequirement
	TotalCandidatesAnalyzed    int
	TopCandidateRecommendation string
	Rankings                   []MatchResult
	CreatedAt                  time.Time
}

// SkillCount pairs a skill with how many candidates list it.
type SkillCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// CandidateSummary is the compact candidate view used by the dashboard.
type CandidateSummary struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	SkillCount        int       `json:"skill_count"`
	YearsOfExperience *int      `json:"years_of_experience"`
	CreatedAt         time.Time `json:"created_at"`
}

// AnalysisSummary is the compact job analysis view used by the dashboard.
type AnalysisSummary struct {
	ID                 string    `json:"id"`
	JobTitle           string    `json:"job_title"`
	CandidatesAnalyzed int       `json:"candidates_analyzed"`
	CreatedAt          time.Time `json:"created_at"`
}

// DailyCount is the number of records created on one UTC day (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Growth is a per-day creation series over the last PeriodDays days.
// Monthly totals are only reported for candidates.
type Growth struct {
	DailyData  []DailyCount `json:"daily_data"`
	ThisMonth  *int64       `json:"this_month,omitempty"`
	LastMonth  *int64       `json:"last_month,omitempty"`
	PeriodDays int          `json:"period_days"`
}

// DashboardMetrics aggregates candidate and analysis statistics.
type DashboardMetrics struct {
	TotalCandidates        int64              `json:"total_candidates"`
	TotalJobAnalyses       int64              `json:"total_job_analyses"`
	RecentUploads          int64              `json:"recent_uploads"`
	TopSkills              []SkillCount       `json:"top_skills"`
	SkillDistribution      map[string]int     `json:"skill_distribution"`
	ExperienceDistribution map[string]int64   `json:"experience_distribution"`
	AverageExperience      float64            `json:"average_experience"`
	RecentCandidates       []CandidateSummary `json:"recent_candidates"`
	RecentJobAnalyses      []AnalysisSummary  `json:"recent_job_analyses"`
	CandidateGrowth        Growth             `json:"candidate_growth"`
	AnalysisGrowth         Growth             `json:"analysis_growth"`
	GeneratedAt            time.Time          `json:"generated_at"`
}

// AnalysisCompletedEvent is published after a job analysis is stored.
type AnalysisCompletedEvent struct {
	AnalysisID         string    `json:"analysis_id"`
	JobTitle           string    `json:"job_title"`
	CandidatesAnalyzed int       `json:"candidates_analyzed"`
	TopCandidateID     string    `json:"top_candidate_id,omitempty"`
	TopScore           float64   `json:"top_score"`
	CreatedAt          time.Time `json:"created_at"`
}

// Context is an alias to allow decoupling from std context in domain.
// Adapters and usecases pass context.Context through.
type Context = context.Context
