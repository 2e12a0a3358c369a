package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// JobAnalysisRepo persists job analyses and their candidate rankings.
type JobAnalysisRepo struct{ Pool PgxPool }

// NewJobAnalysisRepo constructs a JobAnalysisRepo with the given pool.
func NewJobAnalysisRepo(p PgxPool) *JobAnalysisRepo { return &JobAnalysisRepo{Pool: p} }

// Create stores the analysis header and returns its id (generates one if empty).
// Rankings are written separately through AddRanking.
func (r *JobAnalysisRepo) Create(ctx domain.Context, a domain.JobAnalysis) (string, error) {
	ctx, span := startSpan(ctx, "repo.analyses", "analyses.Create", "INSERT", "job_analyses")
	defer span.End()
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	j := a.Job
	q := `INSERT INTO job_analyses (id, job_title, job_description, required_skills, preferred_skills,
		experience_level, education_requirement, min_years_experience, max_years_experience,
		total_candidates_analyzed, top_candidate_recommendation, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.Pool.Exec(ctx, q, id, j.Title, j.Description, j.RequiredSkills, j.PreferredSkills,
		j.ExperienceLevel, j.EducationRequirement, j.MinYearsExperience, j.MaxYearsExperience,
		a.TotalCandidatesAnalyzed, a.TopCandidateRecommendation, created)
	if err != nil {
		return "", fmt.Errorf("op=analysis.create: %w", err)
	}
	return id, nil
}

// AddRanking stores one ranked candidate under an analysis.
func (r *JobAnalysisRepo) AddRanking(ctx domain.Context, analysisID string, m domain.MatchResult) error {
	ctx, span := startSpan(ctx, "repo.analyses", "analyses.AddRanking", "INSERT", "candidate_rankings")
	defer span.End()
	q := `INSERT INTO candidate_rankings (id, job_analysis_id, candidate_id, match_score, ranking_position, key_highlights)
		VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, uuid.New().String(), analysisID, m.CandidateID, m.MatchScore, m.RankPosition, m.KeyHighlights)
	if err != nil {
		return fmt.Errorf("op=analysis.add_ranking: %w", err)
	}
	return nil
}

// Get loads an analysis with its rankings ordered by position.
func (r *JobAnalysisRepo) Get(ctx domain.Context, id string) (domain.JobAnalysis, error) {
	ctx, span := startSpan(ctx, "repo.analyses", "analyses.Get", "SELECT", "job_analyses")
	defer span.End()
	var a domain.JobAnalysis
	q := `SELECT id, job_title, job_description, COALESCE(required_skills, '{}'), COALESCE(preferred_skills, '{}'),
		COALESCE(experience_level, ''), COALESCE(education_requirement, ''), min_years_experience, max_years_experience,
		total_candidates_analyzed, COALESCE(top_candidate_recommendation, ''), created_at
		FROM job_analyses WHERE id=$1`
	err := r.Pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Job.Title, &a.Job.Description, &a.Job.RequiredSkills,
		&a.Job.PreferredSkills, &a.Job.ExperienceLevel, &a.Job.EducationRequirement, &a.Job.MinYearsExperience,
		&a.Job.MaxYearsExperience, &a.TotalCandidatesAnalyzed, &a.TopCandidateRecommendation, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.JobAnalysis{}, fmt.Errorf("op=analysis.get: %w", domain.ErrNotFound)
		}
		return domain.JobAnalysis{}, fmt.Errorf("op=analysis.get: %w", err)
	}

	rq := `SELECT cr.candidate_id, c.name, c.email, COALESCE(c.phone, ''), cr.match_score, cr.ranking_position,
		COALESCE(cr.key_highlights, '{}')
		FROM candidate_rankings cr JOIN candidates c ON c.id = cr.candidate_id
		WHERE cr.job_analysis_id=$1 ORDER BY cr.ranking_position`
	rows, err := r.Pool.Query(ctx, rq, id)
	if err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("op=analysis.get_rankings: %w", err)
	}
	defer rows.Close()
	a.Rankings = []domain.MatchResult{}
	for rows.Next() {
		var m domain.MatchResult
		if err := rows.Scan(&m.CandidateID, &m.Name, &m.Email, &m.Phone, &m.MatchScore, &m.RankPosition, &m.KeyHighlights); err != nil {
			return domain.JobAnalysis{}, fmt.Errorf("op=analysis.get_rankings: %w", err)
		}
		a.Rankings = append(a.Rankings, m)
	}
	if err := rows.Err(); err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("op=analysis.get_rankings: %w", err)
	}
	return a, nil
}
