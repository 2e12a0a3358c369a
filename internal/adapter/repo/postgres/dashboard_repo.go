package postgres

import (
	"fmt"
	"time"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// DashboardRepo runs the aggregate queries behind the dashboard.
type DashboardRepo struct{ Pool PgxPool }

// NewDashboardRepo constructs a DashboardRepo with the given pool.
func NewDashboardRepo(p PgxPool) *DashboardRepo { return &DashboardRepo{Pool: p} }

// CountCandidates returns the number of stored candidates.
func (r *DashboardRepo) CountCandidates(ctx domain.Context) (int64, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.CountCandidates", "SELECT", "candidates")
	defer span.End()
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=dashboard.count_candidates: %w", err)
	}
	return n, nil
}

// CountCandidatesSince returns the number of candidates created at or after since.
func (r *DashboardRepo) CountCandidatesSince(ctx domain.Context, since time.Time) (int64, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.CountCandidatesSince", "SELECT", "candidates")
	defer span.End()
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates WHERE created_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=dashboard.count_recent: %w", err)
	}
	return n, nil
}

// CountAnalyses returns the number of stored job analyses.
func (r *DashboardRepo) CountAnalyses(ctx domain.Context) (int64, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.CountAnalyses", "SELECT", "job_analyses")
	defer span.End()
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM job_analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=dashboard.count_analyses: %w", err)
	}
	return n, nil
}

// TopSkills returns the most frequent candidate skills.
func (r *DashboardRepo) TopSkills(ctx domain.Context, limit int) ([]domain.SkillCount, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.TopSkills", "SELECT", "candidates")
	defer span.End()
	q := `SELECT skill, COUNT(*) AS count FROM candidates, unnest(skills) AS skill
		WHERE skills IS NOT NULL GROUP BY skill ORDER BY count DESC, skill LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.top_skills: %w", err)
	}
	defer rows.Close()
	out := []domain.SkillCount{}
	for rows.Next() {
		var sc domain.SkillCount
		if err := rows.Scan(&sc.Name, &sc.Count); err != nil {
			return nil, fmt.Errorf("op=dashboard.top_skills: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=dashboard.top_skills: %w", err)
	}
	return out, nil
}

// SkillCounts returns the number of skills of every candidate.
func (r *DashboardRepo) SkillCounts(ctx domain.Context) ([]int, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.SkillCounts", "SELECT", "candidates")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT COALESCE(array_length(skills, 1), 0) FROM candidates`)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.skill_counts: %w", err)
	}
	defer rows.Close()
	out := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("op=dashboard.skill_counts: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=dashboard.skill_counts: %w", err)
	}
	return out, nil
}

// ExperienceDistribution groups candidates into experience buckets.
func (r *DashboardRepo) ExperienceDistribution(ctx domain.Context) (map[string]int64, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.ExperienceDistribution", "SELECT", "candidates")
	defer span.End()
	q := `SELECT CASE
			WHEN years_of_experience IS NULL THEN 'Not specified'
			WHEN years_of_experience < 2 THEN 'Entry level (0-1 years)'
			WHEN years_of_experience < 5 THEN 'Junior (2-4 years)'
			WHEN years_of_experience < 10 THEN 'Mid-level (5-9 years)'
			WHEN years_of_experience < 15 THEN 'Senior (10-14 years)'
			ELSE 'Expert (15+ years)'
		END AS bucket, COUNT(*)
		FROM candidates GROUP BY bucket`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.experience_distribution: %w", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var bucket string
		var n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, fmt.Errorf("op=dashboard.experience_distribution: %w", err)
		}
		out[bucket] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=dashboard.experience_distribution: %w", err)
	}
	return out, nil
}

// AverageExperience returns the mean years of experience, 0 when unknown.
func (r *DashboardRepo) AverageExperience(ctx domain.Context) (float64, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.AverageExperience", "SELECT", "candidates")
	defer span.End()
	var avg float64
	q := `SELECT COALESCE(AVG(years_of_experience), 0)::float8 FROM candidates WHERE years_of_experience IS NOT NULL`
	if err := r.Pool.QueryRow(ctx, q).Scan(&avg); err != nil {
		return 0, fmt.Errorf("op=dashboard.average_experience: %w", err)
	}
	return avg, nil
}

// RecentCandidates returns the newest candidates.
func (r *DashboardRepo) RecentCandidates(ctx domain.Context, limit int) ([]domain.CandidateSummary, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.RecentCandidates", "SELECT", "candidates")
	defer span.End()
	q := `SELECT id, name, email, COALESCE(array_length(skills, 1), 0), years_of_experience, created_at
		FROM candidates ORDER BY created_at DESC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.recent_candidates: %w", err)
	}
	defer rows.Close()
	out := []domain.CandidateSummary{}
	for rows.Next() {
		var s domain.CandidateSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.SkillCount, &s.YearsOfExperience, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=dashboard.recent_candidates: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=dashboard.recent_candidates: %w", err)
	}
	return out, nil
}

// RecentAnalyses returns the newest job analyses.
func (r *DashboardRepo) RecentAnalyses(ctx domain.Context, limit int) ([]domain.AnalysisSummary, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.RecentAnalyses", "SELECT", "job_analyses")
	defer span.End()
	q := `SELECT id, job_title, total_candidates_analyzed, created_at
		FROM job_analyses ORDER BY created_at DESC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.recent_analyses: %w", err)
	}
	defer rows.Close()
	out := []domain.AnalysisSummary{}
	for rows.Next() {
		var s domain.AnalysisSummary
		if err := rows.Scan(&s.ID, &s.JobTitle, &s.CandidatesAnalyzed, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=dashboard.recent_analyses: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=dashboard.recent_analyses: %w", err)
	}
	return out, nil
}

// CountCandidatesBetween counts candidates created in [from, to).
func (r *DashboardRepo) CountCandidatesBetween(ctx domain.Context, from, to time.Time) (int64, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.CountCandidatesBetween", "SELECT", "candidates")
	defer span.End()
	var n int64
	q := `SELECT COUNT(*) FROM candidates WHERE created_at >= $1 AND created_at < $2`
	if err := r.Pool.QueryRow(ctx, q, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=dashboard.count_between: %w", err)
	}
	return n, nil
}

// DailyCandidateCounts returns per-day candidate creations since the given time, oldest first.
func (r *DashboardRepo) DailyCandidateCounts(ctx domain.Context, since time.Time) ([]domain.DailyCount, error) {
	return r.dailyCounts(ctx, "candidates", since)
}

// DailyAnalysisCounts returns per-day job analysis creations since the given time, oldest first.
func (r *DashboardRepo) DailyAnalysisCounts(ctx domain.Context, since time.Time) ([]domain.DailyCount, error) {
	return r.dailyCounts(ctx, "job_analyses", since)
}

// dailyCounts groups rows of table by UTC creation day. table is never user input.
func (r *DashboardRepo) dailyCounts(ctx domain.Context, table string, since time.Time) ([]domain.DailyCount, error) {
	ctx, span := startSpan(ctx, "repo.dashboard", "dashboard.DailyCounts", "SELECT", table)
	defer span.End()
	q := `SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM ` + table + ` WHERE created_at >= $1 GROUP BY day ORDER BY day`
	rows, err := r.Pool.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.daily_counts: %w", err)
	}
	defer rows.Close()
	out := []domain.DailyCount{}
	for rows.Next() {
		var d domain.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("op=dashboard.daily_counts: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=dashboard.daily_counts: %w", err)
	}
	return out, nil
}
