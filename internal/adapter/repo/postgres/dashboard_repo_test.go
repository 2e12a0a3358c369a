package postgres_test

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

func TestDashboardRepo_Counts(t *testing.T) {
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := newMock(t)
	m.ExpectQuery(`SELECT COUNT\(\*\) FROM candidates$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))
	m.ExpectQuery(`created_at >= \$1`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	m.ExpectQuery(`FROM job_analyses`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	repo := postgres.NewDashboardRepo(m)
	ctx := context.Background()

	n, err := repo.CountCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	n, err = repo.CountCandidatesSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.CountAnalyses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestDashboardRepo_CountError(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("FROM candidates").WillReturnError(assert.AnError)

	_, err := postgres.NewDashboardRepo(m).CountCandidates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=dashboard.count_candidates")
}

func TestDashboardRepo_TopSkills(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("unnest").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"skill", "count"}).
			AddRow("Go", int64(5)).
			AddRow("Docker", int64(2)))

	out, err := postgres.NewDashboardRepo(m).TopSkills(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Go", out[0].Name)
	assert.Equal(t, int64(5), out[0].Count)
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestDashboardRepo_SkillCounts(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("array_length").
		WillReturnRows(pgxmock.NewRows([]string{"n"}).AddRow(0).AddRow(4).AddRow(12))

	out, err := postgres.NewDashboardRepo(m).SkillCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 12}, out)
}

func TestDashboardRepo_ExperienceDistribution(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("CASE").
		WillReturnRows(pgxmock.NewRows([]string{"bucket", "count"}).
			AddRow("Not specified", int64(1)).
			AddRow("Mid-level (5-9 years)", int64(3)))

	out, err := postgres.NewDashboardRepo(m).ExperienceDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Not specified": 1, "Mid-level (5-9 years)": 3}, out)
}

func TestDashboardRepo_AverageExperience(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("AVG").WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(6.5))

	avg, err := postgres.NewDashboardRepo(m).AverageExperience(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 6.5, avg, 1e-9)
}

func TestDashboardRepo_Recent(t *testing.T) {
	now := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	m := newMock(t)
	m.ExpectQuery("FROM candidates ORDER BY created_at DESC").
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "n", "years", "created_at"}).
			AddRow("cand-1", "Ada", "ada@example.com", 3, intPtr(7), now))
	m.ExpectQuery("FROM job_analyses ORDER BY created_at DESC").
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "job_title", "total", "created_at"}).
			AddRow("analysis-1", "Backend Engineer", 2, now))

	repo := postgres.NewDashboardRepo(m)
	cands, err := repo.RecentCandidates(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 3, cands[0].SkillCount)
	assert.Equal(t, 7, *cands[0].YearsOfExperience)

	analyses, err := repo.RecentAnalyses(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "Backend Engineer", analyses[0].JobTitle)
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestDashboardRepo_CountCandidatesBetween(t *testing.T) {
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := newMock(t)
	m.ExpectQuery(`created_at >= \$1 AND created_at < \$2`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(9)))
	m.ExpectQuery(`created_at >= \$1 AND created_at < \$2`).
		WithArgs(from, to).
		WillReturnError(assert.AnError)

	repo := postgres.NewDashboardRepo(m)
	n, err := repo.CountCandidatesBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	_, err = repo.CountCandidatesBetween(context.Background(), from, to)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "op=dashboard.count_between")
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestDashboardRepo_DailyCounts(t *testing.T) {
	since := time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC)
	m := newMock(t)
	m.ExpectQuery(`(?s)date_trunc\('day'.*FROM candidates WHERE created_at >= \$1 GROUP BY day ORDER BY day`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"day", "count"}).
			AddRow("2025-03-09", int64(2)).
			AddRow("2025-03-10", int64(1)))
	m.ExpectQuery(`FROM job_analyses WHERE created_at >= \$1 GROUP BY day`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"day", "count"}))
	m.ExpectQuery(`FROM job_analyses WHERE created_at >= \$1 GROUP BY day`).
		WithArgs(since).
		WillReturnError(assert.AnError)

	repo := postgres.NewDashboardRepo(m)
	ctx := context.Background()

	cands, err := repo.DailyCandidateCounts(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, []domain.DailyCount{{Date: "2025-03-09", Count: 2}, {Date: "2025-03-10", Count: 1}}, cands)

	analyses, err := repo.DailyAnalysisCounts(ctx, since)
	require.NoError(t, err)
	assert.NotNil(t, analyses)
	assert.Empty(t, analyses)

	_, err = repo.DailyAnalysisCounts(ctx, since)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "op=dashboard.daily_counts")
	assert.NoError(t, m.ExpectationsWereMet())
}
