package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

const (
	TopSkillsLimit      = 10
	RecentItemsLimit    = 5
	RecentUploadsWindow = 7 * 24 * time.Hour
	GrowthPeriodDays    = 30
)

// Skill-count buckets of the dashboard distribution.
const (
	Skills1To3   = "1-3 skills"
	Skills4To7   = "4-7 skills"
	Skills8To10  = "8-10 skills"
	Skills10Plus = "10+ skills"
)

// DashboardService aggregates candidate and analysis statistics.
type DashboardService struct {
	Repo  domain.DashboardRepository
	Cache domain.MetricsCache
	TTL   time.Duration
	Now   func() time.Time
}

// NewDashboardService constructs a DashboardService; cache may be nil.
func NewDashboardService(r domain.DashboardRepository, cache domain.MetricsCache, ttl time.Duration) DashboardService {
	return DashboardService{Repo: r, Cache: cache, TTL: ttl}
}

// Metrics returns cached metrics when fresh, otherwise recomputes them.
func (s DashboardService) Metrics(ctx domain.Context) (domain.DashboardMetrics, error) {
	lg := observability.LoggerFromContext(ctx)
	if s.Cache != nil {
		m, ok, err := s.Cache.GetDashboard(ctx)
		switch {
		case err != nil:
			lg.Warn("dashboard cache read failed", slog.Any("error", err))
		case ok:
			return m, nil
		}
	}

	m, err := s.compute(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	if s.Cache != nil && s.TTL > 0 {
		if err := s.Cache.SetDashboard(ctx, m, s.TTL); err != nil {
			lg.Warn("dashboard cache write failed", slog.Any("error", err))
		}
	}
	return m, nil
}

func (s DashboardService) compute(ctx domain.Context) (domain.DashboardMetrics, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	m := domain.DashboardMetrics{GeneratedAt: now}
	var counts []int
	var thisMonth, lastMonth int64
	growthSince := startOfDay(now).AddDate(0, 0, -GrowthPeriodDays)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { m.TotalCandidates, err = s.Repo.CountCandidates(gctx); return })
	g.Go(func() (err error) { m.TotalJobAnalyses, err = s.Repo.CountAnalyses(gctx); return })
	g.Go(func() (err error) {
		m.RecentUploads, err = s.Repo.CountCandidatesSince(gctx, now.Add(-RecentUploadsWindow))
		return
	})
	g.Go(func() (err error) { m.TopSkills, err = s.Repo.TopSkills(gctx, TopSkillsLimit); return })
	g.Go(func() (err error) { counts, err = s.Repo.SkillCounts(gctx); return })
	g.Go(func() (err error) { m.ExperienceDistribution, err = s.Repo.ExperienceDistribution(gctx); return })
	g.Go(func() (err error) { m.AverageExperience, err = s.Repo.AverageExperience(gctx); return })
	g.Go(func() (err error) { m.RecentCandidates, err = s.Repo.RecentCandidates(gctx, RecentItemsLimit); return })
	g.Go(func() (err error) { m.RecentJobAnalyses, err = s.Repo.RecentAnalyses(gctx, RecentItemsLimit); return })
	g.Go(func() (err error) {
		m.CandidateGrowth.DailyData, err = s.Repo.DailyCandidateCounts(gctx, growthSince)
		return
	})
	g.Go(func() (err error) {
		m.AnalysisGrowth.DailyData, err = s.Repo.DailyAnalysisCounts(gctx, growthSince)
		return
	})
	g.Go(func() (err error) {
		thisMonth, err = s.Repo.CountCandidatesBetween(gctx, monthStart, monthStart.AddDate(0, 1, 0))
		return
	})
	g.Go(func() (err error) {
		lastMonth, err = s.Repo.CountCandidatesBetween(gctx, monthStart.AddDate(0, -1, 0), monthStart)
		return
	})
	if err := g.Wait(); err != nil {
		return domain.DashboardMetrics{}, fmt.Errorf("op=dashboard.metrics: %w", err)
	}
	m.SkillDistribution = SkillDistribution(counts)
	m.CandidateGrowth.ThisMonth = &thisMonth
	m.CandidateGrowth.LastMonth = &lastMonth
	m.CandidateGrowth.PeriodDays = GrowthPeriodDays
	m.AnalysisGrowth.PeriodDays = GrowthPeriodDays
	return m, nil
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// SkillDistribution buckets per-candidate skill counts.
func SkillDistribution(counts []int) map[string]int {
	out := map[string]int{}
	for _, n := range counts {
		out[skillBucket(n)]++
	}
	return out
}

func skillBucket(n int) string {
	switch {
	case n <= 3:
		return Skills1To3
	case n <= 7:
		return Skills4To7
	case n <= 10:
		return Skills8To10
	default:
		return Skills10Plus
	}
}
