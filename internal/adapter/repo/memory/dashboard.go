package memory

import (
	"sort"
	"time"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// Experience buckets, identical to the postgres dashboard query.
const (
	ExperienceNotSpecified = "Not specified"
	ExperienceEntry        = "Entry level (0-1 years)"
	ExperienceJunior       = "Junior (2-4 years)"
	ExperienceMid          = "Mid-level (5-9 years)"
	ExperienceSenior       = "Senior (10-14 years)"
	ExperienceExpert       = "Expert (15+ years)"
)

// ExperienceBucket names the dashboard bucket of a years-of-experience value.
func ExperienceBucket(years *int) string {
	switch {
	case years == nil:
		return ExperienceNotSpecified
	case *years < 2:
		return ExperienceEntry
	case *years < 5:
		return ExperienceJunior
	case *years < 10:
		return ExperienceMid
	case *years < 15:
		return ExperienceSenior
	default:
		return ExperienceExpert
	}
}

// DashboardRepo answers the dashboard aggregates from the in-memory repositories.
type DashboardRepo struct {
	Candidates *CandidateRepo
	Analyses   *JobAnalysisRepo
}

// NewDashboardRepo constructs a DashboardRepo over c and a.
func NewDashboardRepo(c *CandidateRepo, a *JobAnalysisRepo) *DashboardRepo {
	return &DashboardRepo{Candidates: c, Analyses: a}
}

func (r *DashboardRepo) candidates(ctx domain.Context) []domain.Candidate {
	out, _ := r.Candidates.List(ctx)
	return out
}

func (r *DashboardRepo) CountCandidates(ctx domain.Context) (int64, error) {
	return int64(len(r.candidates(ctx))), nil
}

func (r *DashboardRepo) CountCandidatesSince(ctx domain.Context, since time.Time) (int64, error) {
	var n int64
	for _, c := range r.candidates(ctx) {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *DashboardRepo) CountAnalyses(domain.Context) (int64, error) {
	return int64(len(r.Analyses.list())), nil
}

// TopSkills orders by count descending, then by name.
func (r *DashboardRepo) TopSkills(ctx domain.Context, limit int) ([]domain.SkillCount, error) {
	counts := map[string]int64{}
	for _, c := range r.candidates(ctx) {
		for _, s := range c.Skills {
			counts[s]++
		}
	}
	out := make([]domain.SkillCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.SkillCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *DashboardRepo) SkillCounts(ctx domain.Context) ([]int, error) {
	cs := r.candidates(ctx)
	out := make([]int, 0, len(cs))
	for _, c := range cs {
		out = append(out, len(c.Skills))
	}
	return out, nil
}

func (r *DashboardRepo) ExperienceDistribution(ctx domain.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, c := range r.candidates(ctx) {
		out[ExperienceBucket(c.YearsOfExperience)]++
	}
	return out, nil
}

// AverageExperience ignores candidates without a stated figure.
func (r *DashboardRepo) AverageExperience(ctx domain.Context) (float64, error) {
	var sum, n int
	for _, c := range r.candidates(ctx) {
		if c.YearsOfExperience != nil {
			sum += *c.YearsOfExperience
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (r *DashboardRepo) RecentCandidates(ctx domain.Context, limit int) ([]domain.CandidateSummary, error) {
	out := []domain.CandidateSummary{}
	for _, c := range r.candidates(ctx) {
		if len(out) == limit {
			break
		}
		out = append(out, domain.CandidateSummary{
			ID: c.ID, Name: c.Name, Email: c.Email, SkillCount: len(c.Skills),
			YearsOfExperience: c.YearsOfExperience, CreatedAt: c.CreatedAt,
		})
	}
	return out, nil
}

func (r *DashboardRepo) RecentAnalyses(_ domain.Context, limit int) ([]domain.AnalysisSummary, error) {
	out := []domain.AnalysisSummary{}
	for _, a := range r.Analyses.list() {
		if len(out) == limit {
			break
		}
		out = append(out, domain.AnalysisSummary{
			ID: a.ID, JobTitle: a.Job.Title, CandidatesAnalyzed: a.TotalCandidatesAnalyzed, CreatedAt: a.CreatedAt,
		})
	}
	return out, nil
}

func (r *DashboardRepo) CountCandidatesBetween(ctx domain.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, c := range r.candidates(ctx) {
		if !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *DashboardRepo) DailyCandidateCounts(ctx domain.Context, since time.Time) ([]domain.DailyCount, error) {
	var times []time.Time
	for _, c := range r.candidates(ctx) {
		times = append(times, c.CreatedAt)
	}
	return dailyCounts(times, since), nil
}

func (r *DashboardRepo) DailyAnalysisCounts(_ domain.Context, since time.Time) ([]domain.DailyCount, error) {
	var times []time.Time
	for _, a := range r.Analyses.list() {
		times = append(times, a.CreatedAt)
	}
	return dailyCounts(times, since), nil
}

// dailyCounts groups times at or after since by UTC day, oldest first.
func dailyCounts(times []time.Time, since time.Time) []domain.DailyCount {
	byDay := map[string]int64{}
	for _, t := range times {
		if t.Before(since) {
			continue
		}
		byDay[t.UTC().Format(time.DateOnly)]++
	}
	out := make([]domain.DailyCount, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, domain.DailyCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
