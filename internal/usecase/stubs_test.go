package usecase_test

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

type stubCandidateRepo struct {
	mu        sync.Mutex
	items     []domain.Candidate
	createErr error
	listErr   error
	seq       int
	lastRange [2]int
}

func (r *stubCandidateRepo) Create(_ domain.Context, c domain.Candidate) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	r.seq++
	c.ID = "cand-" + strconv.Itoa(r.seq)
	r.items = append(r.items, c)
	return c.ID, nil
}

func (r *stubCandidateRepo) Get(_ domain.Context, id string) (domain.Candidate, error) {
	for _, c := range r.items {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Candidate{}, domain.ErrNotFound
}

func (r *stubCandidateRepo) List(domain.Context) ([]domain.Candidate, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]domain.Candidate(nil), r.items...), nil
}

func (r *stubCandidateRepo) Delete(_ domain.Context, id string) error {
	for i, c := range r.items {
		if c.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubCandidateRepo) FindByEmail(_ domain.Context, email string) (domain.Candidate, error) {
	for _, c := range r.items {
		if c.Email == email {
			return c, nil
		}
	}
	return domain.Candidate{}, domain.ErrNotFound
}

func (r *stubCandidateRepo) FindByYearsRange(_ domain.Context, minYears, maxYears int) ([]domain.Candidate, error) {
	r.lastRange = [2]int{minYears, maxYears}
	var out []domain.Candidate
	for _, c := range r.items {
		if c.YearsOfExperience != nil && *c.YearsOfExperience >= minYears && *c.YearsOfExperience <= maxYears {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubCandidateRepo) SearchByName(_ domain.Context, name string) ([]domain.Candidate, error) {
	var out []domain.Candidate
	for _, c := range r.items {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubAnalysisRepo struct {
	created    []domain.JobAnalysis
	rankings   map[string][]domain.MatchResult
	createErr  error
	rankingErr func(r domain.MatchResult) error
}

func (r *stubAnalysisRepo) Create(_ domain.Context, a domain.JobAnalysis) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.created = append(r.created, a)
	return "analysis-1", nil
}

func (r *stubAnalysisRepo) AddRanking(_ domain.Context, id string, m domain.MatchResult) error {
	if r.rankingErr != nil {
		if err := r.rankingErr(m); err != nil {
			return err
		}
	}
	if r.rankings == nil {
		r.rankings = map[string][]domain.MatchResult{}
	}
	r.rankings[id] = append(r.rankings[id], m)
	return nil
}

func (r *stubAnalysisRepo) Get(_ domain.Context, id string) (domain.JobAnalysis, error) {
	if len(r.created) == 0 || id != "analysis-1" {
		return domain.JobAnalysis{}, domain.ErrNotFound
	}
	a := r.created[len(r.created)-1]
	a.ID = id
	a.Rankings = r.rankings[id]
	return a, nil
}

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *stubGenerator) Generate(_ domain.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

type stubPublisher struct {
	events []domain.AnalysisCompletedEvent
	err    error
}

func (p *stubPublisher) PublishAnalysisCompleted(_ domain.Context, ev domain.AnalysisCompletedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type stubExporter struct{}

func (stubExporter) Export(_ domain.Context, a domain.JobAnalysis, w io.Writer) error {
	_, err := io.WriteString(w, a.Job.Title)
	return err
}

type stubCache struct {
	m           domain.DashboardMetrics
	ok          bool
	getErr      error
	sets        int
	invalidated int
}

func (c *stubCache) GetDashboard(domain.Context) (domain.DashboardMetrics, bool, error) {
	return c.m, c.ok, c.getErr
}

func (c *stubCache) SetDashboard(_ domain.Context, m domain.DashboardMetrics, _ time.Duration) error {
	c.sets++
	c.m, c.ok = m, true
	return nil
}

func (c *stubCache) Invalidate(domain.Context) error {
	c.invalidated++
	c.ok = false
	return nil
}

type stubTextExtractor struct{ text string }

func (s stubTextExtractor) ExtractPath(_ domain.Context, _ string, path string) (string, error) {
	if path == "" {
		return "", errors.New("no path")
	}
	return s.text, nil
}

func intPtr(v int) *int { return &v }

var bg = context.Background()
