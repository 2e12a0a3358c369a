// Package memory provides process-local repositories with the same contract
// as the postgres adapters. The offline CLI and handler tests run on them.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// CandidateRepo keeps candidates in insertion order.
type CandidateRepo struct {
	mu    sync.RWMutex
	items []domain.Candidate
	Now   func() time.Time
}

// NewCandidateRepo returns an empty CandidateRepo.
func NewCandidateRepo() *CandidateRepo { return &CandidateRepo{} }

func (r *CandidateRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Create stores c and returns its id (generates one if empty). A second
// candidate with the same email is a conflict.
func (r *CandidateRepo) Create(_ domain.Context, c domain.Candidate) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Email == c.Email {
			return "", fmt.Errorf("op=candidate.create: %w: email %s already exists", domain.ErrConflict, c.Email)
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := r.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Skills = append([]string(nil), c.Skills...)
	r.items = append(r.items, c)
	return c.ID, nil
}

// Get returns the candidate with id.
func (r *CandidateRepo) Get(_ domain.Context, id string) (domain.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", domain.ErrNotFound)
}

// List returns all candidates, newest first; equal timestamps keep the
// later insert first.
func (r *CandidateRepo) List(_ domain.Context) ([]domain.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Candidate, 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, r.items[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes the candidate with id.
func (r *CandidateRepo) Delete(_ domain.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.items {
		if c.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("op=candidate.delete: %w", domain.ErrNotFound)
}

// FindByEmail returns the candidate with exactly this email.
func (r *CandidateRepo) FindByEmail(_ domain.Context, email string) (domain.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.Email == email {
			return c, nil
		}
	}
	return domain.Candidate{}, fmt.Errorf("op=candidate.find_by_email: %w", domain.ErrNotFound)
}

// FindByYearsRange returns candidates with known experience in [minYears, maxYears].
func (r *CandidateRepo) FindByYearsRange(ctx domain.Context, minYears, maxYears int) ([]domain.Candidate, error) {
	return r.filter(ctx, func(c domain.Candidate) bool {
		return c.YearsOfExperience != nil && *c.YearsOfExperience >= minYears && *c.YearsOfExperience <= maxYears
	})
}

// SearchByName returns candidates whose name contains name, ignoring case.
func (r *CandidateRepo) SearchByName(ctx domain.Context, name string) ([]domain.Candidate, error) {
	needle := strings.ToLower(name)
	return r.filter(ctx, func(c domain.Candidate) bool {
		return strings.Contains(strings.ToLower(c.Name), needle)
	})
}

func (r *CandidateRepo) filter(ctx domain.Context, keep func(domain.Candidate) bool) ([]domain.Candidate, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Candidate{}
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// JobAnalysisRepo keeps analyses and their rankings.
type JobAnalysisRepo struct {
	mu       sync.RWMutex
	order    []string
	analyses map[string]domain.JobAnalysis
}

// NewJobAnalysisRepo returns an empty JobAnalysisRepo.
func NewJobAnalysisRepo() *JobAnalysisRepo {
	return &JobAnalysisRepo{analyses: map[string]domain.JobAnalysis{}}
}

// Create stores the analysis header; rankings are added through AddRanking.
func (r *JobAnalysisRepo) Create(_ domain.Context, a domain.JobAnalysis) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if _, ok := r.analyses[a.ID]; ok {
		return "", fmt.Errorf("op=analysis.create: %w", domain.ErrConflict)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Rankings = nil
	r.analyses[a.ID] = a
	r.order = append(r.order, a.ID)
	return a.ID, nil
}

// AddRanking appends one ranked candidate to an analysis.
func (r *JobAnalysisRepo) AddRanking(_ domain.Context, analysisID string, m domain.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.analyses[analysisID]
	if !ok {
		return fmt.Errorf("op=analysis.add_ranking: %w", domain.ErrNotFound)
	}
	m.KeyHighlights = append([]string(nil), m.KeyHighlights...)
	a.Rankings = append(a.Rankings, m)
	r.analyses[analysisID] = a
	return nil
}

// Get returns the analysis with its rankings ordered by position.
func (r *JobAnalysisRepo) Get(_ domain.Context, id string) (domain.JobAnalysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyses[id]
	if !ok {
		return domain.JobAnalysis{}, fmt.Errorf("op=analysis.get: %w", domain.ErrNotFound)
	}
	a.Rankings = append([]domain.MatchResult{}, a.Rankings...)
	sort.SliceStable(a.Rankings, func(i, j int) bool { return a.Rankings[i].RankPosition < a.Rankings[j].RankPosition })
	return a, nil
}

func (r *JobAnalysisRepo) list() []domain.JobAnalysis {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.JobAnalysis, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.analyses[r.order[i]])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
