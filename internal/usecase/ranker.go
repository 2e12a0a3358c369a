package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

const (
	maxHighlightSkills    = 3
	educationHighlightLen = 50
)

// Ranking is the ordered outcome of one ranking run. NoCandidates is set
// when there was nothing to rank, which is not an error.
type Ranking struct {
	Results      []domain.MatchResult
	NoCandidates bool
}

// Top returns the best result, if any.
func (r Ranking) Top() (domain.MatchResult, bool) {
	if len(r.Results) == 0 {
		return domain.MatchResult{}, false
	}
	return r.Results[0], true
}

// Ranker scores candidates against a job and orders them.
type Ranker struct {
	Scorer  Scorer
	Workers int
}

// NewRanker returns a Ranker that scores with up to workers goroutines.
func NewRanker(workers int) Ranker {
	if workers < 1 {
		workers = 1
	}
	return Ranker{Workers: workers}
}

// Rank scores every candidate, sorts by descending score keeping input order
// for ties, and assigns 1-based positions.
func (r Ranker) Rank(ctx context.Context, job domain.JobRequirement, candidates []domain.Candidate) (Ranking, error) {
	if len(candidates) == 0 {
		return Ranking{Results: []domain.MatchResult{}, NoCandidates: true}, nil
	}
	start := time.Now()
	defer func() { observability.ObserveRanking(time.Since(start)) }()

	results := make([]domain.MatchResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := candidates[i]
			score := r.Scorer.Score(job, c)
			observability.ObserveMatchScore(score)
			results[i] = domain.MatchResult{
				CandidateID:   c.ID,
				Name:          c.Name,
				Email:         c.Email,
				Phone:         c.Phone,
				MatchScore:    score,
				KeyHighlights: Highlights(job, c),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Ranking{}, err
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].MatchScore > results[b].MatchScore })
	for i := range results {
		results[i].RankPosition = i + 1
	}
	return Ranking{Results: results}, nil
}

// Highlights returns up to three short facts about a candidate: matching
// required skills, stated years of experience, and an education snippet.
func Highlights(job domain.JobRequirement, c domain.Candidate) []string {
	out := make([]string, 0, 3)

	if len(job.RequiredSkills) > 0 {
		matching := make([]string, 0, maxHighlightSkills)
		for _, s := range c.Skills {
			if len(matching) == maxHighlightSkills {
				break
			}
			for _, req := range job.RequiredSkills {
				if strings.EqualFold(req, s) {
					matching = append(matching, s)
					break
				}
			}
		}
		if len(matching) > 0 {
			out = append(out, "Key skills: "+strings.Join(matching, ", "))
		}
	}

	if c.YearsOfExperience != nil {
		out = append(out, strconv.Itoa(*c.YearsOfExperience)+" years of experience")
	}

	if c.Education != "" {
		edu := []rune(c.Education)
		if len(edu) > educationHighlightLen {
			out = append(out, "Education: "+string(edu[:educationHighlightLen])+"...")
		} else {
			out = append(out, "Education: "+c.Education)
		}
	}
	return out
}
