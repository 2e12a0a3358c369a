package usecase

import (
	"math"
	"strings"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// Sub-score weights; they sum to one.
const (
	WeightSkills     = 0.40
	WeightExperience = 0.30
	WeightEducation  = 0.20
	WeightContent    = 0.10

	maxScore = 100.0
)

// Breakdown holds the four sub-scores (each 0..100) and the weighted total.
type Breakdown struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Content    float64 `json:"content"`
	Total      float64 `json:"total"`
}

// Scorer computes how well a candidate satisfies a job requirement. The zero
// value is ready to use and is safe for concurrent use.
type Scorer struct{}

// Score returns the weighted match score in [0,100].
func (s Scorer) Score(job domain.JobRequirement, c domain.Candidate) float64 {
	return s.Breakdown(job, c).Total
}

// Breakdown returns every sub-score alongside the total.
func (Scorer) Breakdown(job domain.JobRequirement, c domain.Candidate) Breakdown {
	b := Breakdown{
		Skills:     skillsScore(job, c),
		Experience: experienceScore(job, c),
		Education:  educationScore(job, c),
		Content:    contentScore(job, c),
	}
	sum := b.Skills*WeightSkills + b.Experience*WeightExperience + b.Education*WeightEducation + b.Content*WeightContent
	b.Total = math.Min(sum, maxScore)
	return b
}

func skillsScore(job domain.JobRequirement, c domain.Candidate) float64 {
	if len(c.Skills) == 0 {
		return 0
	}
	have := make(map[string]struct{}, len(c.Skills))
	for _, s := range c.Skills {
		have[strings.ToLower(s)] = struct{}{}
	}
	return coverage(job.RequiredSkills, have)*70 + coverage(job.PreferredSkills, have)*30
}

func coverage(want []string, have map[string]struct{}) float64 {
	if len(want) == 0 {
		return 0
	}
	matched := 0
	for _, w := range want {
		if _, ok := have[strings.ToLower(w)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

func experienceScore(job domain.JobRequirement, c domain.Candidate) float64 {
	if c.YearsOfExperience == nil {
		return 50
	}
	years := *c.YearsOfExperience
	lo, hi := job.MinYearsExperience, job.MaxYearsExperience
	switch {
	case lo == nil && hi == nil:
		return 100
	case lo != nil && years < *lo:
		return math.Max(0, 100-float64(*lo-years)*10)
	case hi != nil && years > *hi:
		return math.Max(50, 100-float64(years-*hi)*5)
	default:
		return 100
	}
}

func educationScore(job domain.JobRequirement, c domain.Candidate) float64 {
	req := strings.ToLower(strings.TrimSpace(job.EducationRequirement))
	if req == "" {
		return 100
	}
	if strings.TrimSpace(c.Education) == "" {
		return 30
	}
	edu := strings.ToLower(c.Education)
	switch {
	case strings.Contains(edu, req):
		return 100
	case strings.Contains(req, "bachelor") && strings.Contains(edu, "master"):
		return 100
	case strings.Contains(req, "master") && strings.Contains(edu, "bachelor"):
		return 70
	default:
		return 50
	}
}

func contentScore(job domain.JobRequirement, c domain.Candidate) float64 {
	if c.CVContent == "" {
		return 0
	}
	words := strings.Fields(strings.ToLower(job.Description))
	if len(words) == 0 {
		return 0
	}
	cv := strings.ToLower(c.CVContent)
	matched := 0
	for _, w := range words {
		if len([]rune(w)) > 3 && strings.Contains(cv, w) {
			matched++
		}
	}
	return math.Min(maxScore, float64(matched)/float64(len(words))*200)
}
