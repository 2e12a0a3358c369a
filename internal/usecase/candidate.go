package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/internal/sections"
	"github.com/fairyhunter13/cv-matcher/internal/skills"
	"github.com/fairyhunter13/cv-matcher/pkg/textx"
)

// CandidateInput carries the caller-supplied identity fields and the
// extractor outputs for one CV.
type CandidateInput struct {
	Name              string
	Email             string
	Phone             string
	CVText            string
	FileName          string
	Skills            []string
	Experience        string
	Education         string
	YearsOfExperience *int
}

// CandidateBuilder validates and normalizes candidate input.
type CandidateBuilder struct{}

// Build sanitizes every free-text field and returns the profile, or a
// *domain.ValidationError naming every violated field.
func (CandidateBuilder) Build(in CandidateInput) (domain.Candidate, error) {
	c := domain.Candidate{
		Name:      textx.Sanitize(in.Name),
		Email:     textx.Sanitize(in.Email),
		Phone:     textx.Sanitize(in.Phone),
		CVContent: textx.Sanitize(in.CVText),
		FileName:  textx.Sanitize(in.FileName),
	}
	if strings.TrimSpace(in.Experience) != "" {
		c.Experience = textx.Sanitize(in.Experience)
	}
	if strings.TrimSpace(in.Education) != "" {
		c.Education = textx.Sanitize(in.Education)
	}

	ve := &domain.ValidationError{}
	if c.Name == "" {
		ve.Add("name", "is required")
	}
	switch {
	case c.Email == "":
		ve.Add("email", "is required")
	case !plausibleEmail(c.Email):
		ve.Add("email", "is not a valid address")
	}
	if c.CVContent == "" {
		ve.Add("cv_content", "is required")
	}
	if c.FileName == "" {
		ve.Add("file_name", "is required")
	}
	if in.YearsOfExperience != nil && *in.YearsOfExperience < 0 {
		ve.Add("years_of_experience", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return domain.Candidate{}, err
	}

	if in.YearsOfExperience != nil {
		y := *in.YearsOfExperience
		c.YearsOfExperience = &y
	}
	c.Skills = uniqueNonEmpty(in.Skills)
	return c, nil
}

func plausibleEmail(s string) bool {
	return len(s) > 5 && strings.Contains(s, "@") && strings.Contains(s, ".")
}

func uniqueNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// UploadInput is one CV submission: identity fields plus either extracted
// text or a file on disk to extract it from.
type UploadInput struct {
	Name     string
	Email    string
	Phone    string
	FileName string
	Text     string
	Path     string
}

// CandidateService ingests CVs into candidate profiles and serves lookups.
type CandidateService struct {
	Repo      domain.CandidateRepository
	Extractor *skills.Extractor
	Text      domain.TextExtractor
	Cache     domain.MetricsCache
	Builder   CandidateBuilder
}

// NewCandidateService constructs a CandidateService. Text and cache may be nil.
func NewCandidateService(r domain.CandidateRepository, ex *skills.Extractor, te domain.TextExtractor, cache domain.MetricsCache) CandidateService {
	if ex == nil {
		ex = skills.NewExtractor(nil)
	}
	return CandidateService{Repo: r, Extractor: ex, Text: te, Cache: cache}
}

// Ingest extracts skills and sections from the CV, builds the profile and
// persists it. Persistence failures are returned as *domain.SaveError.
func (s CandidateService) Ingest(ctx domain.Context, in UploadInput) (domain.Candidate, error) {
	lg := observability.LoggerFromContext(ctx)
	raw := in.Text
	if raw == "" && in.Path != "" {
		if s.Text == nil {
			return domain.Candidate{}, fmt.Errorf("%w: no text extractor configured", domain.ErrInternal)
		}
		t, err := s.Text.ExtractPath(ctx, in.FileName, in.Path)
		if err != nil {
			return domain.Candidate{}, fmt.Errorf("op=candidate.extract: %w", err)
		}
		raw = t
	}
	text := textx.Sanitize(raw)

	found := s.Extractor.Extract(ctx, text)
	sec := sections.Extract(ctx, text)

	c, err := s.Builder.Build(CandidateInput{
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		CVText:            text,
		FileName:          in.FileName,
		Skills:            found,
		Experience:        sec.Experience,
		Education:         sec.Education,
		YearsOfExperience: sec.YearsOfExperience,
	})
	if err != nil {
		return domain.Candidate{}, err
	}

	id, err := s.Repo.Create(ctx, c)
	if err != nil {
		lg.Error("failed to save candidate", slog.String("email", c.Email), slog.Any("error", err))
		return domain.Candidate{}, &domain.SaveError{Name: c.Name, Email: c.Email, Err: err}
	}
	c.ID = id
	s.invalidate(ctx)
	lg.Info("candidate ingested",
		slog.String("candidate_id", id),
		slog.Int("skills", len(c.Skills)),
		slog.Bool("years_known", c.YearsOfExperience != nil))
	return c, nil
}

// Get returns one candidate or an error wrapping domain.ErrNotFound.
func (s CandidateService) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Candidate{}, fmt.Errorf("%w: id required", domain.ErrInvalidArgument)
	}
	return s.Repo.Get(ctx, id)
}

// List returns all candidates, newest first.
func (s CandidateService) List(ctx domain.Context) ([]domain.Candidate, error) {
	return s.Repo.List(ctx)
}

// Delete removes a candidate.
func (s CandidateService) Delete(ctx domain.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id required", domain.ErrInvalidArgument)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// FindByEmail looks a candidate up by exact email.
func (s CandidateService) FindByEmail(ctx domain.Context, email string) (domain.Candidate, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Candidate{}, fmt.Errorf("%w: email required", domain.ErrInvalidArgument)
	}
	return s.Repo.FindByEmail(ctx, email)
}

// FindByYearsRange returns candidates whose stated experience lies in [minYears, maxYears].
func (s CandidateService) FindByYearsRange(ctx domain.Context, minYears, maxYears int) ([]domain.Candidate, error) {
	ve := &domain.ValidationError{}
	if minYears < 0 {
		ve.Add("min_years", "must not be negative")
	}
	if maxYears < 0 {
		ve.Add("max_years", "must not be negative")
	}
	if minYears >= 0 && maxYears >= 0 && minYears > maxYears {
		ve.Add("min_years", "must not exceed max_years")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return s.Repo.FindByYearsRange(ctx, minYears, maxYears)
}

// SearchByName returns candidates whose name contains name, case-insensitively.
func (s CandidateService) SearchByName(ctx domain.Context, name string) ([]domain.Candidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrInvalidArgument)
	}
	return s.Repo.SearchByName(ctx, name)
}

func (s CandidateService) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn("dashboard cache invalidation failed", slog.Any("error", err))
	}
}
