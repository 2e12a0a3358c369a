package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

// JobAnalysisService ranks every stored candidate against a job, records
// the outcome and announces it.
type JobAnalysisService struct {
	Candidates  domain.CandidateRepository
	Analyses    domain.JobAnalysisRepository
	Ranker      Ranker
	Recommender Recommender
	Publisher   domain.AnalysisPublisher
	Exporter    domain.AnalysisExporter
	Cache       domain.MetricsCache
	Now         func() time.Time
}

// NewJobAnalysisService constructs a JobAnalysisService. Publisher, exporter
// and cache are optional.
func NewJobAnalysisService(c domain.CandidateRepository, a domain.JobAnalysisRepository, r Ranker, rec Recommender, pub domain.AnalysisPublisher, exp domain.AnalysisExporter, cache domain.MetricsCache) JobAnalysisService {
	return JobAnalysisService{Candidates: c, Analyses: a, Ranker: r, Recommender: rec, Publisher: pub, Exporter: exp, Cache: cache}
}

// ValidateJob reports every malformed field of a job requirement.
func ValidateJob(job domain.JobRequirement) error {
	ve := &domain.ValidationError{}
	if strings.TrimSpace(job.Title) == "" {
		ve.Add("job_title", "is required")
	}
	if strings.TrimSpace(job.Description) == "" {
		ve.Add("job_description", "is required")
	}
	if job.MinYearsExperience != nil && *job.MinYearsExperience < 0 {
		ve.Add("min_years_experience", "must not be negative")
	}
	if job.MaxYearsExperience != nil && *job.MaxYearsExperience < 0 {
		ve.Add("max_years_experience", "must not be negative")
	}
	if job.MinYearsExperience != nil && job.MaxYearsExperience != nil && *job.MinYearsExperience > *job.MaxYearsExperience {
		ve.Add("min_years_experience", "must not exceed max_years_experience")
	}
	return ve.OrNil()
}

// Analyze ranks all candidates for job and stores the analysis. A ranking
// row that fails to persist is logged and skipped.
func (s JobAnalysisService) Analyze(ctx domain.Context, job domain.JobRequirement) (domain.JobAnalysis, error) {
	tracer := otel.Tracer("usecase.analysis")
	ctx, span := tracer.Start(ctx, "JobAnalysis.Analyze")
	defer span.End()
	lg := observability.LoggerFromContext(ctx)

	if err := ValidateJob(job); err != nil {
		return domain.JobAnalysis{}, err
	}
	candidates, err := s.Candidates.List(ctx)
	if err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("op=analysis.load_candidates: %w", err)
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	ranking, err := s.Ranker.Rank(ctx, job, candidates)
	if err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("op=analysis.rank: %w", err)
	}
	a := domain.JobAnalysis{
		Job:                        job,
		TotalCandidatesAnalyzed:    len(candidates),
		TopCandidateRecommendation: s.Recommender.Recommend(ctx, job, ranking),
		Rankings:                   ranking.Results,
		CreatedAt:                  s.now(),
	}

	id, err := s.Analyses.Create(ctx, a)
	if err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("op=analysis.save: %w", err)
	}
	a.ID = id
	for _, r := range a.Rankings {
		if err := s.Analyses.AddRanking(ctx, id, r); err != nil {
			lg.Warn("failed to save ranking", slog.String("analysis_id", id), slog.String("candidate_id", r.CandidateID), slog.Any("error", err))
		}
	}

	s.publish(ctx, a)
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			lg.Warn("dashboard cache invalidation failed", slog.Any("error", err))
		}
	}
	lg.Info("job analysis completed", slog.String("analysis_id", id), slog.String("job_title", job.Title), slog.Int("candidates", len(candidates)))
	return a, nil
}

func (s JobAnalysisService) publish(ctx domain.Context, a domain.JobAnalysis) {
	if s.Publisher == nil {
		return
	}
	ev := domain.AnalysisCompletedEvent{
		AnalysisID:         a.ID,
		JobTitle:           a.Job.Title,
		CandidatesAnalyzed: a.TotalCandidatesAnalyzed,
		CreatedAt:          a.CreatedAt,
	}
	if len(a.Rankings) > 0 {
		ev.TopCandidateID = a.Rankings[0].CandidateID
		ev.TopScore = a.Rankings[0].MatchScore
	}
	if err := s.Publisher.PublishAnalysisCompleted(ctx, ev); err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to publish analysis event", slog.String("analysis_id", a.ID), slog.Any("error", err))
	}
}

// Get reloads a stored analysis with its rankings.
func (s JobAnalysisService) Get(ctx domain.Context, id string) (domain.JobAnalysis, error) {
	if strings.TrimSpace(id) == "" {
		return domain.JobAnalysis{}, fmt.Errorf("%w: id required", domain.ErrInvalidArgument)
	}
	return s.Analyses.Get(ctx, id)
}

// Export writes a stored analysis through the configured exporter.
func (s JobAnalysisService) Export(ctx domain.Context, id string, w io.Writer) error {
	if s.Exporter == nil {
		return fmt.Errorf("%w: export not configured", domain.ErrInternal)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Exporter.Export(ctx, a, w)
}

func (s JobAnalysisService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
