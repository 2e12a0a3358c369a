package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	SkillsExtractedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skills_extracted_total",
			Help: "Skills recognized in CV text by extraction pass",
		},
		[]string{"source"},
	)
	SkillExtractionFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skill_extraction_fallback_total",
			Help: "Times skill extraction degraded, by reason",
		},
		[]string{"reason"},
	)

	// Match score distribution on the 0..100 scale
	CandidateMatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_match_score",
			Help:    "Distribution of candidate match scores (0-100)",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	RankingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "Time to score and rank all candidates for one job",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	NarrativeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_requests_total",
			Help: "Recommendation narrative requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	NarrativeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "narrative_request_duration_seconds",
			Help:    "Recommendation narrative request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)
	NarrativePromptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "narrative_prompt_tokens",
			Help:    "Token count of recommendation prompts",
			Buckets: prometheus.ExponentialBuckets(32, 2, 8),
		},
	)
)

var registerOnce sync.Once

func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(SkillsExtractedTotal)
		prometheus.MustRegister(SkillExtractionFallbackTotal)
		prometheus.MustRegister(CandidateMatchScore)
		prometheus.MustRegister(RankingDuration)
		prometheus.MustRegister(NarrativeRequestsTotal)
		prometheus.MustRegister(NarrativeRequestDuration)
		prometheus.MustRegister(NarrativePromptTokens)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// RecordSkills counts skills contributed by one extraction pass.
func RecordSkills(source string, n int) {
	if n > 0 {
		SkillsExtractedTotal.WithLabelValues(source).Add(float64(n))
	}
}

// RecordSkillFallback counts a degraded extraction.
func RecordSkillFallback(reason string) {
	SkillExtractionFallbackTotal.WithLabelValues(reason).Inc()
}

// ObserveMatchScore records a final candidate score.
func ObserveMatchScore(score float64) {
	if score >= 0 && score <= 100 {
		CandidateMatchScore.Observe(score)
	}
}

// ObserveRanking records how long one ranking run took.
func ObserveRanking(d time.Duration) {
	RankingDuration.Observe(d.Seconds())
}

// ObserveNarrative records a recommendation request outcome.
func ObserveNarrative(provider, outcome string, d time.Duration) {
	NarrativeRequestsTotal.WithLabelValues(provider, outcome).Inc()
	NarrativeRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObservePromptTokens records the size of a recommendation prompt.
func ObservePromptTokens(n int) {
	if n > 0 {
		NarrativePromptTokens.Observe(float64(n))
	}
}
