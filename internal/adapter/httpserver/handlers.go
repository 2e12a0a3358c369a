package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/export/excel"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/textextractor/local"
	"github.com/fairyhunter13/cv-matcher/internal/config"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/internal/usecase"
)

// ReadinessCheck is one named dependency probe for /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server aggregates handlers dependencies.
type Server struct {
	Cfg        config.Config
	Candidates usecase.CandidateService
	Analyses   usecase.JobAnalysisService
	Dashboard  usecase.DashboardService
	Checks     []ReadinessCheck
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, candidates usecase.CandidateService, analyses usecase.JobAnalysisService, dashboard usecase.DashboardService, checks ...ReadinessCheck) *Server {
	return &Server{Cfg: cfg, Candidates: candidates, Analyses: analyses, Dashboard: dashboard, Checks: checks}
}

const (
	maxJSONBody   = 1 << 20
	formOverhead  = 1 << 20
	defaultMaxMB  = 10
	textMIMEClass = "text/"
)

// MIME types accepted per extension after content sniffing. Zip containers
// are accepted for office formats because minimal documents sniff as zip.
var allowedMIME = map[string][]string{
	".pdf":  {"application/pdf"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".odt":  {"application/vnd.oasis.opendocument.text", "application/zip"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".rtf":  {"text/rtf", "application/rtf"},
}

func allowedExt(ext string) bool {
	return slices.Contains(local.SupportedExtensions, ext)
}

func allowedMIMEFor(m, ext string) bool {
	m = strings.ToLower(m)
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	switch ext {
	case ".txt", ".md", ".rtf":
		if strings.HasPrefix(m, textMIMEClass) {
			return true
		}
	}
	return slices.Contains(allowedMIME[ext], m)
}

func acceptsJSON(r *http.Request) bool {
	a := r.Header.Get("Accept")
	return a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json")
}

func writeNotAcceptable(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusNotAcceptable, "INVALID_ARGUMENT", "not acceptable", map[string]any{"accept": r.Header.Get("Accept")})
}

func (s *Server) maxUploadBytes() int64 {
	mb := s.Cfg.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxMB
	}
	return mb * 1024 * 1024
}

type candidateResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	FileName          string    `json:"file_name"`
	Skills            []string  `json:"skills"`
	Experience        string    `json:"experience"`
	Education         string    `json:"education"`
	YearsOfExperience *int      `json:"years_of_experience"`
	CVContent         string    `json:"cv_content,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func toCandidateResponse(c domain.Candidate, withContent bool) candidateResponse {
	out := candidateResponse{
		ID:                c.ID,
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		FileName:          c.FileName,
		Skills:            c.Skills,
		Experience:        c.Experience,
		Education:         c.Education,
		YearsOfExperience: c.YearsOfExperience,
		CreatedAt:         c.CreatedAt,
	}
	if out.Skills == nil {
		out.Skills = []string{}
	}
	if withContent {
		out.CVContent = c.CVContent
	}
	return out
}

type rankingResponse struct {
	CandidateID   string   `json:"candidate_id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone,omitempty"`
	MatchScore    float64  `json:"match_score"`
	RankPosition  int      `json:"rank_position"`
	KeyHighlights []string `json:"key_highlights"`
}

type analysisResponse struct {
	ID                         string                `json:"id"`
	Job                        domain.JobRequirement `json:"job"`
	TotalCandidatesAnalyzed    int                   `json:"total_candidates_analyzed"`
	TopCandidateRecommendation string                `json:"top_candidate_recommendation"`
	Rankings                   []rankingResponse     `json:"rankings"`
	CreatedAt                  time.Time             `json:"created_at"`
}

func toAnalysisResponse(a domain.JobAnalysis) analysisResponse {
	out := analysisResponse{
		ID:                         a.ID,
		Job:                        a.Job,
		TotalCandidatesAnalyzed:    a.TotalCandidatesAnalyzed,
		TopCandidateRecommendation: a.TopCandidateRecommendation,
		Rankings:                   make([]rankingResponse, 0, len(a.Rankings)),
		CreatedAt:                  a.CreatedAt,
	}
	for _, m := range a.Rankings {
		hl := m.KeyHighlights
		if hl == nil {
			hl = []string{}
		}
		out.Rankings = append(out.Rankings, rankingResponse{
			CandidateID:   m.CandidateID,
			Name:          m.Name,
			Email:         m.Email,
			Phone:         m.Phone,
			MatchScore:    m.MatchScore,
			RankPosition:  m.RankPosition,
			KeyHighlights: hl,
		})
	}
	return out
}

// spool writes an upload to a temp file so path-based extractors can read it.
func spool(data []byte, ext string) (string, func(), error) {
	tmp, err := os.CreateTemp("", "cv-upload-*"+ext)
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return tmp.Name(), cleanup, nil
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

// CreateCandidateHandler ingests one CV upload (multipart: file, name, email, phone).
func (s *Server) CreateCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeNotAcceptable(w, r)
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.maxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if isBodyTooLarge(err) {
				writeStatus(w, http.StatusRequestEntityTooLarge, "INVALID_ARGUMENT", "payload too large", map[string]any{"max_mb": maxBytes >> 20})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, hdr, err := r.FormFile("file")
		if err != nil {
			ve := &domain.ValidationError{}
			ve.Add("file", "is required")
			writeError(w, r, ve, nil)
			return
		}
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: file read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if int64(len(data)) > maxBytes {
			writeStatus(w, http.StatusRequestEntityTooLarge, "INVALID_ARGUMENT", "payload too large", map[string]any{"max_mb": maxBytes >> 20})
			return
		}

		name := filepath.Base(hdr.Filename)
		ext := strings.ToLower(filepath.Ext(name))
		if !allowedExt(ext) {
			writeStatus(w, http.StatusUnsupportedMediaType, "INVALID_ARGUMENT", "unsupported media type (extension)",
				map[string]any{"filename": name, "allowed": local.SupportedExtensions})
			return
		}
		mt := mimetype.Detect(data)
		if !allowedMIMEFor(mt.String(), ext) {
			writeStatus(w, http.StatusUnsupportedMediaType, "INVALID_ARGUMENT", "unsupported media type (content)",
				map[string]any{"filename": name, "mime": mt.String()})
			return
		}

		in := usecase.UploadInput{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Phone:    r.FormValue("phone"),
			FileName: name,
		}
		if ext == ".txt" || ext == ".md" {
			in.Text = string(data)
		} else {
			path, cleanup, err := spool(data, ext)
			if err != nil {
				writeError(w, r, fmt.Errorf("op=candidate.spool: %w", err), nil)
				return
			}
			defer cleanup()
			in.Path = path
		}

		c, err := s.Candidates.Ingest(r.Context(), in)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toCandidateResponse(c, false))
	}
}

// ListCandidatesHandler lists candidates, optionally filtered by email, name
// or years of experience.
func (s *Server) ListCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeNotAcceptable(w, r)
			return
		}
		f, err := parseCandidateFilter(r.URL.Query())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		ctx := r.Context()
		var list []domain.Candidate
		switch {
		case f.Email != "":
			c, ferr := s.Candidates.FindByEmail(ctx, f.Email)
			switch {
			case errors.Is(ferr, domain.ErrNotFound):
			case ferr != nil:
				err = ferr
			default:
				list = []domain.Candidate{c}
			}
		case f.Name != "":
			list, err = s.Candidates.SearchByName(ctx, f.Name)
		default:
			if lo, hi, ok := f.yearsRange(); ok {
				list, err = s.Candidates.FindByYearsRange(ctx, lo, hi)
			} else {
				list, err = s.Candidates.List(ctx)
			}
		}
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]candidateResponse, 0, len(list))
		for _, c := range list {
			out = append(out, toCandidateResponse(c, false))
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": out, "count": len(out)})
	}
}

// GetCandidateHandler returns one candidate including its CV text.
func (s *Server) GetCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeNotAcceptable(w, r)
			return
		}
		id := chi.URLParam(r, "id")
		if err := validateID(id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		c, err := s.Candidates.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toCandidateResponse(c, true))
	}
}

// DeleteCandidateHandler removes a candidate.
func (s *Server) DeleteCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := validateID(id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := s.Candidates.Delete(r.Context(), id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CreateAnalysisHandler ranks all stored candidates against the posted job requirement.
func (s *Server) CreateAnalysisHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeNotAcceptable(w, r)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		var job domain.JobRequirement
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			if isBodyTooLarge(err) {
				writeStatus(w, http.StatusRequestEntityTooLarge, "INVALID_ARGUMENT", "payload too large", nil)
				return
			}
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := validateStruct(job); err != nil {
			writeError(w, r, err, nil)
			return
		}
		a, err := s.Analyses.Analyze(r.Context(), job)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toAnalysisResponse(a))
	}
}

// GetAnalysisHandler returns a stored analysis with its rankings.
func (s *Server) GetAnalysisHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeNotAcceptable(w, r)
			return
		}
		id := chi.URLParam(r, "id")
		if err := validateID(id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		a, err := s.Analyses.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toAnalysisResponse(a))
	}
}

// ExportAnalysisHandler streams a stored analysis as an xlsx workbook.
func (s *Server) ExportAnalysisHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := validateID(id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		var buf bytes.Buffer
		if err := s.Analyses.Export(r.Context(), id, &buf); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", excel.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis-%s.xlsx"`, id))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// DashboardHandler returns the aggregated dashboard metrics.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeNotAcceptable(w, r)
			return
		}
		m, err := s.Dashboard.Metrics(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// ReadyzHandler probes every configured dependency and reports 503 when any fails.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(s.Checks))
		ok := true
		for _, c := range s.Checks {
			res := check{Name: c.Name, OK: true}
			if err := c.Check(ctx); err != nil {
				res.OK = false
				res.Details = err.Error()
				ok = false
			}
			checks = append(checks, res)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
