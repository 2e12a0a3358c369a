package httpserver_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/export/excel"
	httpserver "github.com/fairyhunter13/cv-matcher/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/repo/memory"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/textextractor/local"
	"github.com/fairyhunter13/cv-matcher/internal/config"
	"github.com/fairyhunter13/cv-matcher/internal/usecase"
)

const sampleCV = "Jane Smith\nSummary\n5 years of experience building Java, Spring and PostgreSQL services.\n\nEducation\nBachelor of Science in Computer Science"

type fixture struct {
	srv        *httpserver.Server
	candidates *memory.CandidateRepo
	analyses   *memory.JobAnalysisRepo
	handler    http.Handler
}

func newFixture(t *testing.T, checks ...httpserver.ReadinessCheck) *fixture {
	t.Helper()
	cands := memory.NewCandidateRepo()
	analyses := memory.NewJobAnalysisRepo()
	cfg := config.Config{MaxUploadMB: 1}
	srv := httpserver.NewServer(cfg,
		usecase.NewCandidateService(cands, nil, local.New(nil), nil),
		usecase.NewJobAnalysisService(cands, analyses, usecase.NewRanker(2), usecase.Recommender{}, nil, excel.NewExporter(), nil),
		usecase.NewDashboardService(memory.NewDashboardRepo(cands, analyses), nil, 0),
		checks...,
	)
	r := chi.NewRouter()
	r.Use(httpserver.RequestID())
	r.Post("/v1/candidates", srv.CreateCandidateHandler())
	r.Get("/v1/candidates", srv.ListCandidatesHandler())
	r.Get("/v1/candidates/{id}", srv.GetCandidateHandler())
	r.Delete("/v1/candidates/{id}", srv.DeleteCandidateHandler())
	r.Post("/v1/analyses", srv.CreateAnalysisHandler())
	r.Get("/v1/analyses/{id}", srv.GetAnalysisHandler())
	r.Get("/v1/analyses/{id}/export.xlsx", srv.ExportAnalysisHandler())
	r.Get("/v1/dashboard", srv.DashboardHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	return &fixture{srv: srv, candidates: cands, analyses: analyses, handler: r}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/candidates", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func okCheck(context.Context) error { return nil }
