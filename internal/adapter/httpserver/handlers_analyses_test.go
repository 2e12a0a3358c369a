package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/export/excel"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/internal/usecase"
)

const backendJob = `{
	"job_title": "Backend Engineer",
	"job_description": "Build Java and Spring services",
	"required_skills": ["Java", "Spring"],
	"preferred_skills": ["PostgreSQL"],
	"education_requirement": "Bachelor",
	"min_years_experience": 3,
	"max_years_experience": 8
}`

type analysisBody struct {
	ID                         string `json:"id"`
	TotalCandidatesAnalyzed    int    `json:"total_candidates_analyzed"`
	TopCandidateRecommendation string `json:"top_candidate_recommendation"`
	Job                        struct {
		Title string `json:"job_title"`
	} `json:"job"`
	Rankings []struct {
		CandidateID   string   `json:"candidate_id"`
		Name          string   `json:"name"`
		MatchScore    float64  `json:"match_score"`
		RankPosition  int      `json:"rank_position"`
		KeyHighlights []string `json:"key_highlights"`
	} `json:"rankings"`
}

func postAnalysis(t *testing.T, f *fixture, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func TestCreateAnalysis_RanksAndPersists(t *testing.T) {
	f := newFixture(t)
	ids := seedCandidates(t, f)

	rec := postAnalysis(t, f, backendJob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created analysisBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Backend Engineer", created.Job.Title)
	assert.Equal(t, 2, created.TotalCandidatesAnalyzed)
	require.Len(t, created.Rankings, 2)
	assert.Equal(t, ids[0], created.Rankings[0].CandidateID)
	assert.Equal(t, 1, created.Rankings[0].RankPosition)
	assert.Equal(t, 2, created.Rankings[1].RankPosition)
	assert.GreaterOrEqual(t, created.Rankings[0].MatchScore, created.Rankings[1].MatchScore)
	assert.Contains(t, created.TopCandidateRecommendation, "Jane Smith is the top candidate")

	rec = f.do(httptest.NewRequest(http.MethodGet, "/v1/analyses/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded analysisBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, created.ID, loaded.ID)
	require.Len(t, loaded.Rankings, 2)
	assert.Equal(t, created.Rankings[0].CandidateID, loaded.Rankings[0].CandidateID)
	assert.NotNil(t, loaded.Rankings[1].KeyHighlights)
}

func TestCreateAnalysis_NoCandidates(t *testing.T) {
	f := newFixture(t)
	rec := postAnalysis(t, f, backendJob)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body analysisBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, usecase.NoCandidatesRecommendation, body.TopCandidateRecommendation)
	assert.NotNil(t, body.Rankings)
	assert.Empty(t, body.Rankings)
	assert.Zero(t, body.TotalCandidatesAnalyzed)
}

func TestCreateAnalysis_Rejections(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		rec := postAnalysis(t, newFixture(t), "{")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid json")
	})

	t.Run("missing title and description", func(t *testing.T) {
		rec := postAnalysis(t, newFixture(t), `{"required_skills": ["Go"]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields []domain.FieldError
		require.NoError(t, json.Unmarshal(decodeError(t, rec).Error.Details, &fields))
		require.Len(t, fields, 2)
		assert.Equal(t, "job_title", fields[0].Field)
		assert.Equal(t, "is required", fields[0].Message)
		assert.Equal(t, "job_description", fields[1].Field)
	})

	t.Run("negative years", func(t *testing.T) {
		rec := postAnalysis(t, newFixture(t), `{"job_title":"T","job_description":"D","min_years_experience":-1}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "min_years_experience")
	})

	t.Run("min above max", func(t *testing.T) {
		rec := postAnalysis(t, newFixture(t), `{"job_title":"T","job_description":"D","min_years_experience":5,"max_years_experience":2}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "must not exceed max_years_experience")
	})

	t.Run("body too large", func(t *testing.T) {
		big := `{"job_title":"T","job_description":"` + strings.Repeat("a", 2<<20) + `"}`
		rec := postAnalysis(t, newFixture(t), big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestGetAnalysis_NotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/analyses/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/v1/analyses/missing/export.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportAnalysis(t *testing.T) {
	f := newFixture(t)
	seedCandidates(t, f)
	rec := postAnalysis(t, f, backendJob)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created analysisBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/v1/analyses/"+created.ID+"/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, excel.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "analysis-"+created.ID+".xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip container")
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	seedCandidates(t, f)
	require.Equal(t, http.StatusCreated, postAnalysis(t, f, backendJob).Code)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var m domain.DashboardMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, int64(2), m.TotalCandidates)
	assert.Equal(t, int64(1), m.TotalJobAnalyses)
	assert.Equal(t, int64(2), m.RecentUploads)
	require.NotEmpty(t, m.TopSkills)
	assert.Equal(t, "COBOL", m.TopSkills[0].Name)
	assert.Equal(t, 2, m.SkillDistribution[usecase.Skills1To3])
	assert.InDelta(t, 17.5, m.AverageExperience, 1e-9)
	require.Len(t, m.RecentJobAnalyses, 1)
	assert.Equal(t, "Backend Engineer", m.RecentJobAnalyses[0].JobTitle)
}
