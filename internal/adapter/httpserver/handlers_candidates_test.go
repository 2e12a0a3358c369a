package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var eb errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eb))
	return eb
}

func intPtr(v int) *int { return &v }

var janeFields = map[string]string{"name": "Jane Smith", "email": "jane@example.com", "phone": "+1 555 0100"}

func TestCreateCandidate_TextUpload(t *testing.T) {
	f := newFixture(t)
	rec := f.do(uploadRequest(t, janeFields, "jane.txt", []byte(sampleCV)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var body struct {
		ID                string   `json:"id"`
		Name              string   `json:"name"`
		FileName          string   `json:"file_name"`
		Skills            []string `json:"skills"`
		YearsOfExperience *int     `json:"years_of_experience"`
		Education         string   `json:"education"`
		CVContent         string   `json:"cv_content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "Jane Smith", body.Name)
	assert.Equal(t, "jane.txt", body.FileName)
	assert.Equal(t, []string{"Java", "PostgreSQL", "Spring"}, body.Skills)
	require.NotNil(t, body.YearsOfExperience)
	assert.Equal(t, 5, *body.YearsOfExperience)
	assert.Equal(t, "Bachelor of Science in Computer Science", body.Education)
	assert.Empty(t, body.CVContent)

	stored, err := f.candidates.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, body.ID, stored.ID)
}

func TestCreateCandidate_DuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(uploadRequest(t, janeFields, "jane.txt", []byte(sampleCV))).Code)

	rec := f.do(uploadRequest(t, janeFields, "jane.md", []byte(sampleCV)))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, rec).Error.Code)
}

func TestCreateCandidate_ValidationListsEveryField(t *testing.T) {
	f := newFixture(t)
	rec := f.do(uploadRequest(t, map[string]string{"phone": "1"}, "cv.txt", []byte(sampleCV)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	eb := decodeError(t, rec)
	assert.Equal(t, "INVALID_ARGUMENT", eb.Error.Code)
	var fields []domain.FieldError
	require.NoError(t, json.Unmarshal(eb.Error.Details, &fields))
	names := []string{}
	for _, fe := range fields {
		names = append(names, fe.Field)
	}
	assert.Equal(t, []string{"name", "email"}, names)
}

func TestCreateCandidate_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing file",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, janeFields, "", nil) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "file",
		},
		{
			name:     "unsupported extension",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, janeFields, "cv.exe", []byte("MZ")) },
			wantCode: http.StatusUnsupportedMediaType,
			wantMsg:  "extension",
		},
		{
			name:     "content does not match extension",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, janeFields, "cv.pdf", []byte(sampleCV)) },
			wantCode: http.StatusUnsupportedMediaType,
			wantMsg:  "content",
		},
		{
			name:     "unreadable pdf",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, janeFields, "cv.pdf", []byte("%PDF-1.4\n%%EOF\n")) },
			wantCode: http.StatusBadRequest,
			wantMsg:  "op=candidate.extract",
		},
		{
			name: "file over the upload limit",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, janeFields, "big.txt", bytes.Repeat([]byte("a"), 1<<20+10))
			},
			wantCode: http.StatusRequestEntityTooLarge,
			wantMsg:  "payload too large",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/v1/candidates", strings.NewReader("{}"))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantCode: http.StatusBadRequest,
			wantMsg:  "multipart/form-data",
		},
		{
			name: "not acceptable",
			req: func(t *testing.T) *http.Request {
				req := uploadRequest(t, janeFields, "jane.txt", []byte(sampleCV))
				req.Header.Set("Accept", "text/html")
				return req
			},
			wantCode: http.StatusNotAcceptable,
			wantMsg:  "not acceptable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(tt.req(t))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			all, err := f.candidates.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func seedCandidates(t *testing.T, f *fixture) []string {
	t.Helper()
	ctx := context.Background()
	ids := []string{}
	for _, c := range []domain.Candidate{
		{Name: "Jane Smith", Email: "jane@example.com", CVContent: "java spring services", FileName: "jane.pdf",
			Skills: []string{"Java", "Spring", "PostgreSQL"}, YearsOfExperience: intPtr(5), Education: "Bachelor of Science"},
		{Name: "Grace Hopper", Email: "grace@example.com", CVContent: "cobol", FileName: "grace.pdf",
			Skills: []string{"COBOL"}, YearsOfExperience: intPtr(30)},
	} {
		id, err := f.candidates.Create(ctx, c)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func listCount(t *testing.T, f *fixture, query string) (int, int) {
	t.Helper()
	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/candidates"+query, nil))
	if rec.Code != http.StatusOK {
		return rec.Code, -1
	}
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body.Count
}

func TestListCandidates_Filters(t *testing.T) {
	f := newFixture(t)
	seedCandidates(t, f)

	tests := []struct {
		query     string
		wantCode  int
		wantCount int
	}{
		{"", http.StatusOK, 2},
		{"?name=JANE", http.StatusOK, 1},
		{"?email=grace@example.com", http.StatusOK, 1},
		{"?email=nobody@example.com", http.StatusOK, 0},
		{"?min_years=3&max_years=6", http.StatusOK, 1},
		{"?min_years=10", http.StatusOK, 1},
		{"?max_years=4", http.StatusOK, 0},
		{"?min_years=6&max_years=3", http.StatusBadRequest, -1},
		{"?min_years=many", http.StatusBadRequest, -1},
		{"?email=not-an-email", http.StatusBadRequest, -1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, n := listCount(t, f, tt.query)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestGetCandidate(t *testing.T) {
	f := newFixture(t)
	ids := seedCandidates(t, f)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/candidates/"+ids[0], nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Jane Smith", body["name"])
	assert.Equal(t, "java spring services", body["cv_content"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/v1/candidates/unknown-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/v1/candidates/bad.id", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCandidate(t *testing.T) {
	f := newFixture(t)
	ids := seedCandidates(t, f)

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/v1/candidates/"+ids[1], nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/v1/candidates/"+ids[1], nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, n := listCount(t, f, "")
	assert.Equal(t, 1, n)
}
