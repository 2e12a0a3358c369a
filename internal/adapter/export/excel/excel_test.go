package excel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

func sampleAnalysis() domain.JobAnalysis {
	return domain.JobAnalysis{
		ID: "analysis-1",
		Job: domain.JobRequirement{
			Title:          "Backend Engineer",
			RequiredSkills: []string{"Go", "PostgreSQL"},
		},
		TotalCandidatesAnalyzed:    2,
		TopCandidateRecommendation: "Ada is the top candidate.",
		CreatedAt:                  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Rankings: []domain.MatchResult{
			{CandidateID: "c1", Name: "Ada", Email: "ada@example.com", MatchScore: 92.346, RankPosition: 1, KeyHighlights: []string{"Matches 2 skills", "7 years"}},
			{CandidateID: "c2", Name: "Grace", Email: "grace@example.com", MatchScore: 41, RankPosition: 2},
		},
	}
}

func TestExport_WritesSummaryAndRankings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(context.Background(), sampleAnalysis(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SummarySheet, RankingsSheet}, f.GetSheetList())

	title, err := f.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", title)

	skills, err := f.GetCellValue(SummarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "Go, PostgreSQL", skills)

	rows, err := f.GetRows(RankingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rankingHeaders, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Ada", rows[1][1])
	assert.Equal(t, "92.35", rows[1][4])
	assert.Equal(t, "Matches 2 skills\n7 years", rows[1][5])
	assert.Equal(t, "Grace", rows[2][1])
}

func TestExport_NoRankings(t *testing.T) {
	a := sampleAnalysis()
	a.Rankings = nil
	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(context.Background(), a, &buf))
	assert.Positive(t, buf.Len())
}

func TestBandFill(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, excellentFill},
		{90, excellentFill},
		{89.99, goodFill},
		{70, goodFill},
		{50, fairFill},
		{49.9, poorFill},
		{0, poorFill},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFill(tt.score), "score %v", tt.score)
	}
}
