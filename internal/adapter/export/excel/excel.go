// Package excel renders stored job analyses as XLSX workbooks.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

const (
	SummarySheet  = "Summary"
	RankingsSheet = "Rankings"
)

// Score bands used for row colouring.
const (
	excellentFill = "C6EFCE"
	goodFill      = "FFEB9C"
	fairFill      = "FFC7CE"
	poorFill      = "FF9999"
	headerFill    = "4472C4"
)

var rankingHeaders = []string{"Rank", "Candidate", "Email", "Phone", "Match Score", "Highlights"}

// Exporter implements domain.AnalysisExporter.
type Exporter struct{}

// NewExporter returns an Exporter.
func NewExporter() Exporter { return Exporter{} }

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export writes a two-sheet workbook for a to w.
func (Exporter) Export(_ domain.Context, a domain.JobAnalysis, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("op=export.xlsx: %w", err)
	}
	if _, err := f.NewSheet(RankingsSheet); err != nil {
		return fmt.Errorf("op=export.xlsx: %w", err)
	}
	if err := writeSummary(f, a); err != nil {
		return fmt.Errorf("op=export.summary: %w", err)
	}
	if err := writeRankings(f, a.Rankings); err != nil {
		return fmt.Errorf("op=export.rankings: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("op=export.write: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeSummary(f *excelize.File, a domain.JobAnalysis) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 28)
	_ = f.SetColWidth(SummarySheet, "B", "B", 80)

	_ = f.SetCellValue(SummarySheet, "A1", "Job Analysis Report")
	_ = f.MergeCell(SummarySheet, "A1", "B1")
	_ = f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle)

	rows := [][2]any{
		{"Job Title", a.Job.Title},
		{"Analysis ID", a.ID},
		{"Created", a.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Candidates Analyzed", a.TotalCandidatesAnalyzed},
		{"Required Skills", joinOrDash(a.Job.RequiredSkills)},
		{"Preferred Skills", joinOrDash(a.Job.PreferredSkills)},
		{"Experience Level", orDash(a.Job.ExperienceLevel)},
		{"Education", orDash(a.Job.EducationRequirement)},
		{"Recommendation", a.TopCandidateRecommendation},
	}
	for i, r := range rows {
		row := i + 3
		_ = f.SetCellValue(SummarySheet, cell(1, row), r[0])
		_ = f.SetCellStyle(SummarySheet, cell(1, row), cell(1, row), labelStyle)
		_ = f.SetCellValue(SummarySheet, cell(2, row), r[1])
		_ = f.SetCellStyle(SummarySheet, cell(2, row), cell(2, row), wrapStyle)
	}
	return nil
}

func writeRankings(f *excelize.File, rankings []domain.MatchResult) error {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	bands := map[string]int{}
	for _, fill := range []string{excellentFill, goodFill, fairFill, poorFill} {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Border:    border,
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		})
		if err != nil {
			return err
		}
		bands[fill] = id
	}

	for i, w := range []float64{8, 28, 30, 18, 14, 70} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(RankingsSheet, col, col, w)
	}
	for i, h := range rankingHeaders {
		_ = f.SetCellValue(RankingsSheet, cell(i+1, 1), h)
	}
	_ = f.SetCellStyle(RankingsSheet, cell(1, 1), cell(len(rankingHeaders), 1), headerStyle)

	for i, m := range rankings {
		row := i + 2
		values := []any{m.RankPosition, m.Name, m.Email, m.Phone, roundScore(m.MatchScore), strings.Join(m.KeyHighlights, "\n")}
		for col, v := range values {
			_ = f.SetCellValue(RankingsSheet, cell(col+1, row), v)
		}
		_ = f.SetCellStyle(RankingsSheet, cell(1, row), cell(len(values), row), bands[BandFill(m.MatchScore)])
	}
	if len(rankings) > 0 {
		rng := fmt.Sprintf("A1:%s", cell(len(rankingHeaders), len(rankings)+1))
		if err := f.AutoFilter(RankingsSheet, rng, nil); err != nil {
			return err
		}
	}
	return f.SetPanes(RankingsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// BandFill returns the row colour for a match score.
func BandFill(score float64) string {
	switch {
	case score >= 90:
		return excellentFill
	case score >= 70:
		return goodFill
	case score >= 50:
		return fairFill
	default:
		return poorFill
	}
}

func roundScore(s float64) float64 {
	return float64(int64(s*100+0.5)) / 100
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
