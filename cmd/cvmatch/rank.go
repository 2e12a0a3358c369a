package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/export/excel"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/repo/memory"
	"github.com/fairyhunter13/cv-matcher/internal/config"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/internal/usecase"
)

var emailInText = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

type rankFlags struct {
	jobPath  string
	xlsxPath string
}

func newRankCmd(opts *options) *cobra.Command {
	flags := &rankFlags{}
	cmd := &cobra.Command{
		Use:   "rank --job job.yaml <cv files...>",
		Short: "Rank CV files against a job requirement",
		Long: `Rank every CV file against the job requirement in the YAML file and print
the ranking. The candidate name is taken from the file name and the email
from the first address found in the CV.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, opts, flags, args)
		},
	}
	cmd.Flags().StringVarP(&flags.jobPath, "job", "j", "", "Path to job requirement YAML (required)")
	cmd.Flags().StringVarP(&flags.xlsxPath, "xlsx", "o", "", "Write the analysis workbook to this path")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func loadJob(path string) (domain.JobRequirement, error) {
	var job domain.JobRequirement
	b, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("failed to read job file: %w", err)
	}
	if err := yaml.Unmarshal(b, &job); err != nil {
		return job, fmt.Errorf("failed to parse job file: %w", err)
	}
	return job, nil
}

// identity derives the candidate name from the file stem and the email from the CV body.
func identity(path, text string) (string, string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.Join(strings.FieldsFunc(stem, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }), " ")
	if name == "" {
		name = stem
	}
	if m := emailInText.FindString(text); m != "" {
		return name, strings.ToLower(m)
	}
	local := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	return name, local + "@cv.local"
}

func runRank(cmd *cobra.Command, opts *options, flags *rankFlags, files []string) error {
	ctx := cmd.Context()
	job, err := loadJob(flags.jobPath)
	if err != nil {
		return err
	}
	if err := usecase.ValidateJob(job); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	text, ex, err := opts.pipeline()
	if err != nil {
		return err
	}

	candidates := memory.NewCandidateRepo()
	analyses := memory.NewJobAnalysisRepo()
	cands := usecase.NewCandidateService(candidates, ex, text, nil)
	for _, path := range files {
		name := filepath.Base(path)
		content, err := text.ExtractPath(ctx, name, path)
		if err != nil {
			slog.Warn("skipping unreadable cv", slog.String("file", path), slog.Any("error", err))
			continue
		}
		cname, email := identity(path, content)
		if _, err := cands.Ingest(ctx, usecase.UploadInput{Name: cname, Email: email, FileName: name, Text: content}); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				slog.Warn("skipping duplicate candidate", slog.String("file", path), slog.String("email", email))
				continue
			}
			slog.Warn("skipping cv", slog.String("file", path), slog.Any("error", err))
		}
	}

	svc := usecase.NewJobAnalysisService(candidates, analyses, usecase.NewRanker(cfg.RankWorkers), usecase.Recommender{}, nil, excel.NewExporter(), nil)
	a, err := svc.Analyze(ctx, job)
	if err != nil {
		return fmt.Errorf("failed to analyze: %w", err)
	}
	if err := printRanking(cmd.OutOrStdout(), a); err != nil {
		return err
	}
	if flags.xlsxPath == "" {
		return nil
	}
	f, err := os.Create(flags.xlsxPath)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	defer f.Close()
	if err := svc.Export(ctx, a.ID, f); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", flags.xlsxPath)
	return nil
}

func printRanking(out io.Writer, a domain.JobAnalysis) error {
	fmt.Fprintf(out, "%s: %d candidate(s) analyzed\n\n", a.Job.Title, a.TotalCandidatesAnalyzed)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tNAME\tEMAIL\tHIGHLIGHTS")
	for _, r := range a.Rankings {
		fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\t%s\n", r.RankPosition, r.MatchScore, r.Name, r.Email, strings.Join(r.KeyHighlights, "; "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n", a.TopCandidateRecommendation)
	return nil
}
