// Command cvmatch runs the CV matching pipeline offline: it extracts
// profiles from CV files and ranks them against a job description without
// a database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/textextractor/local"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/cv-matcher/internal/app"
	"github.com/fairyhunter13/cv-matcher/internal/config"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/internal/skills"
)

// options are the persistent flags shared by all subcommands.
type options struct {
	tikaURL  string
	taxonomy string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "cvmatch",
		Short:         "Extract CV profiles and rank candidates offline",
		Long:          "cvmatch extracts skills, experience and education from CV files and ranks them against a job requirement using the same scoring as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&opts.tikaURL, "tika", "", "Apache Tika base URL used for formats the local parsers cannot read")
	root.PersistentFlags().StringVar(&opts.taxonomy, "taxonomy", "", "Path to a skill taxonomy YAML file (default: embedded)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(newExtractCmd(opts), newRankCmd(opts))
	return root
}

// pipeline builds the text and skill extractors from flags, falling back to
// the environment configuration.
func (o *options) pipeline() (domain.TextExtractor, *skills.Extractor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.taxonomy != "" {
		cfg.SkillTaxonomyPath = o.taxonomy
	}
	ex, err := app.NewSkillExtractor(cfg)
	if err != nil {
		return nil, nil, err
	}
	var fallback domain.TextExtractor
	if o.tikaURL != "" {
		fallback = tika.New(o.tikaURL)
	}
	return local.New(fallback), ex, nil
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
