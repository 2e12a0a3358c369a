package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/cv-matcher/internal/sections"
	"github.com/fairyhunter13/cv-matcher/pkg/textx"
)

type profile struct {
	FileName          string   `json:"file_name"`
	Skills            []string `json:"skills"`
	Experience        string   `json:"experience"`
	Education         string   `json:"education"`
	YearsOfExperience *int     `json:"years_of_experience"`
	Characters        int      `json:"characters"`
}

func newExtractCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the profile extracted from one CV as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, ex, err := opts.pipeline()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			path := args[0]
			content, err := text.ExtractPath(ctx, filepath.Base(path), path)
			if err != nil {
				return fmt.Errorf("extract %s: %w", path, err)
			}
			content = textx.Sanitize(content)
			sec := sections.Extract(ctx, content)
			p := profile{
				FileName:          filepath.Base(path),
				Skills:            ex.Extract(ctx, content),
				Experience:        sec.Experience,
				Education:         sec.Education,
				YearsOfExperience: sec.YearsOfExperience,
				Characters:        len([]rune(content)),
			}
			if p.Skills == nil {
				p.Skills = []string{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}
