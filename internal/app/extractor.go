package app

import (
	"github.com/fairyhunter13/cv-matcher/internal/config"
	"github.com/fairyhunter13/cv-matcher/internal/skills"
)

// NewSkillExtractor loads the configured taxonomy (embedded when unset) and
// builds the skill extractor with the configured annotator deadline.
func NewSkillExtractor(cfg config.Config) (*skills.Extractor, error) {
	tax, err := skills.Load(cfg.SkillTaxonomyPath)
	if err != nil {
		return nil, err
	}
	return skills.NewExtractor(tax, skills.WithAnnotatorTimeout(cfg.SkillAnnotatorTimeout)), nil
}
