package skills

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
)

// DefaultAnnotatorTimeout bounds the lexical pass.
const DefaultAnnotatorTimeout = 2 * time.Second

// fallbackKeywords is the short list used when extraction degrades.
var fallbackKeywords = []string{
	"Java", "Python", "JavaScript", "React", "Angular", "Spring", "Node.js",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Docker", "Kubernetes",
	"AWS", "Azure", "Git", "Jenkins", "CI/CD", "Agile", "Scrum",
	"HTML", "CSS", "REST API", "Microservices", "Leadership", "Communication",
}

var (
	skillPattern = regexp.MustCompile(`(?i)\b(java|python|javascript|typescript|react|angular|vue|spring|node\.?js|docker|kubernetes|aws|azure|gcp|sql|mongodb|postgresql|mysql|git|jenkins|ci/cd|agile|scrum|devops|microservices|api|rest|graphql|html|css|sass|less|bootstrap|tailwind|maven|gradle|junit|selenium|cypress|terraform|ansible|redis|elasticsearch|kafka|rabbitmq|nginx|apache|linux|ubuntu|centos|windows|macos)\b`)
	versionPattern = regexp.MustCompile(`\b([a-zA-Z]+)\s*[vV]?\d+(?:\.\d+)*\b`)

	listSplit     = regexp.MustCompile(`[,;•\-*]`)
	bulletResidue = regexp.MustCompile(`^[\s•\-*]+`)
)

var (
	listCues  = []string{"skills", "technologies", "technical", "proficient"}
	usageCues = []string{"experience", "worked with", "using", "developed"}
)

// Extractor recognizes taxonomy skills in free text. It is safe for
// concurrent use.
type Extractor struct {
	tax       *Taxonomy
	annotator Annotator
	timeout   time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAnnotator replaces the lexical annotator; nil disables the lexical pass.
func WithAnnotator(a Annotator) Option { return func(e *Extractor) { e.annotator = a } }

// WithAnnotatorTimeout sets the lexical pass deadline.
func WithAnnotatorTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExtractor builds an extractor over tax, or the embedded taxonomy when nil.
func NewExtractor(tax *Taxonomy, opts ...Option) *Extractor {
	if tax == nil {
		tax = Default()
	}
	e := &Extractor{tax: tax, annotator: RegexAnnotator{}, timeout: DefaultAnnotatorTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Taxonomy returns the catalog the extractor matches against.
func (e *Extractor) Taxonomy() *Taxonomy { return e.tax }

// Extract returns the sorted, de-duplicated canonical skills found in text.
// A failing lexical pass is skipped; a panic or an empty result yields the
// keyword fallback.
func (e *Extractor) Extract(ctx context.Context, text string) (skills []string) {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	lg := observability.LoggerFromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			lg.Warn("skill extraction panicked; using keyword fallback", slog.Any("panic", r))
			observability.RecordSkillFallback("panic")
			skills = Fallback(text)
		}
	}()

	candidates := make([]string, 0, 32)

	lexical, err := e.lexicalPass(ctx, text)
	if err != nil {
		reason := "annotator_error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "annotator_timeout"
		}
		lg.Warn("skill annotation failed; continuing with pattern passes", slog.String("reason", reason), slog.Any("error", err))
		observability.RecordSkillFallback(reason)
	}
	observability.RecordSkills("lexical", len(lexical))
	candidates = append(candidates, lexical...)

	pattern := e.patternPass(text)
	observability.RecordSkills("pattern", len(pattern))
	candidates = append(candidates, pattern...)

	contextual := e.contextPass(text)
	observability.RecordSkills("context", len(contextual))
	candidates = append(candidates, contextual...)

	out := e.normalize(candidates)
	if len(out) == 0 {
		lg.Debug("no skills recognized; using keyword fallback")
		observability.RecordSkillFallback("empty")
		out = Fallback(text)
		observability.RecordSkills("fallback", len(out))
	}
	return out
}

func (e *Extractor) lexicalPass(ctx context.Context, text string) ([]string, error) {
	if e.annotator == nil {
		return nil, nil
	}
	actx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		toks []Token
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("annotator panic: %v", r)}
			}
		}()
		toks, err := e.annotator.Annotate(actx, text)
		ch <- result{toks: toks, err: err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-actx.Done():
		return nil, actx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}
	var out []string
	for _, tok := range res.toks {
		w := strings.TrimSpace(tok.Text)
		if w == "" {
			continue
		}
		noun := strings.HasPrefix(tok.POS, "NNP") || tok.POS == "NN"
		switch {
		case e.tax.IsKnown(w):
			out = append(out, w)
		case (noun || tok.NER == "ORGANIZATION") && e.tax.IsTechnicalTerm(w):
			out = append(out, w)
		}
	}
	return out, nil
}

func (e *Extractor) patternPass(text string) []string {
	var out []string
	for _, m := range skillPattern.FindAllString(text, -1) {
		out = append(out, e.tax.Canonical(m))
	}
	for _, m := range versionPattern.FindAllStringSubmatch(text, -1) {
		if e.tax.IsTechnicalTerm(m[1]) {
			out = append(out, e.tax.Canonical(m[1]))
		}
	}
	return out
}

func (e *Extractor) contextPass(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if containsAny(lower, listCues) {
			for _, frag := range listSplit.Split(line, -1) {
				frag = bulletResidue.ReplaceAllString(strings.TrimSpace(frag), "")
				if n := utf8.RuneCountInString(frag); n > 2 && n < 30 && e.tax.IsValidSkill(frag) {
					out = append(out, e.tax.Canonical(frag))
				}
			}
		}
		if containsAny(lower, usageCues) {
			for _, ent := range e.tax.entries {
				if strings.Contains(lower, strings.ToLower(ent.Name)) {
					out = append(out, ent.Name)
				}
			}
		}
	}
	return out
}

func (e *Extractor) normalize(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) <= 1 || !e.tax.IsValidSkill(c) {
			continue
		}
		name := e.tax.Canonical(c)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Fallback returns the keyword-list entries found in text, case-insensitively.
func Fallback(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, k := range fallbackKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
