package httpserver

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

// getValidator returns the shared validator; field names in errors follow json tags.
func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New()
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return vld
}

// validateStruct runs tag validation and converts failures into a
// *domain.ValidationError listing every field.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	ve := &domain.ValidationError{}
	for _, fe := range fes {
		ve.Add(fieldPath(fe), ruleMessage(fe))
	}
	return ve
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "email":
		return "is not a valid address"
	default:
		return "failed " + fe.Tag()
	}
}

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,100}$`)

// validateID rejects empty, oversized or non-slug path ids before they reach storage.
func validateID(id string) error {
	if validID.MatchString(id) {
		return nil
	}
	ve := &domain.ValidationError{}
	switch {
	case id == "":
		ve.Add("id", "is required")
	case len(id) > 100:
		ve.Add("id", "must be at most 100 characters")
	default:
		ve.Add("id", "may contain only letters, digits, '-' and '_'")
	}
	return ve
}

// candidateFilter is the parsed query of GET /v1/candidates. At most one
// filter applies, in the order email, name, years range.
type candidateFilter struct {
	Email    string
	Name     string
	MinYears *int
	MaxYears *int
}

func parseCandidateFilter(q url.Values) (candidateFilter, error) {
	f := candidateFilter{
		Email: strings.TrimSpace(q.Get("email")),
		Name:  strings.TrimSpace(q.Get("name")),
	}
	ve := &domain.ValidationError{}
	parseInt := func(key string) *int {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve.Add(key, "must be an integer")
			return nil
		}
		return &n
	}
	f.MinYears = parseInt("min_years")
	f.MaxYears = parseInt("max_years")
	if f.Email != "" {
		if err := getValidator().Var(f.Email, "email"); err != nil {
			ve.Add("email", "is not a valid address")
		}
	}
	return f, ve.OrNil()
}

// yearsRange resolves the optional bounds; an open upper bound covers any career length.
func (f candidateFilter) yearsRange() (int, int, bool) {
	if f.MinYears == nil && f.MaxYears == nil {
		return 0, 0, false
	}
	lo, hi := 0, math.MaxInt32
	if f.MinYears != nil {
		lo = *f.MinYears
	}
	if f.MaxYears != nil {
		hi = *f.MaxYears
	}
	return lo, hi, true
}
