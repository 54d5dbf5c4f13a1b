package pr

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var repoNamePattern = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json name so errors match the stored payload keys.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("reponame", func(fl validator.FieldLevel) bool {
		return repoNamePattern.MatchString(fl.Field().String())
	})

	v.RegisterStructValidation(validateDates, PullRequest{})
	return v
}

// validateDates rejects records updated before they were created.
func validateDates(sl validator.StructLevel) {
	p := sl.Current().Interface().(PullRequest)
	if !p.CreatedAt.IsZero() && !p.UpdatedAt.IsZero() && p.UpdatedAt.Before(p.CreatedAt) {
		sl.ReportError(p.UpdatedAt, "updated_at", "UpdatedAt", "gtecreated", "")
	}
}

// Validate checks the record against the storage contract and returns the
// offending field names, or nil when the record is well-formed.
func (p PullRequest) Validate() []string {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
