package validation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

// knownMethods are the method tokens a CORS policy may list.
var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
	http.MethodConnect: {},
}

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("http_method", validateHTTPMethod); err != nil {
		panic(fmt.Sprintf("failed to register http_method validator: %v", err))
	}
}

// validateHTTPMethod validates that a string is a known HTTP method token
func validateHTTPMethod(fl validator.FieldLevel) bool {
	return IsHTTPMethod(fl.Field().String())
}

// IsHTTPMethod reports whether value is a known HTTP method, ignoring case and surrounding space.
func IsHTTPMethod(value string) bool {
	_, ok := knownMethods[NormalizeMethod(value)]
	return ok
}

// NormalizeMethod trims and upper-cases a method token.
func NormalizeMethod(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// SplitList splits a comma-separated list, trimming entries and dropping blanks and duplicates.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		s := strings.TrimSpace(p)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
