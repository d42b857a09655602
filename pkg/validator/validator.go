package validator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Kevin42127/TinyLink/pkg/generator"
	"github.com/Kevin42127/TinyLink/pkg/response"
	"github.com/go-playground/validator/v10"
)

const maxHostnameLength = 253

var (
	ErrMalformedURL      = errors.New("malformed url")
	ErrUnsupportedScheme = errors.New("only http and https urls are supported")
	ErrMissingHost       = errors.New("url has no host")
	ErrHostnameTooLong   = errors.New("hostname is too long")
	ErrDeniedDomain      = errors.New("domain is on the denylist")
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("shortcode", validateShortCode)
}

func Validate(data interface{}) []response.ValidationError {
	var validationErrors []response.ValidationError

	err := validate.Struct(data)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return []response.ValidationError{{Field: "request", Message: err.Error()}}
		}

		for _, err := range fieldErrors {
			validationErrors = append(validationErrors, response.ValidationError{
				Field:   err.Field(),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func validateShortCode(fl validator.FieldLevel) bool {
	return generator.IsValidCode(fl.Field().String())
}

// TargetURL checks that raw is an absolute http(s) URL whose host is not
// denied and returns it with the query string removed.
func TargetURL(raw string, denylist []string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", ErrUnsupportedScheme
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return "", ErrMissingHost
	}
	if len(hostname) > maxHostnameLength {
		return "", ErrHostnameTooLong
	}

	for _, denied := range denylist {
		denied = strings.ToLower(strings.TrimSpace(denied))
		if denied != "" && strings.Contains(hostname, denied) {
			return "", ErrDeniedDomain
		}
	}

	parsed.RawQuery = ""
	parsed.ForceQuery = false

	return parsed.String(), nil
}

func getErrorMessage(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "shortcode":
		return fmt.Sprintf("%s must be %d-%d letters or digits", field, generator.MinLength, generator.MaxLength)
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
