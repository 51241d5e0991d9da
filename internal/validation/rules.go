// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"
	"github.com/nbutton23/zxcvbn-go"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

var (
	// hostLabelRegex matches a single DNS label.
	hostLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

	// accessKeyIDRegex matches the shape of an access key id.
	accessKeyIDRegex = regexp.MustCompile(`^[A-Z0-9]{16,128}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PasswordStrength rejects passwords that are short or easy to guess.
// MinScore is a zxcvbn score from 0 (weakest) to 4.
type PasswordStrength struct {
	MinLength int
	MinScore  int
}

// Validate checks if the password meets the configured requirements
func (p PasswordStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_strength", "password must be a string")
	}

	if len(s) < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			fmt.Sprintf("password must be at least %d characters", p.MinLength),
		)
	}

	if p.MinScore > 0 {
		if score := zxcvbn.PasswordStrength(s, nil).Score; score < p.MinScore {
			return validation.NewError(
				"validation_password_guessable",
				fmt.Sprintf("password is too easy to guess (score %d of 4)", score),
			)
		}
	}

	return nil
}

// EndpointHost validates a bare host name: no scheme, path, port or userinfo.
var EndpointHost = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_host_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if net.ParseIP(s) != nil {
		return nil
	}
	if len(s) > 253 {
		return validation.NewError("validation_host_length", "must be at most 253 characters")
	}
	for _, label := range strings.Split(s, ".") {
		if !hostLabelRegex.MatchString(label) {
			return validation.NewError("validation_host_format", "must be a host name without scheme or path")
		}
	}
	return nil
})

// AccessKeyID validates the format of an access key id.
var AccessKeyID = validation.NewStringRuleWithError(
	func(s string) bool {
		return accessKeyIDRegex.MatchString(s)
	},
	validation.NewError("validation_access_key_id", "must be 16 to 128 uppercase letters or digits"),
)

// SecretKey validates that a secret key contains no whitespace anywhere.
var SecretKey = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.IndexFunc(s, unicode.IsSpace) < 0
	},
	validation.NewError("validation_secret_key", "must not contain whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
