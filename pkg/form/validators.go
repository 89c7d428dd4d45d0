package form

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Validator is an interface for form field validation.
type Validator interface {
	// Validate checks if the value is valid.
	// Returns nil if valid, or an error with a message if invalid.
	Validate(value any) error
}

// Form gives validators read access to the other fields being validated.
type Form interface {
	Get(field string) any
}

// FormValidator is implemented by validators that compare against other
// fields. Schema.Validate prefers ValidateForm when it is available.
type FormValidator interface {
	Validator
	ValidateForm(value any, form Form) error
}

// ValidatorFunc is a function that implements Validator.
type ValidatorFunc func(value any) error

func (f ValidatorFunc) Validate(value any) error {
	return f(value)
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// rule wraps a check with the rule name reported in ValidationError.
func rule(name string, fn func(value any) error) Validator {
	return ValidatorFunc(func(value any) error {
		if err := fn(value); err != nil {
			if ve, ok := err.(ValidationError); ok && ve.Rule == "" {
				ve.Rule = name
				return ve
			}
			return err
		}
		return nil
	})
}

// ----------------------------------------------------------------------------
// Presence Validators
// ----------------------------------------------------------------------------

// Required validates that the value is non-empty.
// Whitespace-only strings are empty.
func Required(msg string) Validator {
	if msg == "" {
		msg = "This field is required"
	}
	return rule("required", func(value any) error {
		if isEmpty(value) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Checked validates that at least one option of a checkbox or radio group
// is selected.
func Checked(msg string) Validator {
	if msg == "" {
		msg = "Please select at least one option"
	}
	return rule("checked", func(value any) error {
		if isEmpty(value) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// ----------------------------------------------------------------------------
// String Validators
// ----------------------------------------------------------------------------

// MinLength validates that a string has at least n characters.
func MinLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %d characters", n)
	}
	return rule("min", func(value any) error {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			return nil // Let Required handle empty values
		}
		if len([]rune(s)) < n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MaxLength validates that a string has at most n characters.
func MaxLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %d characters", n)
	}
	return rule("max", func(value any) error {
		s := toString(value)
		if len([]rune(s)) > n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Pattern validates that a string matches the given regular expression.
// Panics if the pattern does not compile; use ParseRules for untrusted input.
func Pattern(pattern string, msg string) Validator {
	return patternValidator(regexp.MustCompile(pattern), msg)
}

func patternValidator(re *regexp.Regexp, msg string) Validator {
	if msg == "" {
		msg = "Invalid format"
	}
	return rule("pattern", func(value any) error {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			return nil
		}
		if !re.MatchString(s) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email validates that the value is a valid email address.
func Email(msg string) Validator {
	if msg == "" {
		msg = "Please enter a valid email address"
	}
	return rule("email", func(value any) error {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			return nil
		}
		if !emailPattern.MatchString(s) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// URL validates that the value is an absolute URL.
func URL(msg string) Validator {
	if msg == "" {
		msg = "Invalid URL"
	}
	return rule("url", func(value any) error {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			return nil
		}
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// HTTPURL validates that the value is a URL starting with http:// or https://.
func HTTPURL(msg string) Validator {
	if msg == "" {
		msg = "Please enter a valid URL starting with http:// or https://"
	}
	return rule("http", func(value any) error {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			return nil
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

var phonePattern = regexp.MustCompile(`^[\+]?[(]?[0-9]{1,4}[)]?[-\s\.]?[(]?[0-9]{1,3}[)]?[-\s\.]?[0-9]{1,4}[-\s\.]?[0-9]{1,4}[-\s\.]?[0-9]{1,9}$`)

// Phone validates that the value looks like a phone number.
func Phone(msg string) Validator {
	if msg == "" {
		msg = "Invalid phone number"
	}
	return rule("phone", func(value any) error {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			return nil
		}
		if !phonePattern.MatchString(s) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Numeric validates that the value contains only digits.
func Numeric(msg string) Validator {
	if msg == "" {
		msg = "Must contain only numbers"
	}
	return rule("numeric", func(value any) error {
		s := strings.TrimSpace(toString(value))
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return ValidationError{Message: msg}
			}
		}
		return nil
	})
}

// Alpha validates that the value contains only letters and spaces.
func Alpha(msg string) Validator {
	if msg == "" {
		msg = "Must contain only letters"
	}
	return rule("alpha", func(value any) error {
		for _, r := range strings.TrimSpace(toString(value)) {
			if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
				return ValidationError{Message: msg}
			}
		}
		return nil
	})
}

// ----------------------------------------------------------------------------
// Comparison Validators
// ----------------------------------------------------------------------------

// EqualToField checks that the value equals another field, such as a
// password confirmation.
type EqualToField struct {
	Field   string
	Message string
}

// EqualTo returns a validator that compares against field.
func EqualTo(field string, msg string) *EqualToField {
	if msg == "" {
		msg = fmt.Sprintf("Must match %s", field)
	}
	return &EqualToField{Field: field, Message: msg}
}

// Validate cannot compare without form context and always passes.
func (e *EqualToField) Validate(value any) error {
	return nil
}

// ValidateForm compares value with the other field. An empty value is
// left to Required.
func (e *EqualToField) ValidateForm(value any, form Form) error {
	if form == nil || isEmpty(value) {
		return nil
	}
	if toString(value) != toString(form.Get(e.Field)) {
		return ValidationError{Rule: "eq", Message: e.Message}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Custom Validators
// ----------------------------------------------------------------------------

// Custom creates a validator from a custom function.
func Custom(fn func(value any) error) Validator {
	return rule("custom", fn)
}

// conditional runs inner only when pred holds for the form.
type conditional struct {
	pred  func(Form) bool
	inner Validator
}

// When applies v only if pred reports true for the current form values.
// Used for inputs that only matter while a section is active.
func When(pred func(Form) bool, v Validator) Validator {
	return &conditional{pred: pred, inner: v}
}

// IfChecked applies v only while the checkbox field is checked.
func IfChecked(field string, v Validator) Validator {
	return When(func(f Form) bool { return !isEmpty(f.Get(field)) }, v)
}

// IfSelected applies v only while option is among the values of field.
func IfSelected(field, option string, v Validator) Validator {
	return When(func(f Form) bool {
		switch got := f.Get(field).(type) {
		case []string:
			return slices.Contains(got, option)
		default:
			return toString(got) == option
		}
	}, v)
}

func (c *conditional) Validate(value any) error {
	return nil
}

func (c *conditional) ValidateForm(value any, form Form) error {
	if form == nil || !c.pred(form) {
		return nil
	}
	return runValidator(c.inner, value, form)
}

// runValidator prefers the form-aware path when available.
func runValidator(v Validator, value any, form Form) error {
	if fv, ok := v.(FormValidator); ok {
		return fv.ValidateForm(value, form)
	}
	return v.Validate(value)
}

// ----------------------------------------------------------------------------
// Helper Functions
// ----------------------------------------------------------------------------

// isEmpty checks if a value is considered empty.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				return false
			}
		}
		return true
	case []byte:
		return len(v) == 0
	default:
		return false
	}
}

// toString converts a value to a string.
func toString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// atoi parses a rule argument.
func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
