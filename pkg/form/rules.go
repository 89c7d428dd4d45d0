package form

import (
	"regexp"
	"strings"

	"github.com/vango-dev/counsel/internal/errors"
)

// ParseRules builds validators from a comma-separated rule string such as
// "required,min=6,eq=password".
//
// messages overrides the default message per rule name. A pattern rule
// consumes the rest of the string, so it must come last:
//
//	required,pattern=^[a-z]+,[0-9]$
func ParseRules(rules string, messages map[string]string) ([]Validator, error) {
	rules = strings.TrimSpace(rules)
	if rules == "" {
		return nil, nil
	}

	var validators []Validator
	for rules != "" {
		var part string
		if strings.HasPrefix(rules, "pattern=") || strings.HasPrefix(rules, "regex=") {
			part, rules = rules, ""
		} else if i := strings.IndexByte(rules, ','); i >= 0 {
			part, rules = rules[:i], strings.TrimSpace(rules[i+1:])
		} else {
			part, rules = rules, ""
		}

		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, arg, _ := strings.Cut(part, "=")
		v, err := validatorFromRule(name, arg, messages[name])
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}
	return validators, nil
}

// validatorFromRule creates a validator from a rule name and argument.
func validatorFromRule(name, arg, msg string) (Validator, error) {
	switch name {
	case "required":
		return Required(msg), nil
	case "checked":
		return Checked(msg), nil
	case "min", "minlen", "minlength":
		n, err := atoi(arg)
		if err != nil {
			return nil, badArgument(name, arg)
		}
		return MinLength(n, msg), nil
	case "max", "maxlen", "maxlength":
		n, err := atoi(arg)
		if err != nil {
			return nil, badArgument(name, arg)
		}
		return MaxLength(n, msg), nil
	case "email":
		return Email(msg), nil
	case "url":
		return URL(msg), nil
	case "http":
		return HTTPURL(msg), nil
	case "phone":
		return Phone(msg), nil
	case "numeric":
		return Numeric(msg), nil
	case "alpha":
		return Alpha(msg), nil
	case "eq":
		if arg == "" {
			return nil, badArgument(name, arg)
		}
		return EqualTo(arg, msg), nil
	case "pattern", "regex":
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, errors.New("C103").
				WithDetail("pattern does not compile").
				Wrap(err)
		}
		return patternValidator(re, msg), nil
	default:
		return nil, errors.New("C102").WithDetail("rule " + name)
	}
}

func badArgument(name, arg string) error {
	return errors.New("C103").WithDetail(name + "=" + arg)
}
