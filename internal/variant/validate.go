package variant

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrInvalidOptions is wrapped by every ValidationError.
var ErrInvalidOptions = errors.New("INVALID_OPTIONS")

// ValidationError lists option problems keyed by field path, e.g. "options[1].values[0].value".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid options: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidOptions }

// Validate checks the constraints Generate relies on but does not enforce: non-blank
// titles and values, unique titles per product, unique values per option, and unique ids.
// Values are compared trimmed and case-insensitively. Ids, titles and values must also fit
// MaxIDLength and MaxTextLength.
func Validate(options []Option) error {
	fields := map[string]string{}
	titles := map[string]int{}
	optionIDs := map[string]bool{}
	valueIDs := map[string]bool{}

	for i, o := range options {
		prefix := fmt.Sprintf("options[%d]", i)

		checkLength(fields, prefix+".id", o.ID, MaxIDLength)
		checkLength(fields, prefix+".title", o.Title, MaxTextLength)
		if o.ID != "" {
			if optionIDs[o.ID] {
				fields[prefix+".id"] = "duplicate option id"
			}
			optionIDs[o.ID] = true
		}

		title := normalize(o.Title)
		switch {
		case title == "":
			fields[prefix+".title"] = "title is required"
		default:
			if _, dup := titles[title]; dup {
				fields[prefix+".title"] = "duplicate option title"
			}
			titles[title] = i
		}

		if len(o.Values) == 0 {
			fields[prefix+".values"] = "at least one value is required"
		}

		seen := map[string]bool{}
		for j, v := range o.Values {
			vprefix := fmt.Sprintf("%s.values[%d]", prefix, j)
			checkLength(fields, vprefix+".id", v.ID, MaxIDLength)
			checkLength(fields, vprefix+".value", v.Value, MaxTextLength)
			if v.ID != "" {
				if valueIDs[v.ID] {
					fields[vprefix+".id"] = "duplicate value id"
				}
				valueIDs[v.ID] = true
			}
			val := normalize(v.Value)
			if val == "" {
				fields[vprefix+".value"] = "value is required"
				continue
			}
			if seen[val] {
				fields[vprefix+".value"] = "duplicate value"
			}
			seen[val] = true
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateVariantIDs checks the ids of variants sent with an option form.
func ValidateVariantIDs(variants []Variant) error {
	fields := map[string]string{}
	for i, v := range variants {
		checkLength(fields, fmt.Sprintf("variants[%d].id", i), v.ID, MaxIDLength)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkLength(fields map[string]string, key, s string, max int) {
	if utf8.RuneCountInString(s) > max {
		fields[key] = fmt.Sprintf("must be at most %d characters", max)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
