// internal/form/validate.go
//
// Forms subsystem: server-side validation.
//
// Context
//   Validate is the single rule evaluator behind every submit.  It is pure:
//   no registry lookups, no clock, no I/O, and it never mutates its inputs,
//   so running it twice on the same values yields the same result.
//
// Rules
//   •  Values are checked raw.  No trimming, no casing, no HTML escaping.
//   •  Lengths count UTF-16 code units, the unit browsers report for a
//      string's length.  A character outside the BMP counts as two.
//   •  A missing key is treated as the empty string.
//   •  An empty optional field is skipped.  An empty required field fails
//      with the field's message.
//   •  Each field reports at most one ErrorField: the first rule it breaks,
//      in the order required, length, minlength, maxlength, pattern.
//   •  Results follow definition order.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"unicode/utf16"
)

// ErrorField describes a single validation failure so the client can render
// a field-level message.
type ErrorField struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Validate checks values against fd and returns one ErrorField per violated
// field.  A nil slice means valid.
func Validate(fd *FormDef, values map[string]string) []ErrorField {
	var errs []ErrorField
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if msg := checkField(f, values[f.Name]); msg != "" {
			errs = append(errs, ErrorField{Name: f.Name, Message: msg})
		}
	}
	return errs
}

// checkField returns the first violated rule's message or "".
func checkField(f *FieldDef, raw string) string {
	if raw == "" {
		if f.Required {
			return requiredMsg(f)
		}
		return ""
	}
	if msg := lengthCheck(f, raw); msg != "" {
		return msg
	}
	if f.re != nil && !f.re.MatchString(raw) {
		return patternMsg(f)
	}
	return ""
}

// lengthCheck validates length / minlength / maxlength rules.
func lengthCheck(f *FieldDef, s string) string {
	n := strLen(s)
	switch {
	case f.Length > 0 && n != f.Length:
		return custom(f, fmt.Sprintf("Must be exactly %d characters.", f.Length))
	case f.MinLength > 0 && n < f.MinLength:
		return custom(f, fmt.Sprintf("Must be at least %d characters.", f.MinLength))
	case f.MaxLength > 0 && n > f.MaxLength:
		return custom(f, fmt.Sprintf("Must be at most %d characters.", f.MaxLength))
	}
	return ""
}

// strLen returns the length of s in UTF-16 code units.
func strLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func custom(f *FieldDef, fallback string) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return fallback
}

// user-friendly default messages
func requiredMsg(f *FieldDef) string { return custom(f, "This field is required.") }
func patternMsg(f *FieldDef) string  { return custom(f, "Input does not match required format.") }
