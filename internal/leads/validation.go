package leads

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field limits for lead submissions.
const (
	MinNameLen     = 2
	MaxNameLen     = 100
	MinPhoneDigits = 10
	MinMessageLen  = 10
	MaxMessageLen  = 1000
	MaxOptionalLen = 200
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s().\-]+$`)
)

// Validate checks an untyped payload (a decoded JSON object) and returns the
// normalized submission. Every invalid field is reported; unknown keys are
// dropped. Validate has no side effects.
func Validate(payload map[string]any) (Submission, error) {
	v := fieldReader{payload: payload, errs: map[string]string{}}

	sub := Submission{
		Name:     v.required("name"),
		Email:    v.required("email"),
		Phone:    v.required("phone"),
		Company:  v.optional("company"),
		Service:  v.required("service"),
		Category: v.optional("category"),
		Message:  v.required("message"),
		Source:   v.optional("source"),
	}

	if _, bad := v.errs["name"]; !bad {
		if n := utf8.RuneCountInString(sub.Name); n < MinNameLen {
			v.fail("name", fmt.Sprintf("must be at least %d characters", MinNameLen))
		} else if n > MaxNameLen {
			v.fail("name", fmt.Sprintf("must be at most %d characters", MaxNameLen))
		}
	}
	if _, bad := v.errs["email"]; !bad && !emailPattern.MatchString(sub.Email) {
		v.fail("email", "must be a valid email address")
	}
	if _, bad := v.errs["phone"]; !bad && !validPhone(sub.Phone) {
		v.fail("phone", fmt.Sprintf("must be a valid phone number with at least %d digits", MinPhoneDigits))
	}
	if _, bad := v.errs["message"]; !bad {
		if n := utf8.RuneCountInString(sub.Message); n < MinMessageLen {
			v.fail("message", fmt.Sprintf("must be at least %d characters", MinMessageLen))
		} else if n > MaxMessageLen {
			v.fail("message", fmt.Sprintf("must be at most %d characters", MaxMessageLen))
		}
	}

	if len(v.errs) > 0 {
		return Submission{}, &ValidationError{Fields: v.errs}
	}
	sub.Email = strings.ToLower(sub.Email)
	return sub, nil
}

func validPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= MinPhoneDigits
}

// fieldReader pulls string fields out of a payload, recording at most one
// error per field.
type fieldReader struct {
	payload map[string]any
	errs    map[string]string
}

func (f *fieldReader) fail(field, msg string) {
	if _, exists := f.errs[field]; !exists {
		f.errs[field] = msg
	}
}

func (f *fieldReader) required(field string) string {
	raw, ok := f.payload[field]
	if !ok || raw == nil {
		f.fail(field, "is required")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		f.fail(field, "must be a string")
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		f.fail(field, "is required")
	}
	return s
}

func (f *fieldReader) optional(field string) string {
	raw, ok := f.payload[field]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		f.fail(field, "must be a string")
		return ""
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxOptionalLen {
		f.fail(field, fmt.Sprintf("must be at most %d characters", MaxOptionalLen))
		return ""
	}
	return s
}
