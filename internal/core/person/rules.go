// Package person holds the registry's record rules: field validation, phone
// normalisation and the group matching predicate. Nothing here touches storage.
package person

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/teshtvele/groups-management/internal/model"
)

// Rule identifiers reported in ValidationError.Rule.
const (
	RuleRequired   = "required"
	RuleNameShape  = "name_shape"
	RulePhone      = "phone_format"
	RuleEmailShape = "email_shape"
	RuleGender     = "gender_enum"
	RuleDate       = "date_format"
	RuleLength     = "max_length"
)

// Column widths of the person tables.
const (
	MaxNameLen  = 100
	MaxEmailLen = 255
)

var (
	nameRe  = regexp.MustCompile(`^[А-ЯЁ][а-яё-]{1,}$`)
	emailRe = regexp.MustCompile(`^[A-Za-z0-9]{3,}([._][A-Za-z0-9]+)*@[A-Za-z0-9]{3,}([.-][A-Za-z0-9]+)*$`)
)

// ValidName reports whether s is a name token: a capital Cyrillic letter followed by
// at least one lowercase Cyrillic letter or hyphen.
func ValidName(s string) bool { return nameRe.MatchString(s) }

// ValidEmail reports whether s has the login@domain shape with 3+ character parts.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// NormalizePhone reduces raw to its digits and formats a Russian number as
// +7(XXX)XXX-XX-XX. A leading 8 is rewritten to 7. ok is false when raw does not
// reduce to 11 digits starting with 7.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 11 && d[0] == '8' {
		d = "7" + d[1:]
	}
	if len(d) != 11 || d[0] != '7' {
		return "", false
	}
	return fmt.Sprintf("+7(%s)%s-%s-%s", d[1:4], d[4:7], d[7:9], d[9:11]), true
}

// ParseGender accepts M/F and the Cyrillic М/Ж.
func ParseGender(s string) (model.Gender, error) {
	switch strings.TrimSpace(s) {
	case "M", "m", "М", "м":
		return model.GenderMale, nil
	case "F", "f", "Ж", "ж":
		return model.GenderFemale, nil
	}
	return "", NewValidationError("gender", RuleGender, fmt.Sprintf("must be M or F, got %q", s))
}

// Normalize validates a candidate and returns it in canonical form: empty optional
// fields become nil and the phone is reformatted. Every violation is reported; the
// returned error joins one ValidationError per failing field.
func Normalize(in model.PersonInput) (model.PersonInput, error) {
	out := in
	var errs []error

	if err := checkName("last_name", in.LastName); err != nil {
		errs = append(errs, err)
	}
	if err := checkName("first_name", in.FirstName); err != nil {
		errs = append(errs, err)
	}
	out.MiddleName = emptyToNil(in.MiddleName)
	if out.MiddleName != nil {
		if err := checkName("middle_name", *out.MiddleName); err != nil {
			errs = append(errs, err)
		}
	}

	if g, err := ParseGender(string(in.Gender)); err != nil {
		errs = append(errs, err)
	} else {
		out.Gender = g
	}

	if in.BirthDate.IsZero() {
		errs = append(errs, NewValidationError("birth_date", RuleRequired, "birth date is required"))
	}

	if strings.TrimSpace(in.Address) == "" {
		errs = append(errs, NewValidationError("address", RuleRequired, "address must not be empty"))
	}

	out.Phone = emptyToNil(in.Phone)
	if out.Phone != nil {
		if p, ok := NormalizePhone(*out.Phone); ok {
			out.Phone = &p
		} else {
			errs = append(errs, NewValidationError("phone", RulePhone,
				"must reduce to 11 digits starting with 7 or 8, stored as +7(XXX)XXX-XX-XX"))
		}
	}

	out.Email = emptyToNil(in.Email)
	if out.Email != nil {
		switch {
		case utf8.RuneCountInString(*out.Email) > MaxEmailLen:
			errs = append(errs, NewValidationError("email", RuleLength,
				fmt.Sprintf("must be at most %d characters", MaxEmailLen)))
		case !ValidEmail(*out.Email):
			errs = append(errs, NewValidationError("email", RuleEmailShape,
				"must be login@domain with login and domain of at least 3 characters"))
		}
	}

	if len(errs) > 0 {
		return model.PersonInput{}, errors.Join(errs...)
	}
	return out, nil
}

// checkName reports at most one violation per field: length first, then shape.
func checkName(field, s string) error {
	if utf8.RuneCountInString(s) > MaxNameLen {
		return NewValidationError(field, RuleLength, fmt.Sprintf("must be at most %d characters", MaxNameLen))
	}
	if !ValidName(s) {
		return NewValidationError(field, RuleNameShape,
			"must start with a capital Cyrillic letter and contain at least 2 letters or hyphens")
	}
	return nil
}

// emptyToNil stores an empty optional field as NULL, so "" and absent are the
// same value for matching.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
