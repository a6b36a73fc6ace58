package person

import "github.com/teshtvele/groups-management/internal/model"

// Matches reports whether an existing record belongs to the same identity as the
// candidate. The candidate must already be normalised.
func Matches(candidate model.PersonInput, rec *model.Person) bool {
	if rec.Gender != candidate.Gender || rec.FirstName != candidate.FirstName {
		return false
	}
	if !sameOptional(rec.MiddleName, candidate.MiddleName) {
		return false
	}
	// Female surnames may change, so they are not part of the identity key.
	if candidate.Gender == model.GenderMale && rec.LastName != candidate.LastName {
		return false
	}
	if rec.Address == candidate.Address {
		return true
	}
	if candidate.Phone != nil && rec.Phone != nil && *rec.Phone == *candidate.Phone {
		return true
	}
	return candidate.Email != nil && rec.Email != nil && *rec.Email == *candidate.Email
}

// SelectGroup returns the smallest group id among records that match the candidate.
func SelectGroup(candidate model.PersonInput, records []*model.Person) (int64, bool) {
	var best int64
	found := false
	for _, rec := range records {
		if !Matches(candidate, rec) {
			continue
		}
		if !found || rec.GroupID < best {
			best = rec.GroupID
			found = true
		}
	}
	return best, found
}

// MatchKey identifies the set of records a candidate can ever match: every record
// in a group shares gender and first name.
func MatchKey(gender model.Gender, firstName string) string {
	return string(gender) + "|" + firstName
}

// sameOptional treats nil as "absent" and only matches another absent value.
func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
