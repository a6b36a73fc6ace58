package person

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teshtvele/groups-management/internal/model"
)

func strp(s string) *string { return &s }

func validInput() model.PersonInput {
	return model.PersonInput{
		LastName:  "Иванов",
		FirstName: "Иван",
		BirthDate: time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC),
		Gender:    model.GenderMale,
		Address:   "Addr1",
		Phone:     strp("89991234567"),
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"89991234567", "+7(999)123-45-67", true},
		{"+7 999 123 45 67", "+7(999)123-45-67", true},
		{"7(999)123-45-67", "+7(999)123-45-67", true},
		{"+7(123)456-78-90", "+7(123)456-78-90", true},
		{"9991234567", "", false},
		{"19991234567", "", false},
		{"899912345678", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizePhone(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	for _, raw := range []string{"89991234567", "+7 (912) 000-11-22", "79000000000"} {
		once, ok := NormalizePhone(raw)
		require.True(t, ok, raw)
		twice, ok := NormalizePhone(once)
		require.True(t, ok, once)
		assert.Equal(t, once, twice)
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("Иванов"))
	assert.True(t, ValidName("Ян"))
	assert.True(t, ValidName("Салтыков-щедрин"))
	assert.True(t, ValidName("Ёж"))
	assert.False(t, ValidName("иванов"))
	assert.False(t, ValidName("И"))
	assert.False(t, ValidName("Ivanov"))
	assert.False(t, ValidName("ИВАНОВ"))
	assert.False(t, ValidName(""))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ivan@mail.ru"))
	assert.True(t, ValidEmail("ivan.petrov@yandex-team.ru"))
	assert.False(t, ValidEmail("iv@mail.ru"))
	assert.False(t, ValidEmail("ivan@ma.ru"))
	assert.False(t, ValidEmail("ivan.mail.ru"))
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("М")
	require.NoError(t, err)
	assert.Equal(t, model.GenderMale, g)

	g, err = ParseGender("Ж")
	require.NoError(t, err)
	assert.Equal(t, model.GenderFemale, g)

	g, err = ParseGender("F")
	require.NoError(t, err)
	assert.Equal(t, model.GenderFemale, g)

	_, err = ParseGender("X")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestNormalize_Canonicalises(t *testing.T) {
	in := validInput()
	in.Gender = "М"
	in.MiddleName = strp("")
	in.Email = strp("")

	out, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, model.GenderMale, out.Gender)
	assert.Nil(t, out.MiddleName)
	assert.Nil(t, out.Email)
	require.NotNil(t, out.Phone)
	assert.Equal(t, "+7(999)123-45-67", *out.Phone)
}

func TestNormalize_ReportsEveryField(t *testing.T) {
	in := model.PersonInput{
		LastName:   "ivanov",
		FirstName:  "И",
		MiddleName: strp("петрович"),
		Gender:     "X",
		Address:    "   ",
		Phone:      strp("12345"),
		Email:      strp("a@b"),
	}
	_, err := Normalize(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))

	fields := map[string]string{}
	for _, f := range ValidationFailures(err) {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, map[string]string{
		"last_name":   RuleNameShape,
		"first_name":  RuleNameShape,
		"middle_name": RuleNameShape,
		"gender":      RuleGender,
		"birth_date":  RuleRequired,
		"address":     RuleRequired,
		"phone":       RulePhone,
		"email":       RuleEmailShape,
	}, fields)
}

func TestNormalize_LengthLimits(t *testing.T) {
	in := validInput()
	in.LastName = "Ив" + strings.Repeat("а", 149)
	in.MiddleName = strp("Пе" + strings.Repeat("т", MaxNameLen))
	in.Email = strp("abc" + strings.Repeat("d", 300) + "@mail.ru")

	_, err := Normalize(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))

	fields := map[string]string{}
	for _, f := range ValidationFailures(err) {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, map[string]string{
		"last_name":   RuleLength,
		"middle_name": RuleLength,
		"email":       RuleLength,
	}, fields)

	in = validInput()
	in.LastName = "Ив" + strings.Repeat("а", MaxNameLen-2)
	in.Email = strp(strings.Repeat("a", MaxEmailLen-8) + "@mail.ru")
	_, err = Normalize(in)
	require.NoError(t, err, "values at the column width are accepted")
}
