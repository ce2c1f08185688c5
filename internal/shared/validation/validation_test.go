package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPhone(t *testing.T) {
	cases := map[string]bool{
		"01712345678":  true,
		"01312345678":  true,
		"01912345678":  true,
		"02712345678":  false,
		"01212345678":  false,
		"017123456":    false,
		"abcdefghijk":  false,
		"017123456789": false,
		"":             false,
	}
	for input, want := range cases {
		assert.Equal(t, want, ValidPhone(input), "phone %q", input)
	}
}

func TestCheckPassword_AllRulesMet(t *testing.T) {
	req := CheckPassword("Passw0rd!")
	require.True(t, req.MinLength)
	require.True(t, req.HasUpper)
	require.True(t, req.HasLower)
	require.True(t, req.HasDigit)
	require.True(t, req.HasSpecial)
	require.True(t, req.Satisfied())
}

func TestCheckPassword_LowercaseOnly(t *testing.T) {
	req := CheckPassword("password")
	require.Equal(t, PasswordRequirements{MinLength: true, HasLower: true}, req)
	require.False(t, req.Satisfied())
}

func TestCheckPassword_Short(t *testing.T) {
	req := CheckPassword("Ab1!")
	require.False(t, req.MinLength)
	require.True(t, req.HasUpper)
	require.True(t, req.HasSpecial)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("farmer@example.com"))
	assert.False(t, ValidEmail("farmer@example"))
	assert.False(t, ValidEmail("farmer example.com"))
}

func TestFieldErrors_KeepsFirstMessage(t *testing.T) {
	errs := FieldErrors{}
	require.True(t, errs.Empty())
	errs.Add("owner_phone", "invalid phone number")
	errs.Add("owner_phone", "second message")
	errs.Add("breed", "required")
	require.Equal(t, "invalid phone number", errs["owner_phone"])
	require.Equal(t, []string{"breed", "owner_phone"}, errs.Fields())
}
