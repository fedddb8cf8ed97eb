package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTheme = "zxcvbnmasd$"

func TestNewEnchanterRejectsBadThemes(t *testing.T) {
	cases := []struct {
		name  string
		theme string
	}{
		{"empty", ""},
		{"too short", "abc"},
		{"too long", "abcdefghijkl"},
		{"duplicate symbol", "aacdefghij$"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEnchanter(tc.theme)
			assert.Error(t, err)
		})
	}
}

func TestEnchanterKnownEncoding(t *testing.T) {
	// An identity alphabet makes the expected output readable: each group is
	// the decimal code point of one input character.
	e, err := NewEnchanter("0123456789.")
	require.NoError(t, err)

	encoded, err := e.Encode("ab")
	require.NoError(t, err)
	assert.Equal(t, "97.98", encoded)

	decoded, err := e.Decode("97.98")
	require.NoError(t, err)
	assert.Equal(t, "ab", decoded)
}

func TestEnchanterRoundTrip(t *testing.T) {
	e, err := NewEnchanter(testTheme)
	require.NoError(t, err)

	inputs := []string{
		"",
		"a",
		"user-42",
		"$2a$10$abcdefghijklmnopqrstuv",
		"héllo wörld",
		"日本語テキスト",
	}
	for _, input := range inputs {
		encoded, err := e.Encode(input)
		require.NoError(t, err)

		decoded, err := e.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, input, decoded)
	}
}

func TestEnchanterDecodeRejectsGarbage(t *testing.T) {
	e, err := NewEnchanter("0123456789.")
	require.NoError(t, err)

	cases := []struct {
		name    string
		encoded string
	}{
		{"foreign symbol", "97.9Q"},
		{"empty group", "97..98"},
		{"trailing delimiter", "97."},
		{"code point out of range", "99999999"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Decode(tc.encoded)
			assert.Error(t, err)
		})
	}
}

func TestEnchantEncrypterRoundTrip(t *testing.T) {
	enc, err := NewEnchantEncrypter(testTheme)
	require.NoError(t, err)

	opaque, err := enc.Encrypt("session-token-123")
	require.NoError(t, err)
	require.NotEqual(t, "session-token-123", opaque)

	plain, err := enc.Decrypt(opaque)
	require.NoError(t, err)
	assert.Equal(t, "session-token-123", plain)
}

func TestEnchantEncrypterThemesAreIncompatible(t *testing.T) {
	first, err := NewEnchantEncrypter("zxcvbnmasd$")
	require.NoError(t, err)
	second, err := NewEnchantEncrypter("qwertyuiop#")
	require.NoError(t, err)

	opaque, err := first.Encrypt("user-1")
	require.NoError(t, err)

	if plain, err := second.Decrypt(opaque); err == nil {
		assert.NotEqual(t, "user-1", plain)
	}
}
