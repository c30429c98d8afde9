package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		username string
		valid    bool
	}{
		{"maria", true},
		{"maria_silva", true},
		{"user.name-01", true},
		{"abc", true},
		{"ab", false},
		{"", false},
		{"Maiusculas", false},
		{"com espaço", false},
		{"emoji🙂", false},
		{strings.Repeat("a", 30), true},
		{strings.Repeat("a", 31), false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidateUsername(tc.username), "username: %q", tc.username)
	}
}

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"maria@exemplo.com", true},
		{"maria.silva+tag@sub.exemplo.com.br", true},
		{"sem-arroba.com", false},
		{"@exemplo.com", false},
		{"maria@", false},
		{"maria@exemplo", false},
		{"", false},
		{strings.Repeat("a", 250) + "@x.com", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidateEmail(tc.email), "email: %q", tc.email)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("123456"))
	assert.True(t, ValidatePassword("senha muito longa e segura"))
	assert.False(t, ValidatePassword("12345"))
	assert.False(t, ValidatePassword(""))
}

func TestIsAnonymousUsername(t *testing.T) {
	assert.True(t, IsAnonymousUsername("anonymous_abc123"))
	assert.True(t, IsAnonymousUsername("Anonymous"))
	assert.False(t, IsAnonymousUsername("maria"))
	assert.False(t, IsAnonymousUsername("anonima"))
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "maria", NormalizeUsername("  Maria "))
	assert.Equal(t, "joao_silva", NormalizeUsername("JOAO_SILVA"))
}

func TestHashEVerifyPassword(t *testing.T) {
	hash, err := HashPassword("senha123")
	assert.NoError(t, err)
	assert.NotEqual(t, "senha123", hash)

	assert.True(t, VerifyPassword(hash, "senha123"))
	assert.False(t, VerifyPassword(hash, "outra-senha"))
}

func TestGenerateUniqueFilename(t *testing.T) {
	a := GenerateUniqueFilename("foto.JPG")
	b := GenerateUniqueFilename("foto.JPG")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"), "a extensão deve ser preservada em minúsculas")

	semExt := GenerateUniqueFilename("arquivo")
	assert.NotContains(t, semExt, ".")
}
