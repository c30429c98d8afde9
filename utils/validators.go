package utils

import (
	"regexp"
	"strings"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]{3,30}$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername valida o nome de usuário (3-30 caracteres, minúsculos)
func ValidateUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// ValidateEmail valida o formato do e-mail
func ValidateEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidatePassword valida a senha (mínimo 6 caracteres)
func ValidatePassword(password string) bool {
	return len(password) >= 6
}

// IsAnonymousUsername identifica identidades anônimas geradas pelo navegador.
// Usuários anônimos nunca são persistidos.
func IsAnonymousUsername(username string) bool {
	return strings.Contains(strings.ToLower(username), "anonymous")
}

// NormalizeUsername normaliza o nome de usuário para comparação
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
