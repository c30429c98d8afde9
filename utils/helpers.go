package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword gera o hash bcrypt da senha
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compara a senha com o hash armazenado
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// GenerateID gera um identificador único e ordenável no tempo
func GenerateID() string {
	return xid.New().String()
}

// GenerateUniqueFilename gera um nome único preservando a extensão original
func GenerateUniqueFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s%s", xid.New().String(), ext)
}

// FileExists verifica se o arquivo existe
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DeleteFile remove o arquivo do disco
func DeleteFile(path string) error {
	return os.Remove(path)
}

// LogSuccess registra mensagem de sucesso
func LogSuccess(service, message string) {
	log.Printf("✅ [%s] %s", service, message)
}

// LogError registra erro
func LogError(service, message string, err error) {
	log.Printf("❌ [%s] %s: %v", service, message, err)
}

// LogInfo registra informação
func LogInfo(service, message string) {
	log.Printf("ℹ️  [%s] %s", service, message)
}
