package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port           int
	AllowedOrigins string

	// Auth
	JWTSecret     string
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// Gemini
	GeminiAPIKey     string
	GeminiEndpoint   string
	GeminiModel      string
	GeminiImageModel string

	// Database
	DatabasePath string

	// Uploads
	UploadPath    string
	MaxFileSizeMB int

	// QKoins
	WelcomeQkoins     int
	DailyRewardAmount int
	BonusRewardAmount int

	// Keep-alive (evita hibernação da plataforma de hospedagem)
	KeepAliveURL         string
	KeepAliveIntervalMin int
}

var AppConfig *Config

// LoadConfig carrega as configurações do .env e das variáveis de ambiente
func LoadConfig() error {
	// Carrega o arquivo .env (opcional em produção)
	_ = godotenv.Load()

	AppConfig = &Config{
		Port:                 getEnvInt("PORT", 5000),
		AllowedOrigins:       getEnv("ALLOWED_ORIGINS", "*"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AdminUsername:        getEnv("ADMIN_USERNAME", ""),
		AdminEmail:           getEnv("ADMIN_EMAIL", ""),
		AdminPassword:        getEnv("ADMIN_PASSWORD", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiEndpoint:       getEnv("GEMINI_API_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiImageModel:     getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-exp-image-generation"),
		DatabasePath:         getEnv("DATABASE_PATH", "./data/qisa.db"),
		UploadPath:           getEnv("UPLOAD_PATH", "./data/uploads"),
		MaxFileSizeMB:        getEnvInt("MAX_FILE_SIZE_MB", 10),
		WelcomeQkoins:        getEnvInt("WELCOME_QKOINS", 10),
		DailyRewardAmount:    getEnvInt("DAILY_REWARD_AMOUNT", 10),
		BonusRewardAmount:    getEnvInt("BONUS_REWARD_AMOUNT", 5),
		KeepAliveURL:         getEnv("KEEPALIVE_URL", ""),
		KeepAliveIntervalMin: getEnvInt("KEEPALIVE_INTERVAL_MIN", 10),
	}

	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET é obrigatório no arquivo .env")
	}

	if AppConfig.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY é obrigatório no arquivo .env")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	valStr := getEnv(key, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}
