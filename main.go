package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qisa/api"
	"qisa/config"
	"qisa/database"
	"qisa/services"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("🔧 Iniciando a Qisa...")
}

func main() {
	// Carrega as configurações
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("❌ Erro ao carregar configurações: %v", err)
	}
	log.Println("✅ Configurações carregadas")

	cfg := config.AppConfig

	// Garante a existência dos diretórios
	os.MkdirAll("./data", 0755)
	os.MkdirAll(cfg.UploadPath, 0755)

	// Inicializa o banco de dados
	if err := database.InitDatabase(cfg.DatabasePath); err != nil {
		log.Fatalf("❌ Erro ao inicializar o banco de dados: %v", err)
	}
	defer database.CloseDatabase()
	log.Println("✅ Banco de dados pronto")

	db := database.GetDB()

	// Serviços
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.WelcomeQkoins)
	chatService := services.NewChatService(db)
	qkoinService := services.NewQkoinService(db, cfg.DailyRewardAmount, cfg.BonusRewardAmount)
	geminiService := services.NewGeminiService(cfg.GeminiEndpoint, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiImageModel)
	fileService := services.NewFileService(db, cfg.UploadPath, cfg.MaxFileSizeMB)

	// Conta de administrador inicial (opcional, via .env)
	if err := seedAdmin(authService, cfg); err != nil {
		log.Printf("⚠️  Não foi possível criar o admin inicial: %v", err)
	}

	// Servidor HTTP
	server := api.NewServer(cfg, db, authService, chatService, qkoinService, geminiService, fileService)

	go func() {
		if err := server.Start(); err != nil {
			log.Printf("❌ Erro no servidor API: %v", err)
		}
	}()
	log.Printf("🚀 Qisa no ar - porta %d", cfg.Port)

	// Keep-alive contra hibernação da plataforma
	var keepAlive *services.KeepAliveService
	if cfg.KeepAliveURL != "" {
		keepAlive = services.NewKeepAliveService(
			cfg.KeepAliveURL,
			time.Duration(cfg.KeepAliveIntervalMin)*time.Minute,
		)
		keepAlive.Start()
	}

	// Aguarda o sinal de shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("🛑 Sinal de shutdown recebido...")

	if keepAlive != nil {
		keepAlive.Stop()
	}

	if err := server.Stop(30 * time.Second); err != nil {
		log.Printf("❌ Erro ao encerrar o servidor: %v", err)
	}

	if err := database.CloseDatabase(); err != nil {
		log.Printf("❌ Erro ao fechar o banco de dados: %v", err)
	}

	log.Println("✅ Qisa encerrada com sucesso")
}

// seedAdmin cria a conta de administrador definida no .env, se ainda não existir
func seedAdmin(authService *services.AuthService, cfg *config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := cfg.AdminEmail
	if email == "" {
		email = cfg.AdminUsername + "@qisa.app"
	}

	user, err := authService.Register(cfg.AdminUsername, email, cfg.AdminPassword, "Admin")
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			return nil // já existe
		}
		return err
	}

	db := database.GetDB()
	if err := db.Model(&database.User{}).Where("id = ?", user.ID).Update("is_admin", true).Error; err != nil {
		return err
	}

	log.Printf("✅ Conta de administrador criada: %s", cfg.AdminUsername)
	return nil
}
