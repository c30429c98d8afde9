package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"qisa/config"
	"qisa/services"
)

type Server struct {
	router *gin.Engine
	server *http.Server
	db     *gorm.DB

	auth   *services.AuthService
	chat   *services.ChatService
	qkoins *services.QkoinService
	gemini *services.GeminiService
	files  *services.FileService
}

// NewServer monta o servidor HTTP com todas as dependências injetadas
func NewServer(cfg *config.Config, db *gorm.DB, auth *services.AuthService, chat *services.ChatService, qkoins *services.QkoinService, gemini *services.GeminiService, files *services.FileService) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Middlewares globais
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(cfg.AllowedOrigins))

	s := &Server{
		router: engine,
		db:     db,
		auth:   auth,
		chat:   chat,
		qkoins: qkoins,
		gemini: gemini,
		files:  files,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	log.Printf("🚀 Servidor API configurado na porta %d", cfg.Port)
	return s
}

// Start inicia o servidor (bloqueante)
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop encerra o servidor aguardando as requisições em andamento
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Router expõe o engine para os testes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// corsMiddleware libera o acesso do SPA, incluindo os cabeçalhos de
// identidade anônima
func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if allowedOrigins == "" || allowedOrigins == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(allowedOrigins, ",")
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-User-Session")
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	return cors.New(corsCfg)
}

// healthCheck verificação de saúde do servidor (também é o alvo do keep-alive)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}
