package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"qisa/database"
)

// Chaves do contexto da requisição
const (
	ctxUserID      = "user_id"
	ctxUser        = "user"
	ctxAnonSession = "anon_session"
)

// authRequired exige um Bearer token válido de um usuário não banido
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de autorização ausente"})
			c.Abort()
			return
		}

		userID, _, err := s.auth.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido ou expirado"})
			c.Abort()
			return
		}

		var user database.User
		if err := s.db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não encontrado"})
			c.Abort()
			return
		}

		if user.Banned {
			c.JSON(http.StatusForbidden, gin.H{"error": "Esta conta foi suspensa"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUser, &user)
		c.Next()
	}
}

// optionalAuth aceita visitantes anônimos. Com Bearer token válido a
// requisição é autenticada; sem token, a identidade efêmera vem do
// cabeçalho x-user-session (user_id = 0, nada é persistido).
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString != "" {
			userID, _, err := s.auth.VerifyToken(tokenString)
			if err == nil {
				var user database.User
				if err := s.db.First(&user, userID).Error; err == nil && !user.Banned {
					c.Set(ctxUserID, user.ID)
					c.Set(ctxUser, &user)
					c.Next()
					return
				}
			}
		}

		c.Set(ctxUserID, uint(0))
		c.Set(ctxAnonSession, c.GetHeader("X-User-Session"))
		c.Next()
	}
}

// adminRequired exige token de admin e reconfirma a flag no banco
func (s *Server) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de autorização ausente"})
			c.Abort()
			return
		}

		userID, isAdmin, err := s.auth.VerifyToken(tokenString)
		if err != nil || !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Acesso restrito a administradores"})
			c.Abort()
			return
		}

		// Reconfirma no banco: a claim do token pode estar desatualizada
		var user database.User
		if err := s.db.First(&user, userID).Error; err != nil || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Acesso restrito a administradores"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUser, &user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimPrefix(bearerToken, "Bearer ")
	}
	return ""
}
