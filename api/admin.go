package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"qisa/database"
	"qisa/services"
	"qisa/utils"
)

// adminStats painel de estatísticas gerais
func (s *Server) adminStats(c *gin.Context) {
	var totalUsers, totalSessions, totalMessages int64
	s.db.Model(&database.User{}).Count(&totalUsers)
	s.db.Model(&database.ChatSession{}).Count(&totalSessions)
	s.db.Model(&database.Message{}).Count(&totalMessages)

	// Usuários novos hoje
	today := time.Now().Truncate(24 * time.Hour)
	var todayUsers int64
	s.db.Model(&database.User{}).Where("created_at >= ?", today).Count(&todayUsers)

	// QKoins emitidos e gastos (somas do livro-razão)
	var issued, spent int64
	s.db.Model(&database.QkoinTransaction{}).
		Where("amount > 0").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&issued)
	s.db.Model(&database.QkoinTransaction{}).
		Where("amount < 0").
		Select("COALESCE(-SUM(amount), 0)").
		Scan(&spent)

	var bannedUsers int64
	s.db.Model(&database.User{}).Where("banned = ?", true).Count(&bannedUsers)

	c.JSON(http.StatusOK, gin.H{
		"total_users":    totalUsers,
		"today_users":    todayUsers,
		"banned_users":   bannedUsers,
		"total_sessions": totalSessions,
		"total_messages": totalMessages,
		"qkoins_issued":  issued,
		"qkoins_spent":   spent,
	})
}

// adminListUsers lista usuários com busca e paginação
func (s *Server) adminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	search := c.Query("search")
	query := s.db.Model(&database.User{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR display_name LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var users []database.User
	var total int64

	query.Count(&total)
	query.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users)

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// adminUpdateUser banimento e ajuste de QKoins de um usuário.
// Ajustes de saldo sempre passam pelo livro-razão.
func (s *Server) adminUpdateUser(c *gin.Context) {
	type UpdateRequest struct {
		Banned      *bool  `json:"banned"`
		QkoinAdjust int    `json:"qkoin_adjust"`
		Reason      string `json:"reason"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
		return
	}

	userID, ok := paramID(c)
	if !ok {
		return
	}

	var user database.User
	if err := s.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuário não encontrado"})
		return
	}

	if req.Banned != nil {
		if err := s.db.Model(&user).Update("banned", *req.Banned).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao atualizar usuário"})
			return
		}
	}

	if req.QkoinAdjust != 0 {
		reason := req.Reason
		if reason == "" {
			reason = "Ajuste administrativo"
		}

		var err error
		if req.QkoinAdjust > 0 {
			err = s.qkoins.Earn(userID, req.QkoinAdjust, reason)
		} else {
			err = s.qkoins.Spend(userID, -req.QkoinAdjust, reason)
		}
		if err != nil {
			if err == services.ErrInsufficientQkoins {
				c.JSON(http.StatusBadRequest, gin.H{"error": "O usuário não tem saldo suficiente para esse débito"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao ajustar QKoins"})
			return
		}
	}

	s.db.First(&user, userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// adminDeleteUser apaga o usuário e todos os seus dados em uma transação
func (s *Server) adminDeleteUser(c *gin.Context) {
	userID, ok := paramID(c)
	if !ok {
		return
	}

	var user database.User
	if err := s.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuário não encontrado"})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Mensagens das sessões do usuário
		var sessionIDs []uint
		if err := tx.Model(&database.ChatSession{}).
			Where("user_id = ?", userID).
			Pluck("id", &sessionIDs).Error; err != nil {
			return err
		}
		if len(sessionIDs) > 0 {
			if err := tx.Where("session_id IN ?", sessionIDs).Delete(&database.Message{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&database.ChatSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&database.QkoinTransaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.User{}, userID).Error
	})
	if err != nil {
		utils.LogError("api", "falha ao remover usuário", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao remover usuário"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// adminListTransactions lista o livro-razão completo com paginação
func (s *Server) adminListTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	query := s.db.Model(&database.QkoinTransaction{})
	if userParam := c.Query("user_id"); userParam != "" {
		if id, err := strconv.ParseUint(userParam, 10, 32); err == nil {
			query = query.Where("user_id = ?", uint(id))
		}
	}

	var transactions []database.QkoinTransaction
	var total int64

	query.Count(&total)
	query.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&transactions)

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

// adminGetSettings lista as configurações da aplicação
func (s *Server) adminGetSettings(c *gin.Context) {
	var settings []database.Setting
	if err := s.db.Order("key ASC").Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao listar configurações"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// adminUpdateSettings atualiza (ou cria) configurações por chave
func (s *Server) adminUpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
		return
	}

	for key, value := range req {
		var setting database.Setting
		if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
			setting = database.Setting{Key: key, Value: value}
			s.db.Create(&setting)
			continue
		}
		setting.Value = value
		setting.UpdatedAt = time.Now()
		s.db.Save(&setting)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
