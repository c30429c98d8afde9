package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"qisa/database"
	"qisa/services"
	"qisa/utils"
)

// Mensagem exibida quando o gateway de IA falha (a falha nunca sobe crua
// para o usuário)
const apologyMessage = "Desculpe, estou com dificuldades para responder agora. Tente novamente em alguns instantes. 💜"

// Máximo de anexos enviados ao modelo em uma única mensagem
const maxAttachmentsPerMessage = 4

// register cadastra um novo usuário
func (s *Server) register(c *gin.Context) {
	type RegisterRequest struct {
		Username    string `json:"username" binding:"required"`
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		DisplayName string `json:"display_name"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
		return
	}

	user, err := s.auth.Register(req.Username, req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Este nome de usuário já está em uso"})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Este e-mail já está cadastrado"})
		case errors.Is(err, services.ErrInvalidRegistration):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			utils.LogError("api", "falha no cadastro", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao criar conta"})
		}
		return
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		utils.LogError("api", "falha ao gerar token", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao gerar token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// login autentica o usuário
func (s *Server) login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
		return
	}

	user, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserBanned) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Esta conta foi suspensa"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário ou senha incorretos"})
		return
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		utils.LogError("api", "falha ao gerar token", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao gerar token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// getProfile retorna o perfil do usuário autenticado
func (s *Server) getProfile(c *gin.Context) {
	user := c.MustGet(ctxUser).(*database.User)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// updateProfile atualiza nome de exibição e foto
func (s *Server) updateProfile(c *gin.Context) {
	type ProfileRequest struct {
		DisplayName string `json:"display_name"`
		PhotoURL    string `json:"photo_url"`
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
		return
	}

	user := c.MustGet(ctxUser).(*database.User)
	updates := map[string]interface{}{}
	if req.DisplayName != "" {
		updates["display_name"] = req.DisplayName
	}
	if req.PhotoURL != "" {
		updates["photo_url"] = req.PhotoURL
	}
	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao atualizar perfil"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// currentSession retorna a sessão mais recente (efêmera para anônimos)
func (s *Server) currentSession(c *gin.Context) {
	userID := c.GetUint(ctxUserID)

	session, err := s.chat.CurrentSession(userID)
	if err != nil {
		utils.LogError("api", "falha ao buscar sessão atual", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao buscar conversa"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":   session,
		"persisted": userID != 0,
	})
}

// sendMessage processa uma mensagem de chat: monta o histórico, chama o
// Gemini (texto, geração ou edição de imagem) e persiste a troca.
// Pedidos de imagem custam QKoins; falha do gateway gera estorno.
func (s *Server) sendMessage(c *gin.Context) {
	type SendRequest struct {
		SessionID      uint     `json:"session_id"`
		Content        string   `json:"content" binding:"required"`
		IsImageRequest bool     `json:"is_image_request"`
		AttachmentIDs  []string `json:"attachment_ids"`
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mensagem vazia ou requisição inválida"})
		return
	}

	userID := c.GetUint(ctxUserID)
	ctx := c.Request.Context()
	systemPrompt := database.GetSetting(s.db, "system_prompt", "")

	// Visitantes anônimos conversam sem histórico e sem persistência
	if userID == 0 {
		if req.IsImageRequest {
			c.JSON(http.StatusForbidden, gin.H{"error": "Crie uma conta para gerar imagens com QKoins"})
			return
		}

		answer, err := s.gemini.Chat(ctx, systemPrompt, nil, req.Content, nil)
		if err != nil {
			utils.LogError("api", "gateway de IA falhou (anônimo)", err)
			answer = apologyMessage
		}
		c.JSON(http.StatusOK, gin.H{"response": answer, "saved": false})
		return
	}

	// Resolve a sessão (criando a padrão quando nenhuma for informada)
	var session *database.ChatSession
	var err error
	if req.SessionID == 0 {
		session, err = s.chat.CurrentSession(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao buscar conversa"})
			return
		}
	} else {
		session = &database.ChatSession{ID: req.SessionID}
	}

	// Histórico antes de anexar a nova mensagem
	window := settingInt(s.db, "history_window", 10)
	history, err := s.chat.History(userID, session.ID, window)
	if err != nil {
		s.sessionError(c, err)
		return
	}

	// Carrega os anexos referenciados
	attachments, firstImage, err := s.loadAttachments(req.AttachmentIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Anexo não encontrado"})
		return
	}

	if req.IsImageRequest {
		s.handleImageRequest(c, userID, session.ID, req.Content, firstImage)
		return
	}

	// Fluxo de texto
	if _, err := s.chat.AppendMessage(userID, session.ID, database.RoleUser, req.Content, ""); err != nil {
		s.sessionError(c, err)
		return
	}

	answer, err := s.gemini.Chat(ctx, systemPrompt, history, req.Content, attachments)
	if err != nil {
		utils.LogError("api", "gateway de IA falhou", err)
		answer = apologyMessage
	}

	if _, err := s.chat.AppendMessage(userID, session.ID, database.RoleAssistant, answer, ""); err != nil {
		s.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":   answer,
		"session_id": session.ID,
		"saved":      true,
	})
}

// handleImageRequest cobra o custo em QKoins, chama o modelo de imagem e
// estorna em caso de falha
func (s *Server) handleImageRequest(c *gin.Context, userID, sessionID uint, prompt string, sourceImage *services.Attachment) {
	ctx := c.Request.Context()
	imageCost := settingInt(s.db, "image_cost", 1)

	if err := s.qkoins.Spend(userID, imageCost, "Geração de imagem"); err != nil {
		if errors.Is(err, services.ErrInsufficientQkoins) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Você não tem QKoins suficientes para gerar imagens"})
			return
		}
		utils.LogError("api", "falha ao debitar QKoins", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao debitar QKoins"})
		return
	}

	if _, err := s.chat.AppendMessage(userID, sessionID, database.RoleUser, prompt, ""); err != nil {
		s.sessionError(c, err)
		return
	}

	var text, imageURI string
	var err error
	if sourceImage != nil {
		text, imageURI, err = s.gemini.EditImage(ctx, prompt, *sourceImage)
	} else {
		text, imageURI, err = s.gemini.GenerateImage(ctx, prompt)
	}

	if err != nil {
		// Ação compensatória: devolve o QKoin gasto
		utils.LogError("api", "falha na geração de imagem, estornando", err)
		if refundErr := s.qkoins.Earn(userID, imageCost, "Estorno: falha na geração de imagem"); refundErr != nil {
			utils.LogError("api", "falha no estorno de QKoins", refundErr)
		}

		if _, err := s.chat.AppendMessage(userID, sessionID, database.RoleAssistant, apologyMessage, ""); err != nil {
			s.sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"response":   apologyMessage,
			"session_id": sessionID,
			"saved":      true,
			"refunded":   true,
		})
		return
	}

	if text == "" {
		text = "Aqui está a sua imagem! ✨"
	}
	if _, err := s.chat.AppendMessage(userID, sessionID, database.RoleAssistant, text, imageURI); err != nil {
		s.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":   text,
		"image_url":  imageURI,
		"session_id": sessionID,
		"saved":      true,
	})
}

// loadAttachments carrega os bytes dos anexos e separa a primeira imagem
// (usada na edição de imagem)
func (s *Server) loadAttachments(ids []string) ([]services.Attachment, *services.Attachment, error) {
	if len(ids) > maxAttachmentsPerMessage {
		ids = ids[:maxAttachmentsPerMessage]
	}

	var attachments []services.Attachment
	var firstImage *services.Attachment
	for _, id := range ids {
		record, data, err := s.files.Read(id)
		if err != nil {
			return nil, nil, err
		}

		att := services.Attachment{MimeType: record.MimeType, Data: data}

		// PDFs vão como texto extraído quando disponível: o contexto fica
		// menor e o modelo responde melhor
		if record.Type == database.FileTypePDF && record.ExtractedText != "" {
			att = services.Attachment{MimeType: "text/plain", Data: []byte(record.ExtractedText)}
		}

		attachments = append(attachments, att)
		if record.Type == database.FileTypeImage && firstImage == nil {
			firstImage = &att
		}
	}
	return attachments, firstImage, nil
}

// listSessions lista as sessões do usuário
func (s *Server) listSessions(c *gin.Context) {
	userID := c.GetUint(ctxUserID)

	sessions, err := s.chat.ListSessions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao listar conversas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// createSession cria uma nova sessão
func (s *Server) createSession(c *gin.Context) {
	type CreateRequest struct {
		Title string `json:"title"`
	}

	var req CreateRequest
	_ = c.ShouldBindJSON(&req)

	userID := c.GetUint(ctxUserID)
	session, err := s.chat.CreateSession(userID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao criar conversa"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// getSession retorna os metadados de uma sessão
func (s *Server) getSession(c *gin.Context) {
	sessionID, ok := paramID(c)
	if !ok {
		return
	}

	userID := c.GetUint(ctxUserID)
	session, err := s.chat.GetSession(userID, sessionID)
	if err != nil {
		s.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// renameSession renomeia uma sessão
func (s *Server) renameSession(c *gin.Context) {
	type RenameRequest struct {
		Title string `json:"title" binding:"required"`
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Título obrigatório"})
		return
	}

	sessionID, ok := paramID(c)
	if !ok {
		return
	}

	userID := c.GetUint(ctxUserID)
	session, err := s.chat.RenameSession(userID, sessionID, req.Title)
	if err != nil {
		s.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// deleteSession apaga a sessão e todas as suas mensagens
func (s *Server) deleteSession(c *gin.Context) {
	sessionID, ok := paramID(c)
	if !ok {
		return
	}

	userID := c.GetUint(ctxUserID)
	if err := s.chat.DeleteSession(userID, sessionID); err != nil {
		s.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// listMessages lista as mensagens de uma sessão em ordem cronológica
func (s *Server) listMessages(c *gin.Context) {
	sessionID, ok := paramID(c)
	if !ok {
		return
	}

	userID := c.GetUint(ctxUserID)
	messages, err := s.chat.ListMessages(userID, sessionID)
	if err != nil {
		s.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// clearMessages apaga o histórico da sessão mantendo a sessão
func (s *Server) clearMessages(c *gin.Context) {
	sessionID, ok := paramID(c)
	if !ok {
		return
	}

	userID := c.GetUint(ctxUserID)
	if err := s.chat.ClearMessages(userID, sessionID); err != nil {
		s.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// qkoinBalance retorna o saldo e a disponibilidade das recompensas
func (s *Server) qkoinBalance(c *gin.Context) {
	userID := c.GetUint(ctxUserID)

	balance, err := s.qkoins.Balance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao consultar saldo"})
		return
	}

	canDaily, _ := s.qkoins.CanClaimDaily(userID)
	canBonus, _ := s.qkoins.CanClaimBonus(userID)

	c.JSON(http.StatusOK, gin.H{
		"qkoins":          balance,
		"can_claim_daily": canDaily,
		"can_claim_bonus": canBonus,
	})
}

// claimDailyReward resgata a recompensa diária (janela de 24h)
func (s *Server) claimDailyReward(c *gin.Context) {
	userID := c.GetUint(ctxUserID)

	amount, err := s.qkoins.ClaimDaily(userID)
	if err != nil {
		if errors.Is(err, services.ErrRewardNotAvailable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A recompensa diária ainda não está disponível. Volte mais tarde!"})
			return
		}
		utils.LogError("api", "falha ao resgatar recompensa diária", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao resgatar recompensa"})
		return
	}

	balance, _ := s.qkoins.Balance(userID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"amount":  amount,
		"qkoins":  balance,
	})
}

// claimBonus resgata o bônus de 4 horas
func (s *Server) claimBonus(c *gin.Context) {
	userID := c.GetUint(ctxUserID)

	amount, err := s.qkoins.ClaimBonus(userID)
	if err != nil {
		if errors.Is(err, services.ErrRewardNotAvailable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "O bônus ainda não está disponível. Volte mais tarde!"})
			return
		}
		utils.LogError("api", "falha ao resgatar bônus", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao resgatar bônus"})
		return
	}

	balance, _ := s.qkoins.Balance(userID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"amount":  amount,
		"qkoins":  balance,
	})
}

// qkoinTransactions lista o histórico de transações do usuário
func (s *Server) qkoinTransactions(c *gin.Context) {
	userID := c.GetUint(ctxUserID)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	transactions, total, err := s.qkoins.Transactions(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao listar transações"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

// uploadFile recebe um upload multipart e o processa
func (s *Server) uploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nenhum arquivo enviado"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao ler arquivo"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao ler arquivo"})
		return
	}

	attachment, err := s.files.Save(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		if errors.Is(err, services.ErrFileTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		utils.LogError("api", "falha no upload", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao salvar arquivo"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": attachment})
}

// serveFile entrega o arquivo salvo (preferindo o derivado otimizado)
func (s *Server) serveFile(c *gin.Context) {
	attachment, err := s.files.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Arquivo não encontrado"})
		return
	}

	if attachment.ProcessedPath != "" && c.Query("original") == "" {
		c.File(attachment.ProcessedPath)
		return
	}
	c.File(s.files.Path(attachment.Filename))
}

// deleteFile remove um arquivo enviado
func (s *Server) deleteFile(c *gin.Context) {
	if err := s.files.Delete(c.Param("id")); err != nil {
		if errors.Is(err, services.ErrAttachmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Arquivo não encontrado"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao remover arquivo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// sessionError mapeia os erros de sessão para o status HTTP correto
func (s *Server) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversa não encontrada"})
	case errors.Is(err, services.ErrSessionForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Esta conversa pertence a outro usuário"})
	default:
		utils.LogError("api", "erro de sessão", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno"})
	}
}

// paramID converte o parâmetro :id da rota
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return 0, false
	}
	return uint(id), true
}

// settingInt lê uma configuração numérica com valor padrão
func settingInt(db *gorm.DB, key string, defaultVal int) int {
	value := database.GetSetting(db, key, "")
	if value == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultVal
	}
	return parsed
}
