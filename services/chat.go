package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"qisa/database"
)

const DefaultSessionTitle = "Nova Conversa"

var (
	ErrSessionNotFound  = errors.New("conversa não encontrada")
	ErrSessionForbidden = errors.New("esta conversa pertence a outro usuário")
)

type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// ownedSession carrega a sessão e verifica que ela pertence ao usuário.
// Toda operação que recebe um sessionID passa por aqui.
func (s *ChatService) ownedSession(userID, sessionID uint) (*database.ChatSession, error) {
	var session database.ChatSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrSessionForbidden
	}
	return &session, nil
}

// CurrentSession retorna a sessão mais recente do usuário, criando uma
// "Nova Conversa" se ele ainda não tiver nenhuma. Para usuários anônimos
// (userID == 0) retorna uma sessão efêmera que nunca é persistida.
func (s *ChatService) CurrentSession(userID uint) (*database.ChatSession, error) {
	if userID == 0 {
		now := time.Now()
		return &database.ChatSession{Title: DefaultSessionTitle, CreatedAt: now, UpdatedAt: now}, nil
	}

	var session database.ChatSession
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("erro ao buscar sessão atual: %w", err)
	}

	return s.CreateSession(userID, DefaultSessionTitle)
}

// CreateSession cria uma nova sessão de conversa
func (s *ChatService) CreateSession(userID uint, title string) (*database.ChatSession, error) {
	if userID == 0 {
		now := time.Now()
		return &database.ChatSession{Title: DefaultSessionTitle, CreatedAt: now, UpdatedAt: now}, nil
	}

	if title == "" {
		title = DefaultSessionTitle
	}

	session := database.ChatSession{
		UserID: userID,
		Title:  title,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("erro ao criar sessão: %w", err)
	}
	return &session, nil
}

// GetSession busca uma sessão do usuário pelo ID
func (s *ChatService) GetSession(userID, sessionID uint) (*database.ChatSession, error) {
	return s.ownedSession(userID, sessionID)
}

// ListSessions lista as sessões do usuário, mais recentes primeiro
func (s *ChatService) ListSessions(userID uint) ([]database.ChatSession, error) {
	if userID == 0 {
		return []database.ChatSession{}, nil
	}

	var sessions []database.ChatSession
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// RenameSession renomeia uma sessão do usuário
func (s *ChatService) RenameSession(userID, sessionID uint, title string) (*database.ChatSession, error) {
	session, err := s.ownedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = DefaultSessionTitle
	}

	session.Title = title
	if err := s.db.Model(session).Update("title", title).Error; err != nil {
		return nil, fmt.Errorf("erro ao renomear sessão: %w", err)
	}
	return session, nil
}

// DeleteSession apaga a sessão e todas as suas mensagens na mesma transação
func (s *ChatService) DeleteSession(userID, sessionID uint) error {
	if _, err := s.ownedSession(userID, sessionID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&database.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.ChatSession{}, sessionID).Error
	})
}

// AppendMessage adiciona uma mensagem à sessão e atualiza o updated_at da
// sessão na mesma transação. Para usuários anônimos nada é persistido: a
// mensagem retornada é efêmera.
func (s *ChatService) AppendMessage(userID, sessionID uint, role, content, imageURL string) (*database.Message, error) {
	if userID == 0 {
		return &database.Message{
			Role:      role,
			Content:   content,
			ImageURL:  imageURL,
			CreatedAt: time.Now(),
		}, nil
	}

	if _, err := s.ownedSession(userID, sessionID); err != nil {
		return nil, err
	}

	message := database.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		ImageURL:  imageURL,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&database.ChatSession{}).
			Where("id = ?", sessionID).
			UpdateColumn("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao salvar mensagem: %w", err)
	}

	return &message, nil
}

// ListMessages lista as mensagens da sessão em ordem cronológica
func (s *ChatService) ListMessages(userID, sessionID uint) ([]database.Message, error) {
	if userID == 0 {
		return []database.Message{}, nil
	}

	if _, err := s.ownedSession(userID, sessionID); err != nil {
		return nil, err
	}

	var messages []database.Message
	err := s.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// ClearMessages apaga todas as mensagens da sessão, mantendo a sessão
func (s *ChatService) ClearMessages(userID, sessionID uint) error {
	if userID == 0 {
		return nil
	}

	if _, err := s.ownedSession(userID, sessionID); err != nil {
		return err
	}

	return s.db.Where("session_id = ?", sessionID).Delete(&database.Message{}).Error
}

// History retorna as últimas n mensagens da sessão em ordem cronológica,
// usadas como contexto na chamada ao modelo
func (s *ChatService) History(userID, sessionID uint, n int) ([]database.Message, error) {
	if userID == 0 {
		return []database.Message{}, nil
	}

	if _, err := s.ownedSession(userID, sessionID); err != nil {
		return nil, err
	}

	var messages []database.Message
	err := s.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Inverte para ordem cronológica
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
