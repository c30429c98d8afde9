package database

import (
	"time"

	"gorm.io/gorm"
)

// Papéis de mensagem dentro de uma sessão de chat
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Tipos de transação de QKoins
const (
	TxEarned      = "earned"
	TxSpent       = "spent"
	TxDailyReward = "daily_reward"
)

// Tipos de arquivo anexado
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
	FileTypeOther = "other"
)

// User modelo de usuário
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"uniqueIndex;size:30" json:"username"`
	Email           string     `gorm:"uniqueIndex" json:"email"`
	PasswordHash    string     `json:"-"`
	DisplayName     string     `json:"display_name"`
	PhotoURL        string     `json:"photo_url"`
	Qkoins          int        `gorm:"default:0" json:"qkoins"`
	LastDailyReward *time.Time `json:"last_daily_reward"`
	LastBonusClaim  *time.Time `json:"last_bonus_claim"`
	IsAdmin         bool       `gorm:"default:false" json:"is_admin"`
	Banned          bool       `gorm:"default:false" json:"banned"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ChatSession modelo de sessão de conversa
type ChatSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `gorm:"size:120" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"-"`
}

// Message modelo de mensagem (imutável após criada)
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"index" json:"session_id"`
	Role      string    `gorm:"size:20" json:"role"` // "user" ou "assistant"
	Content   string    `gorm:"type:text" json:"content"`
	ImageURL  string    `gorm:"type:text" json:"image_url,omitempty"` // URL externa ou data URI base64
	Metadata  string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QkoinTransaction registro de auditoria do livro-razão (append-only)
type QkoinTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	Amount      int       `json:"amount"` // positivo = crédito, negativo = débito
	Type        string    `gorm:"size:20" json:"type"`
	Description string    `gorm:"size:200" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileAttachment modelo de arquivo enviado
type FileAttachment struct {
	ID            string    `gorm:"primaryKey;size:20" json:"id"` // xid
	Filename      string    `json:"filename"`
	OriginalName  string    `json:"original_name"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	URL           string    `json:"url"`
	Type          string    `gorm:"size:10" json:"type"` // pdf, image, other
	ExtractedText string    `gorm:"type:text" json:"extracted_text,omitempty"`
	ProcessedPath string    `json:"-"` // derivado WebP otimizado
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Setting modelo de configurações da aplicação
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave hook antes de salvar
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// TableName nome da tabela
func (User) TableName() string {
	return "users"
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

func (Message) TableName() string {
	return "messages"
}

func (QkoinTransaction) TableName() string {
	return "qkoin_transactions"
}

func (FileAttachment) TableName() string {
	return "file_attachments"
}

func (Setting) TableName() string {
	return "settings"
}
