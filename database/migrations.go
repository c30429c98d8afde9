package database

import (
	"log"

	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	log.Println("🔄 Iniciando migration das tabelas...")

	// Tabela de usuários
	if err := db.AutoMigrate(&User{}); err != nil {
		return err
	}
	log.Println("✅ Tabela users criada")

	// Tabela de sessões de chat
	if err := db.AutoMigrate(&ChatSession{}); err != nil {
		return err
	}
	log.Println("✅ Tabela chat_sessions criada")

	// Tabela de mensagens
	if err := db.AutoMigrate(&Message{}); err != nil {
		return err
	}
	log.Println("✅ Tabela messages criada")

	// Tabela de transações de QKoins
	if err := db.AutoMigrate(&QkoinTransaction{}); err != nil {
		return err
	}
	log.Println("✅ Tabela qkoin_transactions criada")

	// Tabela de arquivos anexados
	if err := db.AutoMigrate(&FileAttachment{}); err != nil {
		return err
	}
	log.Println("✅ Tabela file_attachments criada")

	// Tabela de configurações
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return err
	}
	log.Println("✅ Tabela settings criada")

	// Configurações padrão
	seedDefaultSettings(db)

	log.Println("✅ Todas as tabelas foram criadas com sucesso")
	return nil
}

func seedDefaultSettings(db *gorm.DB) {
	defaultSettings := []Setting{
		{
			Key:   "system_prompt",
			Value: "Você é a Qisa, uma assistente de inteligência artificial brasileira, simpática e prestativa. Responda sempre em português do Brasil, de forma clara e objetiva.",
		},
		{
			Key:   "welcome_message",
			Value: "Olá! Eu sou a Qisa 💜 Como posso te ajudar hoje?",
		},
		{
			Key:   "image_cost",
			Value: "1",
		},
		{
			Key:   "history_window",
			Value: "10",
		},
	}

	for _, setting := range defaultSettings {
		var existing Setting
		if err := db.Where("key = ?", setting.Key).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&setting)
		}
	}
}

// GetSetting lê uma configuração com valor padrão
func GetSetting(db *gorm.DB, key, defaultValue string) string {
	var setting Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		return defaultValue
	}
	return setting.Value
}
