package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDatabase(databasePath string) error {
	var err error

	log.Printf("🔌 Conectando ao banco de dados: %s\n", databasePath)

	DB, err = gorm.Open(sqlite.Open(databasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})

	if err != nil {
		return fmt.Errorf("erro ao conectar ao banco de dados: %w", err)
	}

	// Configurações de conexão
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("erro ao obter instância do DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	// Executa as migrations
	if err := RunMigrations(DB); err != nil {
		return fmt.Errorf("erro na migration: %w", err)
	}

	log.Println("✅ Banco de dados inicializado com sucesso")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

func CloseDatabase() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
