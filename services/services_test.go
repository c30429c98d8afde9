package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"qisa/database"
)

// newTestDB abre um banco sqlite em memória com o schema migrado.
// Uma única conexão serializa as transações, como em produção com sqlite.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))
	return db
}

// newTestUser cria um usuário direto no banco com o saldo informado
func newTestUser(t *testing.T, db *gorm.DB, username string, qkoins int) *database.User {
	t.Helper()

	user := database.User{
		Username:     username,
		Email:        username + "@teste.com",
		PasswordHash: "x",
		DisplayName:  username,
		Qkoins:       qkoins,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}
