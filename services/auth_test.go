package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"qisa/database"
)

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(db, "segredo-de-teste", 10)
}

func TestRegisterELoginFuncionam(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register("Maria_Silva", "maria@exemplo.com", "senha123", "Maria")
	require.NoError(t, err)

	// Nome de usuário normalizado para minúsculas
	assert.Equal(t, "maria_silva", user.Username)
	assert.Equal(t, "Maria", user.DisplayName)
	assert.Equal(t, 10, user.Qkoins, "o bônus de boas-vindas deve ser creditado")

	// O crédito de boas-vindas fica registrado no livro-razão
	var tx database.QkoinTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&tx).Error)
	assert.Equal(t, database.TxEarned, tx.Type)
	assert.Equal(t, 10, tx.Amount)

	logged, err := svc.Login("maria_silva", "senha123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestLoginComSenhaErrada(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register("joao", "joao@exemplo.com", "senha123", "")
	require.NoError(t, err)

	_, err = svc.Login("joao", "senha-errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nao_existe", "senha123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejeitaDuplicados(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register("duplicada", "dup@exemplo.com", "senha123", "")
	require.NoError(t, err)

	_, err = svc.Register("duplicada", "outro@exemplo.com", "senha123", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register("outra_conta", "dup@exemplo.com", "senha123", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidaDados(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"usuário curto demais", "ab", "ab@exemplo.com", "senha123"},
		{"e-mail inválido", "valido", "nao-e-email", "senha123"},
		{"senha curta", "valido", "ok@exemplo.com", "12345"},
		{"nome reservado", "anonymous_01", "anon@exemplo.com", "senha123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.username, tc.email, tc.password, "")
			assert.ErrorIs(t, err, ErrInvalidRegistration)
		})
	}
}

func TestLoginDeContaSuspensa(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register("suspenso", "susp@exemplo.com", "senha123", "")
	require.NoError(t, err)

	require.NoError(t, db.Model(&database.User{}).
		Where("id = ?", user.ID).
		Update("banned", true).Error)

	_, err = svc.Login("suspenso", "senha123")
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestTokenIdaEVolta(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register("tokenizada", "token@exemplo.com", "senha123", "")
	require.NoError(t, err)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, isAdmin, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.False(t, isAdmin)

	// Token assinado com outro segredo é rejeitado
	other := NewAuthService(db, "outro-segredo", 10)
	_, _, err = other.VerifyToken(token)
	assert.Error(t, err)
}

func TestTokenDeAdminCarregaPapel(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register("chefona", "chefe@exemplo.com", "senha123", "")
	require.NoError(t, err)
	user.IsAdmin = true

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	_, isAdmin, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestSenhaNaoFicaEmTextoPlano(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register("segura", "segura@exemplo.com", "senha123", "")
	require.NoError(t, err)

	var stored database.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotEqual(t, "senha123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}
