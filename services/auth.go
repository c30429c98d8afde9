package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"qisa/database"
	"qisa/utils"
)

var (
	ErrUsernameTaken       = errors.New("este nome de usuário já está em uso")
	ErrEmailTaken          = errors.New("este e-mail já está cadastrado")
	ErrInvalidRegistration = errors.New("dados de cadastro inválidos")
	ErrInvalidCredentials  = errors.New("usuário ou senha incorretos")
	ErrUserBanned          = errors.New("esta conta foi suspensa")
)

type AuthService struct {
	db            *gorm.DB
	jwtSecret     string
	welcomeQkoins int
}

func NewAuthService(db *gorm.DB, jwtSecret string, welcomeQkoins int) *AuthService {
	return &AuthService{
		db:            db,
		jwtSecret:     jwtSecret,
		welcomeQkoins: welcomeQkoins,
	}
}

// Register cadastra um novo usuário com senha criptografada (bcrypt)
func (s *AuthService) Register(username, email, password, displayName string) (*database.User, error) {
	username = utils.NormalizeUsername(username)

	// Validações
	if !utils.ValidateUsername(username) {
		return nil, fmt.Errorf("%w: nome de usuário deve ter entre 3 e 30 caracteres (letras minúsculas, números, _ . -)", ErrInvalidRegistration)
	}
	if !utils.ValidateEmail(email) {
		return nil, fmt.Errorf("%w: e-mail inválido", ErrInvalidRegistration)
	}
	if !utils.ValidatePassword(password) {
		return nil, fmt.Errorf("%w: a senha deve ter no mínimo 6 caracteres", ErrInvalidRegistration)
	}
	if utils.IsAnonymousUsername(username) {
		return nil, fmt.Errorf("%w: nome de usuário reservado", ErrInvalidRegistration)
	}

	// Verifica duplicidade
	var existing database.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	}
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("erro ao criptografar senha: %w", err)
	}

	if displayName == "" {
		displayName = username
	}

	user := database.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}

	// Cria o usuário e o bônus de boas-vindas na mesma transação
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if s.welcomeQkoins > 0 {
			if err := tx.Model(&database.User{}).
				Where("id = ?", user.ID).
				UpdateColumn("qkoins", gorm.Expr("qkoins + ?", s.welcomeQkoins)).Error; err != nil {
				return err
			}
			grant := database.QkoinTransaction{
				UserID:      user.ID,
				Amount:      s.welcomeQkoins,
				Type:        database.TxEarned,
				Description: "Bônus de boas-vindas",
			}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
			user.Qkoins = s.welcomeQkoins
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao cadastrar usuário: %w", err)
	}

	return &user, nil
}

// Login autentica o usuário por nome de usuário e senha
func (s *AuthService) Login(username, password string) (*database.User, error) {
	username = utils.NormalizeUsername(username)

	var user database.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if !utils.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if user.Banned {
		return nil, ErrUserBanned
	}

	return &user, nil
}

// GenerateToken gera um JWT assinado para o usuário
func (s *AuthService) GenerateToken(user *database.User) (string, error) {
	userType := "user"
	if user.IsAdmin {
		userType = "admin"
	}

	claims := jwt.MapClaims{
		"user_id":   user.ID,
		"user_type": userType,
		"exp":       time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyToken valida o JWT e retorna o ID do usuário e se é admin
func (s *AuthService) VerifyToken(tokenString string) (uint, bool, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return 0, false, fmt.Errorf("erro ao validar token: %w", err)
	}

	if !token.Valid {
		return 0, false, errors.New("token inválido")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false, errors.New("claims inválidas")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, false, errors.New("user_id não encontrado no token")
	}

	userType, _ := claims["user_type"].(string)

	return uint(userID), userType == "admin", nil
}
