package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"qisa/database"
)

// Janelas de resgate
const (
	DailyRewardWindow = 24 * time.Hour
	BonusClaimWindow  = 4 * time.Hour
)

var (
	ErrInsufficientQkoins = errors.New("você não tem QKoins suficientes")
	ErrRewardNotAvailable = errors.New("recompensa ainda não disponível")
	ErrInvalidQkoinAmount = errors.New("quantidade de QKoins inválida")
)

type QkoinService struct {
	db          *gorm.DB
	dailyAmount int
	bonusAmount int
}

func NewQkoinService(db *gorm.DB, dailyAmount, bonusAmount int) *QkoinService {
	return &QkoinService{
		db:          db,
		dailyAmount: dailyAmount,
		bonusAmount: bonusAmount,
	}
}

// Balance retorna o saldo atual de QKoins do usuário
func (s *QkoinService) Balance(userID uint) (int, error) {
	var user database.User
	if err := s.db.Select("qkoins").First(&user, userID).Error; err != nil {
		return 0, fmt.Errorf("usuário não encontrado: %w", err)
	}
	return user.Qkoins, nil
}

// CanClaimDaily verifica se a janela de 24h da recompensa diária já passou
func (s *QkoinService) CanClaimDaily(userID uint) (bool, error) {
	var user database.User
	if err := s.db.Select("last_daily_reward").First(&user, userID).Error; err != nil {
		return false, fmt.Errorf("usuário não encontrado: %w", err)
	}
	if user.LastDailyReward == nil {
		return true, nil
	}
	return time.Since(*user.LastDailyReward) >= DailyRewardWindow, nil
}

// CanClaimBonus verifica se a janela de 4h do bônus já passou
func (s *QkoinService) CanClaimBonus(userID uint) (bool, error) {
	var user database.User
	if err := s.db.Select("last_bonus_claim").First(&user, userID).Error; err != nil {
		return false, fmt.Errorf("usuário não encontrado: %w", err)
	}
	if user.LastBonusClaim == nil {
		return true, nil
	}
	return time.Since(*user.LastBonusClaim) >= BonusClaimWindow, nil
}

// ClaimDaily resgata a recompensa diária de forma atômica.
// O UPDATE condicional garante que duas requisições simultâneas não
// resgatem a mesma janela duas vezes.
func (s *QkoinService) ClaimDaily(userID uint) (int, error) {
	now := time.Now()
	cutoff := now.Add(-DailyRewardWindow)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&database.User{}).
			Where("id = ? AND (last_daily_reward IS NULL OR last_daily_reward <= ?)", userID, cutoff).
			Updates(map[string]interface{}{
				"qkoins":            gorm.Expr("qkoins + ?", s.dailyAmount),
				"last_daily_reward": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRewardNotAvailable
		}

		entry := database.QkoinTransaction{
			UserID:      userID,
			Amount:      s.dailyAmount,
			Type:        database.TxDailyReward,
			Description: "Recompensa diária",
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return 0, err
	}

	return s.dailyAmount, nil
}

// ClaimBonus resgata o bônus de 4 horas (mesmo padrão da recompensa diária)
func (s *QkoinService) ClaimBonus(userID uint) (int, error) {
	now := time.Now()
	cutoff := now.Add(-BonusClaimWindow)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&database.User{}).
			Where("id = ? AND (last_bonus_claim IS NULL OR last_bonus_claim <= ?)", userID, cutoff).
			Updates(map[string]interface{}{
				"qkoins":           gorm.Expr("qkoins + ?", s.bonusAmount),
				"last_bonus_claim": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRewardNotAvailable
		}

		entry := database.QkoinTransaction{
			UserID:      userID,
			Amount:      s.bonusAmount,
			Type:        database.TxEarned,
			Description: "Bônus de 4 horas",
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return 0, err
	}

	return s.bonusAmount, nil
}

// Spend debita QKoins de forma atômica. O débito só acontece se o saldo
// for suficiente (qkoins >= amount no WHERE), junto com o registro de
// auditoria na mesma transação.
func (s *QkoinService) Spend(userID uint, amount int, description string) error {
	if amount <= 0 {
		return ErrInvalidQkoinAmount
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&database.User{}).
			Where("id = ? AND qkoins >= ?", userID, amount).
			UpdateColumn("qkoins", gorm.Expr("qkoins - ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientQkoins
		}

		entry := database.QkoinTransaction{
			UserID:      userID,
			Amount:      -amount,
			Type:        database.TxSpent,
			Description: description,
		}
		return tx.Create(&entry).Error
	})
}

// Earn credita QKoins (usado também para estornos de falha na geração de imagem)
func (s *QkoinService) Earn(userID uint, amount int, description string) error {
	if amount <= 0 {
		return ErrInvalidQkoinAmount
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&database.User{}).
			Where("id = ?", userID).
			UpdateColumn("qkoins", gorm.Expr("qkoins + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		entry := database.QkoinTransaction{
			UserID:      userID,
			Amount:      amount,
			Type:        database.TxEarned,
			Description: description,
		}
		return tx.Create(&entry).Error
	})
}

// Transactions lista o histórico de transações do usuário (mais recentes primeiro)
func (s *QkoinService) Transactions(userID uint, page, limit int) ([]database.QkoinTransaction, int64, error) {
	var transactions []database.QkoinTransaction
	var total int64

	s.db.Model(&database.QkoinTransaction{}).Where("user_id = ?", userID).Count(&total)
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&transactions).Error

	return transactions, total, err
}
