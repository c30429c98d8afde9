package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qisa/database"
)

func TestSpendNuncaDeixaSaldoNegativo(t *testing.T) {
	db := newTestDB(t)
	svc := NewQkoinService(db, 10, 5)
	user := newTestUser(t, db, "carla", 5)

	require.NoError(t, svc.Spend(user.ID, 3, "Geração de imagem"))

	err := svc.Spend(user.ID, 3, "Geração de imagem")
	assert.ErrorIs(t, err, ErrInsufficientQkoins)

	balance, err := svc.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, balance)

	// Apenas o débito bem-sucedido aparece no livro-razão
	var count int64
	db.Model(&database.QkoinTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, database.TxSpent).
		Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSpendComSaldoZerado(t *testing.T) {
	db := newTestDB(t)
	svc := NewQkoinService(db, 10, 5)
	user := newTestUser(t, db, "zerado", 0)

	err := svc.Spend(user.ID, 1, "Geração de imagem")
	assert.ErrorIs(t, err, ErrInsufficientQkoins)

	balance, _ := svc.Balance(user.ID)
	assert.Equal(t, 0, balance)

	var count int64
	db.Model(&database.QkoinTransaction{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 0, count, "nenhuma transação deve ser registrada")
}

func TestSpendConcorrenteNaoUltrapassaSaldo(t *testing.T) {
	db := newTestDB(t)
	svc := NewQkoinService(db, 10, 5)
	user := newTestUser(t, db, "corrida", 10)

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Spend(user.ID, 1, "Geração de imagem")
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientQkoins)
		}
	}

	assert.Equal(t, 10, succeeded, "só devem passar os débitos que cabem no saldo")

	balance, err := svc.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestClaimDailyRespeitaJanelaDe24h(t *testing.T) {
	db := newTestDB(t)
	svc := NewQkoinService(db, 10, 5)
	user := newTestUser(t, db, "diaria", 0)

	can, err := svc.CanClaimDaily(user.ID)
	require.NoError(t, err)
	assert.True(t, can, "sem resgate anterior a recompensa deve estar disponível")

	amount, err := svc.ClaimDaily(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, amount)

	balance, _ := svc.Balance(user.ID)
	assert.Equal(t, 10, balance)

	// Uma única transação do tipo daily_reward
	var txs []database.QkoinTransaction
	db.Where("user_id = ? AND type = ?", user.ID, database.TxDailyReward).Find(&txs)
	require.Len(t, txs, 1)
	assert.Equal(t, 10, txs[0].Amount)

	// Segundo resgate imediato falha
	_, err = svc.ClaimDaily(user.ID)
	assert.ErrorIs(t, err, ErrRewardNotAvailable)

	can, _ = svc.CanClaimDaily(user.ID)
	assert.False(t, can)

	// Depois da janela o resgate volta a funcionar
	past := time.Now().Add(-25 * time.Hour)
	require.NoError(t, db.Model(&database.User{}).
		Where("id = ?", user.ID).
		Update("last_daily_reward", past).Error)

	_, err = svc.ClaimDaily(user.ID)
	require.NoError(t, err)

	balance, _ = svc.Balance(user.ID)
	assert.Equal(t, 20, balance)
}

func TestClaimBonusRespeitaJanelaDe4h(t *testing.T) {
	db := newTestDB(t)
	svc := NewQkoinService(db, 10, 5)
	user := newTestUser(t, db, "bonus", 0)

	amount, err := svc.ClaimBonus(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, amount)

	var tx database.QkoinTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&tx).Error)
	assert.Equal(t, database.TxEarned, tx.Type)
	assert.Equal(t, 5, tx.Amount)

	_, err = svc.ClaimBonus(user.ID)
	assert.ErrorIs(t, err, ErrRewardNotAvailable)

	// 3 horas não bastam
	require.NoError(t, db.Model(&database.User{}).
		Where("id = ?", user.ID).
		Update("last_bonus_claim", time.Now().Add(-3*time.Hour)).Error)
	_, err = svc.ClaimBonus(user.ID)
	assert.ErrorIs(t, err, ErrRewardNotAvailable)

	// 5 horas liberam o bônus
	require.NoError(t, db.Model(&database.User{}).
		Where("id = ?", user.ID).
		Update("last_bonus_claim", time.Now().Add(-5*time.Hour)).Error)
	_, err = svc.ClaimBonus(user.ID)
	require.NoError(t, err)

	balance, _ := svc.Balance(user.ID)
	assert.Equal(t, 10, balance)
}

func TestEarnRegistraEstorno(t *testing.T) {
	db := newTestDB(t)
	svc := NewQkoinService(db, 10, 5)
	user := newTestUser(t, db, "estorno", 3)

	require.NoError(t, svc.Spend(user.ID, 1, "Geração de imagem"))
	require.NoError(t, svc.Earn(user.ID, 1, "Estorno: falha na geração de imagem"))

	balance, _ := svc.Balance(user.ID)
	assert.Equal(t, 3, balance)

	var txs []database.QkoinTransaction
	db.Where("user_id = ?", user.ID).Order("id ASC").Find(&txs)
	require.Len(t, txs, 2)
	assert.Equal(t, -1, txs[0].Amount)
	assert.Equal(t, database.TxSpent, txs[0].Type)
	assert.Equal(t, 1, txs[1].Amount)
	assert.Equal(t, database.TxEarned, txs[1].Type)
}

func TestTransactionsPaginadas(t *testing.T) {
	db := newTestDB(t)
	svc := NewQkoinService(db, 10, 5)
	user := newTestUser(t, db, "historico", 100)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Spend(user.ID, 1, "Geração de imagem"))
	}

	txs, total, err := svc.Transactions(user.ID, 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, txs, 3)
}
