package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-checkout/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Product{}, &model.CheckoutSession{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func newSession(t *testing.T, repo SessionRepository, id string) *model.CheckoutSession {
	t.Helper()
	session := &model.CheckoutSession{
		ID:           id,
		ProductID:    "sku-1",
		ProductName:  "Curso Completo",
		ProductPrice: decimal.NewFromInt(100),
		Currency:     "BRL",
		Status:       model.SessionPending,
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, repo.Create(context.Background(), session))
	return session
}

func TestSessionRepository_FindByID_Missing(t *testing.T) {
	repo := NewSessionRepository(testDB(t))
	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_MarkProcessing_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testDB(t))
	newSession(t, repo, "sess-1")

	require.NoError(t, repo.MarkProcessing(ctx, "sess-1"))
	require.NoError(t, repo.MarkProcessing(ctx, "sess-1"), "second call must be a no-op")

	session, err := repo.FindByID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionProcessing, session.Status)
}

func TestSessionRepository_MonotonicTransitions(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testDB(t))
	newSession(t, repo, "sess-2")

	// COMPLETED requires PROCESSING first.
	err := repo.MarkCompleted(ctx, "sess-2")
	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)

	require.NoError(t, repo.MarkProcessing(ctx, "sess-2"))
	require.NoError(t, repo.MarkCompleted(ctx, "sess-2"))

	// Terminal states refuse further mutation.
	err = repo.MarkProcessing(ctx, "sess-2")
	require.ErrorAs(t, err, &illegal)

	require.NoError(t, repo.MarkExpired(ctx, "sess-2"), "expiring a completed session is a no-op")
	session, err := repo.FindByID(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, session.Status)
}

func TestSessionRepository_MarkExpired_FromAnyLiveState(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testDB(t))

	newSession(t, repo, "sess-3")
	require.NoError(t, repo.MarkExpired(ctx, "sess-3"))
	session, _ := repo.FindByID(ctx, "sess-3")
	assert.Equal(t, model.SessionExpired, session.Status)

	newSession(t, repo, "sess-4")
	require.NoError(t, repo.MarkProcessing(ctx, "sess-4"))
	require.NoError(t, repo.MarkExpired(ctx, "sess-4"))
	session, _ = repo.FindByID(ctx, "sess-4")
	assert.Equal(t, model.SessionExpired, session.Status)
}

func TestSessionRepository_NotificationClaims_FireOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testDB(t))
	newSession(t, repo, "sess-5")

	won, err := repo.ClaimWarningNotification(ctx, "sess-5")
	require.NoError(t, err)
	assert.True(t, won)

	for i := 0; i < 3; i++ {
		won, err = repo.ClaimWarningNotification(ctx, "sess-5")
		require.NoError(t, err)
		assert.False(t, won, "claim must only be won once")
	}

	won, err = repo.ClaimExpiryNotification(ctx, "sess-5")
	require.NoError(t, err)
	assert.True(t, won, "expiry claim is independent of the warning claim")

	won, err = repo.ClaimExpiryNotification(ctx, "sess-5")
	require.NoError(t, err)
	assert.False(t, won)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testDB(t))

	_, err := repo.FindByID(ctx, "sku-9")
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, repo.Upsert(ctx, &model.Product{
		ID:       "sku-9",
		Name:     "Assinatura Mensal",
		Price:    decimal.RequireFromString("49.90"),
		Currency: "BRL",
	}))

	product, err := repo.FindByID(ctx, "sku-9")
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("49.90")))
}
