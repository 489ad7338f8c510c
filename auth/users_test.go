package auth

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/database"
	"github.com/krishkalaria12/snap-code/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGormUsers_ReRegisterAfterDelete(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	db, err := database.Connect(dsn, zap.NewNop())
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	t.Cleanup(func() { _ = database.CloseDB(db) })
	require.NoError(t, database.MigrateModels(db, &models.User{}, &models.GeneratedCode{}))

	users := NewGormUsers(db)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	email := "again-" + suffix + "@example.com"
	username := "again" + suffix
	t.Cleanup(func() { db.Unscoped().Where("email = ?", email).Delete(&models.User{}) })

	first := &models.User{Email: email, Username: username, Password: "x"}
	require.NoError(t, users.Create(ctx, first))

	dup := &models.User{Email: email, Username: username, Password: "x"}
	assert.Equal(t, apperror.Conflict, apperror.KindOf(users.Create(ctx, dup)))

	require.NoError(t, users.Delete(ctx, first.ID))
	gone, err := users.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	second := &models.User{Email: email, Username: username, Password: "x"}
	require.NoError(t, users.Create(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)
}
