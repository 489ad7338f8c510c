package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/database"
	"github.com/krishkalaria12/snap-code/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The owner filter and newest-first ordering are only exercised against a real
// Postgres. Run with TEST_DATABASE_URL=postgres://... to cover them; without it
// only the malformed-id path runs here. The handler tests cover the same
// contract through an in-memory Store.

// setupTestDB connects to TEST_DATABASE_URL, skipping when it is not set.
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := database.Connect(dsn, zap.NewNop())
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, database.MigrateModels(db, &models.User{}, &models.GeneratedCode{}))
	t.Cleanup(func() { _ = database.CloseDB(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB) uint {
	suffix := uuid.NewString()
	user := models.User{
		Email:    fmt.Sprintf("test-%s@example.com", suffix),
		Username: "user-" + suffix,
		Password: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	t.Cleanup(func() {
		db.Unscoped().Where("user_id = ?", user.ID).Delete(&models.GeneratedCode{})
		db.Unscoped().Delete(&user)
	})
	return user.ID
}

func TestGormStore_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	owner := createUser(t, db)

	rec, err := s.Save(ctx, owner, "shot.png", models.OutputHTML, "<div>...</div>")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "<div>...</div>", rec.HTMLCode)
	assert.Empty(t, rec.ReactCode)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.GetByIDForUser(ctx, rec.ID.String(), owner)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "shot.png", got.OriginalImage)
	assert.Equal(t, models.OutputHTML, got.OutputType)
}

func TestGormStore_OwnershipScoping(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	alice := createUser(t, db)
	bob := createUser(t, db)

	aliceRec, err := s.Save(ctx, alice, "a.png", models.OutputReact, "export default () => null")
	require.NoError(t, err)
	_, err = s.Save(ctx, bob, "b.png", models.OutputHTML, "<b></b>")
	require.NoError(t, err)

	_, err = s.GetByIDForUser(ctx, aliceRec.ID.String(), bob)
	assert.True(t, apperror.Is(err, apperror.NotFound))

	bobList, err := s.ListForUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobList, 1)
	assert.Equal(t, "b.png", bobList[0].OriginalImage)
	for _, r := range bobList {
		assert.Equal(t, bob, r.UserID)
	}
}

func TestGormStore_ListMostRecentFirst(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	owner := createUser(t, db)

	first, err := s.Save(ctx, owner, "1.png", models.OutputHTML, "<i>1</i>")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := s.Save(ctx, owner, "2.png", models.OutputHTML, "<i>2</i>")
	require.NoError(t, err)

	list, err := s.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestGormStore_GetMalformedAndMissing(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	owner := createUser(t, db)

	_, err := s.GetByIDForUser(ctx, "not-a-uuid", owner)
	assert.True(t, apperror.Is(err, apperror.NotFound))

	_, err = s.GetByIDForUser(ctx, uuid.NewString(), owner)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestGormStore_EmptyHistory(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	owner := createUser(t, db)

	list, err := s.ListForUser(context.Background(), owner)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGormStore_MalformedIDSkipsQuery(t *testing.T) {
	// A nil *gorm.DB would panic if the query ran.
	s := NewGormStore(nil)
	_, err := s.GetByIDForUser(context.Background(), "123", 1)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}
