package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/profile"
)

func TestOpenSQLite_MigratesAllTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wildnest.db")
	db, err := OpenSQLite(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	for _, table := range []string{"profiles", "animals", "posts", "likes"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := profile.NewGormRepository(db)
	_, err = repo.Create(ctx, &profile.Profile{ID: "user_1", Username: "user_1", DisplayName: "New User", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	likeRepo := likes.NewGormRepository(db)
	liked, err := likeRepo.Toggle(ctx, "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", "user_1", now)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "wildnest.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	assert.NoError(t, Migrate(db))
}
