package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/codebattle/internal/profile"
	"github.com/cory-johannsen/codebattle/internal/storage/postgres"
	"github.com/cory-johannsen/codebattle/internal/testutil"
)

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func setupProfileRepo(t *testing.T) (*postgres.ProfileRepository, *testutil.PostgresContainer) {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewProfileRepository(pc.RawPool), pc
}

func TestProfileRepository(t *testing.T) {
	repo, pc := setupProfileRepo(t)
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, pc.Pool.Health(ctx, 5*time.Second))
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := repo.Load(ctx, uniqueID("missing"))
		assert.ErrorIs(t, err, profile.ErrNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		id := uniqueID("player")
		p := profile.Default()
		p.Coins = 50
		require.NoError(t, repo.Save(ctx, id, p))

		got, err := repo.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("save replaces", func(t *testing.T) {
		id := uniqueID("player")
		p := profile.Default()
		require.NoError(t, repo.Save(ctx, id, p))
		p.Level = 2
		p.MaxHP = 170
		p.Attack = 23
		p.Abilities = nil
		require.NoError(t, repo.Save(ctx, id, p))

		got, err := repo.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Level)
		assert.Equal(t, 170, got.MaxHP)
		assert.Empty(t, got.Abilities)

		var rows int
		require.NoError(t, pc.RawPool.QueryRow(ctx, `SELECT COUNT(*) FROM player_profiles WHERE id = $1`, id).Scan(&rows))
		assert.Equal(t, 1, rows)
	})

	t.Run("corrupted row", func(t *testing.T) {
		id := uniqueID("broken")
		_, err := pc.RawPool.Exec(ctx, `
			INSERT INTO player_profiles (id, name, max_hp, abilities, level, xp_to_next_level)
			VALUES ($1, '', 10, '{"not": "a list"}'::jsonb, 1, 100)`, id)
		require.NoError(t, err)
		_, err = repo.Load(ctx, id)
		assert.ErrorIs(t, err, profile.ErrCorrupted)
	})

	t.Run("delete", func(t *testing.T) {
		id := uniqueID("player")
		require.NoError(t, repo.Save(ctx, id, profile.Default()))
		require.NoError(t, repo.Delete(ctx, id))
		assert.ErrorIs(t, repo.Delete(ctx, id), profile.ErrNotFound)
	})

	t.Run("property: progression survives storage", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			id := uniqueID("prop")
			p := profile.Default()
			p.Level = rapid.IntRange(1, 30).Draw(rt, "level")
			p.XP = rapid.IntRange(0, 5000).Draw(rt, "xp")
			p.Coins = rapid.IntRange(0, 5000).Draw(rt, "coins")
			p.Potions = rapid.IntRange(0, 20).Draw(rt, "potions")
			require.NoError(rt, repo.Save(ctx, id, p))
			got, err := repo.Load(ctx, id)
			require.NoError(rt, err)
			if got.Level != p.Level || got.XP != p.XP || got.Coins != p.Coins || got.Potions != p.Potions {
				rt.Fatalf("stored %+v, loaded %+v", p, got)
			}
		})
	})

	t.Run("migrations already current", func(t *testing.T) {
		res, err := postgres.Migrate("file://"+testutil.MigrationsDir(t), pc.Config.DSN(), "up", 0)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, uint(1), res.Version)
		assert.False(t, res.Dirty)
	})
}

func TestMigrate_RejectsBadArguments(t *testing.T) {
	_, err := postgres.Migrate("file://migrations", "postgres://localhost/none", "sideways", 0)
	assert.ErrorContains(t, err, "invalid direction")
	_, err = postgres.Migrate("file://migrations", "postgres://localhost/none", "up", -1)
	assert.ErrorContains(t, err, "steps")
}
