package hotel_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/internal/hotel"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func createTestHotel(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID, urls []string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO hotels (id, owner_id, name, city, photo_urls, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`,
		id, ownerID, "Test Hotel", "Lisbon", urls,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM hotels WHERE id = $1`, id)
	})

	return id
}

func TestPgRepository_FindOwned(t *testing.T) {
	pool := newTestPool(t)
	repo := hotel.NewPgRepository(pool)
	ctx := context.Background()

	ownerID := uuid.New()
	hotelID := createTestHotel(t, pool, ownerID, []string{"https://cdn.example.com/a.jpg"})

	t.Run("Found", func(t *testing.T) {
		h, err := repo.FindOwned(ctx, hotelID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, hotelID, h.ID)
		assert.Equal(t, ownerID, h.OwnerID)
		assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, h.PhotoURLs)
		assert.WithinDuration(t, time.Now(), h.CreatedAt, time.Minute)
	})

	t.Run("WrongOwner", func(t *testing.T) {
		_, err := repo.FindOwned(ctx, hotelID, uuid.New())
		require.ErrorIs(t, err, hotel.ErrNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.FindOwned(ctx, uuid.New(), ownerID)
		require.ErrorIs(t, err, hotel.ErrNotFound)
	})
}

func TestPgRepository_SetPhotoURLs(t *testing.T) {
	pool := newTestPool(t)
	repo := hotel.NewPgRepository(pool)
	ctx := context.Background()

	ownerID := uuid.New()
	hotelID := createTestHotel(t, pool, ownerID, []string{"https://cdn.example.com/old.jpg"})

	t.Run("Replaces", func(t *testing.T) {
		urls := []string{"https://cdn.example.com/new1.jpg", "https://cdn.example.com/new2.jpg"}
		require.NoError(t, repo.SetPhotoURLs(ctx, hotelID, ownerID, urls))

		h, err := repo.FindOwned(ctx, hotelID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, urls, h.PhotoURLs)
	})

	t.Run("WrongOwner", func(t *testing.T) {
		err := repo.SetPhotoURLs(ctx, hotelID, uuid.New(), []string{"https://cdn.example.com/x.jpg"})
		require.ErrorIs(t, err, hotel.ErrNotFound)
	})
}

func TestPgRepository_MergePhotoURLs(t *testing.T) {
	pool := newTestPool(t)
	repo := hotel.NewPgRepository(pool)
	ctx := context.Background()

	ownerID := uuid.New()
	hotelID := createTestHotel(t, pool, ownerID, []string{"https://cdn.example.com/old.jpg"})

	t.Run("PrependsNewURLs", func(t *testing.T) {
		merged, err := repo.MergePhotoURLs(ctx, hotelID, ownerID, []string{"https://cdn.example.com/new.jpg"})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://cdn.example.com/new.jpg",
			"https://cdn.example.com/old.jpg",
		}, merged)

		h, err := repo.FindOwned(ctx, hotelID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, merged, h.PhotoURLs)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.MergePhotoURLs(ctx, uuid.New(), ownerID, []string{"https://cdn.example.com/x.jpg"})
		require.ErrorIs(t, err, hotel.ErrNotFound)
	})
}
