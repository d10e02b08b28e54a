package hotel

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/innkeep/innkeep/pkg/db"
)

// Repository abstracts hotel persistence for the media pipeline.
type Repository interface {
	// FindOwned returns the hotel only when it exists and belongs to
	// ownerID; ErrNotFound otherwise.
	FindOwned(ctx context.Context, hotelID, ownerID uuid.UUID) (*Hotel, error)

	// SetPhotoURLs replaces the photo gallery in a single guarded
	// update; ErrNotFound when the hotel is missing or not owned.
	SetPhotoURLs(ctx context.Context, hotelID, ownerID uuid.UUID, urls []string) error

	// MergePhotoURLs prepends urls to the existing gallery atomically
	// and returns the resulting list.
	MergePhotoURLs(ctx context.Context, hotelID, ownerID uuid.UUID, urls []string) ([]string, error)
}

// PgRepository implements Repository on a pgx connection pool.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a PostgreSQL-backed hotel repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) FindOwned(ctx context.Context, hotelID, ownerID uuid.UUID) (*Hotel, error) {
	const query = `
		SELECT id, owner_id, name, city, photo_urls, created_at, updated_at
		FROM hotels
		WHERE id = $1 AND owner_id = $2`

	var h Hotel
	err := r.pool.QueryRow(ctx, query, hotelID, ownerID).Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.City, &h.PhotoURLs, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return &h, nil
}

func (r *PgRepository) SetPhotoURLs(ctx context.Context, hotelID, ownerID uuid.UUID, urls []string) error {
	const query = `
		UPDATE hotels
		SET photo_urls = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, hotelID, ownerID, urls)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) MergePhotoURLs(ctx context.Context, hotelID, ownerID uuid.UUID, urls []string) ([]string, error) {
	var merged []string

	// Row lock keeps concurrent merges from dropping each other's URLs.
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const selectQuery = `
			SELECT photo_urls FROM hotels
			WHERE id = $1 AND owner_id = $2
			FOR UPDATE`

		var existing []string
		if err := tx.QueryRow(ctx, selectQuery, hotelID, ownerID).Scan(&existing); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return errors.Join(ErrQueryFailed, err)
		}

		merged = slices.Concat(urls, existing)

		const updateQuery = `
			UPDATE hotels
			SET photo_urls = $3, updated_at = now()
			WHERE id = $1 AND owner_id = $2`

		if _, err := tx.Exec(ctx, updateQuery, hotelID, ownerID, merged); err != nil {
			return errors.Join(ErrQueryFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
