package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

const addressColumns = `id, user_id, label, street, city, province, postal_code, latitude, longitude, is_default, created_at, updated_at`

type addressRepository struct {
	db *sqlx.DB
}

func NewAddressRepository(db *sqlx.DB) repository.AddressRepository {
	return &addressRepository{db: db}
}

// Create inserts a and makes it the default when a.IsDefault is set or the
// user has no other address. Clearing the previous default happens in the
// same transaction.
func (r *addressRepository) Create(ctx context.Context, a *domain.Address) error {
	now := time.Now().UTC()
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var existing int
		if err := tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID); err != nil {
			return err
		}
		isDefault := a.IsDefault || existing == 0
		if isDefault {
			if err := clearDefault(ctx, tx, a.UserID, 0, now); err != nil {
				return err
			}
		}
		query := `INSERT INTO addresses (user_id, label, street, city, province, postal_code, latitude, longitude, is_default, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) RETURNING id`
		err := tx.QueryRowxContext(ctx, query, a.UserID, a.Label, a.Street, a.City, a.Province, a.PostalCode,
			a.Latitude, a.Longitude, isDefault, now).Scan(&a.ID)
		if err != nil {
			return mapError(err, "address")
		}
		a.IsDefault = isDefault
		a.CreatedAt = now
		a.UpdatedAt = now
		return nil
	})
}

func (r *addressRepository) GetByID(ctx context.Context, id int32) (*domain.Address, error) {
	a := &domain.Address{}
	if err := r.db.GetContext(ctx, a, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "address")
	}
	return a, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID int32) ([]domain.Address, error) {
	addresses := []domain.Address{}
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id`
	if err := r.db.SelectContext(ctx, &addresses, query, userID); err != nil {
		return nil, err
	}
	return addresses, nil
}

// Update saves a. Setting IsDefault takes the default flag from the user's
// other addresses; clearing it is ignored so a user never loses the default.
func (r *addressRepository) Update(ctx context.Context, a *domain.Address) error {
	now := time.Now().UTC()
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.UserID, a.ID, now); err != nil {
				return err
			}
		}
		err := tx.QueryRowxContext(ctx,
			`UPDATE addresses SET label=$1, street=$2, city=$3, province=$4, postal_code=$5, latitude=$6, longitude=$7,
			        is_default = is_default OR $8, updated_at=$9
			 WHERE id=$10 AND user_id=$11 RETURNING is_default`,
			a.Label, a.Street, a.City, a.Province, a.PostalCode, a.Latitude, a.Longitude, a.IsDefault, now, a.ID, a.UserID).
			Scan(&a.IsDefault)
		if err != nil {
			return mapError(err, "address")
		}
		a.UpdatedAt = now
		return nil
	})
}

// Delete removes the address and, when it was the default, promotes the
// oldest remaining one.
func (r *addressRepository) Delete(ctx context.Context, id, userID int32) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var wasDefault bool
		err := tx.QueryRowxContext(ctx,
			`DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default`, id, userID).Scan(&wasDefault)
		if err != nil {
			return mapError(err, "address")
		}
		if !wasDefault {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE addresses SET is_default=TRUE, updated_at=$1
			 WHERE id = (SELECT id FROM addresses WHERE user_id = $2 ORDER BY id LIMIT 1)`,
			time.Now().UTC(), userID)
		return err
	})
}

func (r *addressRepository) SetDefault(ctx context.Context, userID, addressID int32) error {
	now := time.Now().UTC()
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := clearDefault(ctx, tx, userID, addressID, now); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default=TRUE, updated_at=$1 WHERE id=$2 AND user_id=$3`, now, addressID, userID)
		if err != nil {
			return err
		}
		return expectAffected(res, "address")
	})
}

// clearDefault unsets the default flag on every address of userID except keepID.
func clearDefault(ctx context.Context, tx *sqlx.Tx, userID, keepID int32, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default=FALSE, updated_at=$1 WHERE user_id=$2 AND is_default AND id <> $3`,
		now, userID, keepID)
	return err
}
