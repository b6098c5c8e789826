package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const editColumns = `id, equipment_id, submitted_by, title, description, category_id, daily_rate, price_period,
	condition, images, province, city, address, latitude, longitude, status, moderated_by, moderated_at,
	rejection_reason, created_at, updated_at`

type equipmentEditRepository struct {
	db *sqlx.DB
}

func NewEquipmentEditRepository(db *sqlx.DB) repository.EquipmentEditRepository {
	return &equipmentEditRepository{db: db}
}

func (r *equipmentEditRepository) Create(ctx context.Context, ed *domain.EquipmentEdit) error {
	query := `INSERT INTO equipment_edits (equipment_id, submitted_by, title, description, category_id, daily_rate,
	          price_period, condition, images, province, city, address, latitude, longitude, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16) RETURNING id`
	now := time.Now().UTC()
	ed.Status = domain.ModerationPending
	ed.CreatedAt = now
	ed.UpdatedAt = now
	err := r.db.QueryRowxContext(ctx, query, ed.EquipmentID, ed.SubmittedBy, ed.Title, ed.Description, ed.CategoryID,
		ed.DailyRate, ed.PricePeriod, ed.Condition, ed.Images, ed.Province, ed.City, ed.Address, ed.Latitude,
		ed.Longitude, ed.Status, now).Scan(&ed.ID)
	return mapError(err, "pending edit for this equipment")
}

func (r *equipmentEditRepository) GetByID(ctx context.Context, id int32) (*domain.EquipmentEdit, error) {
	ed := &domain.EquipmentEdit{}
	if err := r.db.GetContext(ctx, ed, `SELECT `+editColumns+` FROM equipment_edits WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "equipment edit")
	}
	return ed, nil
}

func (r *equipmentEditRepository) HasPending(ctx context.Context, equipmentID int32) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM equipment_edits WHERE equipment_id = $1 AND status = 'PENDING')`, equipmentID)
	return exists, err
}

func (r *equipmentEditRepository) ListByStatus(ctx context.Context, status domain.ModerationStatus, page, pageSize int32) ([]domain.EquipmentEdit, int32, error) {
	var w whereBuilder
	w.add("status = ?", status)
	return r.list(ctx, w, page, pageSize)
}

func (r *equipmentEditRepository) ListBySubmitter(ctx context.Context, userID int32, page, pageSize int32) ([]domain.EquipmentEdit, int32, error) {
	var w whereBuilder
	w.add("submitted_by = ?", userID)
	return r.list(ctx, w, page, pageSize)
}

func (r *equipmentEditRepository) list(ctx context.Context, w whereBuilder, page, pageSize int32) ([]domain.EquipmentEdit, int32, error) {
	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM equipment_edits`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}
	edits := []domain.EquipmentEdit{}
	query := `SELECT ` + editColumns + ` FROM equipment_edits` + w.String() + ` ORDER BY created_at ASC, id ASC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &edits, query, w.args...); err != nil {
		return nil, 0, err
	}
	return edits, total, nil
}

// Approve marks the edit decided and merges it into the equipment row, which
// is locked and re-read inside the transaction so concurrent availability or
// moderation changes are not overwritten.
func (r *equipmentEditRepository) Approve(ctx context.Context, ed *domain.EquipmentEdit) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentEditRepository.Approve", "editID", ed.ID, "equipmentID", ed.EquipmentID)
	now := time.Now().UTC()
	merged := &domain.Equipment{}
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := decideEdit(ctx, tx, ed, now); err != nil {
			return err
		}
		logger.DatabaseCall("SELECT FOR UPDATE", "equipment", "equipmentID", ed.EquipmentID)
		err := tx.GetContext(ctx, merged,
			`SELECT `+equipmentColumns+` FROM equipment WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, ed.EquipmentID)
		if err != nil {
			return mapError(err, "equipment")
		}
		ed.ApplyTo(merged)
		query := `UPDATE equipment SET category_id=$1, title=$2, description=$3, daily_rate=$4, price_period=$5,
		          condition=$6, images=$7, province=$8, city=$9, address=$10, latitude=$11, longitude=$12, updated_at=$13
		          WHERE id=$14`
		logger.DatabaseCall("UPDATE", "equipment", "equipmentID", merged.ID)
		_, err = tx.ExecContext(ctx, query, merged.CategoryID, merged.Title, merged.Description, merged.DailyRate,
			merged.PricePeriod, merged.Condition, merged.Images, merged.Province, merged.City, merged.Address,
			merged.Latitude, merged.Longitude, now, merged.ID)
		return mapError(err, "equipment")
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentEditRepository.Approve", err, "editID", ed.ID)
		return nil, err
	}
	merged.UpdatedAt = now
	logger.ExitMethod("equipmentEditRepository.Approve", "editID", ed.ID)
	return merged, nil
}

func (r *equipmentEditRepository) Reject(ctx context.Context, ed *domain.EquipmentEdit) error {
	return decideEdit(ctx, r.db, ed, time.Now().UTC())
}

// decideEdit stamps a decision on a PENDING edit.
func decideEdit(ctx context.Context, ex sqlx.ExecerContext, ed *domain.EquipmentEdit, now time.Time) error {
	query := `UPDATE equipment_edits SET status=$1, moderated_by=$2, moderated_at=$3, rejection_reason=$4, updated_at=$5
	          WHERE id=$6 AND status='PENDING'`
	ed.UpdatedAt = now
	res, err := ex.ExecContext(ctx, query, ed.Status, ed.ModeratedBy, ed.ModeratedAt, ed.RejectionReason, now, ed.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.BadRequest("equipment edit is no longer pending")
	}
	return nil
}
