package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const equipmentColumns = `id, owner_id, category_id, title, description, daily_rate, price_period, condition, images,
	province, city, address, latitude, longitude, is_available, views, moderation_status, moderated_by, moderated_at,
	rejection_reason, created_at, updated_at, deleted_at`

type equipmentRepository struct {
	db *sqlx.DB
}

func NewEquipmentRepository(db *sqlx.DB) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	logger.EnterMethod("equipmentRepository.Create", "ownerID", e.OwnerID, "title", e.Title)
	query := `INSERT INTO equipment (owner_id, category_id, title, description, daily_rate, price_period, condition,
	          images, province, city, address, latitude, longitude, is_available, moderation_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16) RETURNING id`
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	logger.DatabaseCall("INSERT", "equipment", "ownerID", e.OwnerID)
	err := r.db.QueryRowxContext(ctx, query, e.OwnerID, e.CategoryID, e.Title, e.Description, e.DailyRate,
		e.PricePeriod, e.Condition, e.Images, e.Province, e.City, e.Address, e.Latitude, e.Longitude,
		e.IsAvailable, e.ModerationStatus, now).Scan(&e.ID)
	if err != nil {
		logger.ExitMethodWithError("equipmentRepository.Create", err, "ownerID", e.OwnerID)
		return mapError(err, "equipment")
	}
	logger.ExitMethod("equipmentRepository.Create", "equipmentID", e.ID)
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	e := &domain.Equipment{}
	if err := r.db.GetContext(ctx, e, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "equipment")
	}
	return e, nil
}

func (r *equipmentRepository) Update(ctx context.Context, e *domain.Equipment) error {
	query := `UPDATE equipment SET category_id=$1, title=$2, description=$3, daily_rate=$4, price_period=$5,
	          condition=$6, images=$7, province=$8, city=$9, address=$10, latitude=$11, longitude=$12, updated_at=$13
	          WHERE id=$14 AND deleted_at IS NULL`
	e.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, e.CategoryID, e.Title, e.Description, e.DailyRate, e.PricePeriod,
		e.Condition, e.Images, e.Province, e.City, e.Address, e.Latitude, e.Longitude, e.UpdatedAt, e.ID)
	if err != nil {
		return mapError(err, "equipment")
	}
	return expectAffected(res, "equipment")
}

func (r *equipmentRepository) Moderate(ctx context.Context, e *domain.Equipment) error {
	logger.EnterMethod("equipmentRepository.Moderate", "equipmentID", e.ID, "status", e.ModerationStatus)
	query := `UPDATE equipment SET moderation_status=$1, is_available=$2, moderated_by=$3, moderated_at=$4,
	          rejection_reason=$5, updated_at=$6
	          WHERE id=$7 AND moderation_status='PENDING' AND deleted_at IS NULL`
	e.UpdatedAt = time.Now().UTC()
	logger.DatabaseCall("UPDATE", "equipment", "equipmentID", e.ID)
	res, err := r.db.ExecContext(ctx, query, e.ModerationStatus, e.IsAvailable, e.ModeratedBy, e.ModeratedAt,
		e.RejectionReason, e.UpdatedAt, e.ID)
	if err != nil {
		logger.ExitMethodWithError("equipmentRepository.Moderate", err, "equipmentID", e.ID)
		return err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "equipmentID", e.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.BadRequest("equipment is no longer pending moderation")
	}
	logger.ExitMethod("equipmentRepository.Moderate", "equipmentID", e.ID)
	return nil
}

func (r *equipmentRepository) SetAvailability(ctx context.Context, id int32, available bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE equipment SET is_available=$1, updated_at=$2 WHERE id=$3 AND deleted_at IS NULL`,
		available, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "equipment")
}

func (r *equipmentRepository) SoftDelete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `UPDATE equipment SET deleted_at=$1, is_available=FALSE, updated_at=$1 WHERE id=$2 AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "equipment")
}

func (r *equipmentRepository) IncrementViews(ctx context.Context, id int32) error {
	_, err := r.db.ExecContext(ctx, `UPDATE equipment SET views = views + 1 WHERE id = $1`, id)
	return err
}

func (r *equipmentRepository) Search(ctx context.Context, f domain.EquipmentFilter, page, pageSize int32) ([]domain.Equipment, int32, error) {
	var w whereBuilder
	w.addRaw("deleted_at IS NULL")
	w.add("moderation_status = ?", domain.ModerationApproved)
	if f.CategoryID != 0 {
		w.add("category_id = ?", f.CategoryID)
	}
	if f.Query != "" {
		w.add("(title ILIKE ? OR description ILIKE ?)", "%"+f.Query+"%")
	}
	if f.MinRate != nil {
		w.add("daily_rate >= ?", *f.MinRate)
	}
	if f.MaxRate != nil {
		w.add("daily_rate <= ?", *f.MaxRate)
	}
	if f.PricePeriod != "" {
		w.add("price_period = ?", f.PricePeriod)
	}
	if f.Province != "" {
		w.add("province ILIKE ?", f.Province)
	}
	if f.City != "" {
		w.add("city ILIKE ?", f.City)
	}
	if f.AvailableOnly {
		w.addRaw("is_available")
	}
	if f.Box != nil {
		w.addRaw("latitude IS NOT NULL AND longitude IS NOT NULL")
		w.add("latitude >= ?", f.Box.MinLat)
		w.add("latitude <= ?", f.Box.MaxLat)
		w.add("longitude >= ?", f.Box.MinLon)
		w.add("longitude <= ?", f.Box.MaxLon)
	}
	return r.list(ctx, w, page, pageSize)
}

func (r *equipmentRepository) ListByOwner(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Equipment, int32, error) {
	var w whereBuilder
	w.addRaw("deleted_at IS NULL")
	w.add("owner_id = ?", ownerID)
	return r.list(ctx, w, page, pageSize)
}

func (r *equipmentRepository) ListByModerationStatus(ctx context.Context, status domain.ModerationStatus, page, pageSize int32) ([]domain.Equipment, int32, error) {
	var w whereBuilder
	w.addRaw("deleted_at IS NULL")
	w.add("moderation_status = ?", status)
	return r.list(ctx, w, page, pageSize)
}

func (r *equipmentRepository) list(ctx context.Context, w whereBuilder, page, pageSize int32) ([]domain.Equipment, int32, error) {
	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM equipment`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}
	items := []domain.Equipment{}
	query := `SELECT ` + equipmentColumns + ` FROM equipment` + w.String() + ` ORDER BY created_at DESC, id DESC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *equipmentRepository) CountByCategory(ctx context.Context, categoryID int32) (int32, error) {
	var n int32
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM equipment WHERE category_id = $1 AND deleted_at IS NULL`, categoryID)
	return n, err
}
