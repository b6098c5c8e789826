package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type favoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) repository.FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, equipmentID int32) (*domain.Favorite, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, equipment_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, equipment_id) DO NOTHING`,
		userID, equipmentID, time.Now().UTC()); err != nil {
		return nil, mapError(err, "favorite")
	}
	fav := &domain.Favorite{}
	if err := r.db.GetContext(ctx, fav,
		`SELECT id, user_id, equipment_id, created_at FROM favorites WHERE user_id = $1 AND equipment_id = $2`,
		userID, equipmentID); err != nil {
		return nil, mapError(err, "favorite")
	}
	return fav, nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, equipmentID int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND equipment_id = $2`, userID, equipmentID)
	if err != nil {
		return err
	}
	return expectAffected(res, "favorite")
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, equipmentID int32) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND equipment_id = $2)`, userID, equipmentID)
	return exists, err
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Equipment, int32, error) {
	var total int32
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM favorites f JOIN equipment e ON e.id = f.equipment_id WHERE f.user_id = $1 AND e.deleted_at IS NULL`,
		userID); err != nil {
		return nil, 0, err
	}
	query := `SELECT e.id, e.owner_id, e.category_id, e.title, e.description, e.daily_rate, e.price_period, e.condition,
	          e.images, e.province, e.city, e.address, e.latitude, e.longitude, e.is_available, e.views,
	          e.moderation_status, e.moderated_by, e.moderated_at, e.rejection_reason, e.created_at, e.updated_at, e.deleted_at
	          FROM favorites f JOIN equipment e ON e.id = f.equipment_id
	          WHERE f.user_id = $1 AND e.deleted_at IS NULL
	          ORDER BY f.created_at DESC, f.id DESC` + pageClause(page, pageSize)
	items := []domain.Equipment{}
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type cartRepository struct {
	db *sqlx.DB
}

func NewCartRepository(db *sqlx.DB) repository.CartRepository {
	return &cartRepository{db: db}
}

const cartColumns = `id, user_id, equipment_id, start_date, end_date, notes, created_at, updated_at`

func (r *cartRepository) Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	now := time.Now().UTC()
	out := &domain.CartItem{}
	query := `INSERT INTO cart_items (user_id, equipment_id, start_date, end_date, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $6)
	          ON CONFLICT (user_id, equipment_id)
	          DO UPDATE SET start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
	          RETURNING ` + cartColumns
	if err := r.db.GetContext(ctx, out, query, item.UserID, item.EquipmentID, item.StartDate, item.EndDate, item.Notes, now); err != nil {
		return nil, mapError(err, "cart item")
	}
	return out, nil
}

func (r *cartRepository) GetByID(ctx context.Context, id int32) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	if err := r.db.GetContext(ctx, item, `SELECT `+cartColumns+` FROM cart_items WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "cart item")
	}
	return item, nil
}

func (r *cartRepository) ListByUser(ctx context.Context, userID int32) ([]domain.CartItem, error) {
	items := []domain.CartItem{}
	if err := r.db.SelectContext(ctx, &items,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at, id`, userID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) Update(ctx context.Context, item *domain.CartItem) error {
	item.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET start_date=$1, end_date=$2, notes=$3, updated_at=$4 WHERE id=$5 AND user_id=$6`,
		item.StartDate, item.EndDate, item.Notes, item.UpdatedAt, item.ID, item.UserID)
	if err != nil {
		return err
	}
	return expectAffected(res, "cart item")
}

func (r *cartRepository) Delete(ctx context.Context, id, userID int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, "cart item")
}

func (r *cartRepository) Clear(ctx context.Context, userID int32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

type reviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewColumns = `id, rental_id, equipment_id, author_id, rating, comment, created_at`

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	rv.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO reviews (rental_id, equipment_id, author_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		rv.RentalID, rv.EquipmentID, rv.AuthorID, rv.Rating, rv.Comment, rv.CreatedAt).Scan(&rv.ID)
	return mapError(err, "review for this rental")
}

func (r *reviewRepository) GetByID(ctx context.Context, id int32) (*domain.Review, error) {
	rv := &domain.Review{}
	if err := r.db.GetContext(ctx, rv, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "review")
	}
	return rv, nil
}

func (r *reviewRepository) ExistsForRental(ctx context.Context, rentalID int32) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM reviews WHERE rental_id = $1)`, rentalID)
	return exists, err
}

func (r *reviewRepository) ListByEquipment(ctx context.Context, equipmentID int32, page, pageSize int32) ([]domain.Review, int32, error) {
	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE equipment_id = $1`, equipmentID); err != nil {
		return nil, 0, err
	}
	reviews := []domain.Review{}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE equipment_id = $1 ORDER BY created_at DESC, id DESC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &reviews, query, equipmentID); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) AverageRating(ctx context.Context, equipmentID int32) (float64, error) {
	var avg float64
	err := r.db.GetContext(ctx, &avg, `SELECT COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE equipment_id = $1`, equipmentID)
	return avg, err
}

func (r *reviewRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "review")
}

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

const reportColumns = `id, reporter_id, target_type, target_id, reason, details, status, resolved_by, resolved_at, resolution_note, created_at`

func (r *reportRepository) Create(ctx context.Context, rp *domain.Report) error {
	rp.Status = domain.ReportStatusOpen
	rp.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO reports (reporter_id, target_type, target_id, reason, details, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		rp.ReporterID, rp.TargetType, rp.TargetID, rp.Reason, rp.Details, rp.Status, rp.CreatedAt).Scan(&rp.ID)
	return mapError(err, "report")
}

func (r *reportRepository) GetByID(ctx context.Context, id int32) (*domain.Report, error) {
	rp := &domain.Report{}
	if err := r.db.GetContext(ctx, rp, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "report")
	}
	return rp, nil
}

func (r *reportRepository) ListByStatus(ctx context.Context, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error) {
	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reports WHERE status = $1`, status); err != nil {
		return nil, 0, err
	}
	reports := []domain.Report{}
	query := `SELECT ` + reportColumns + ` FROM reports WHERE status = $1 ORDER BY created_at ASC, id ASC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &reports, query, status); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepository) Resolve(ctx context.Context, rp *domain.Report) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET status=$1, resolved_by=$2, resolved_at=$3, resolution_note=$4 WHERE id=$5 AND status='OPEN'`,
		rp.Status, rp.ResolvedBy, rp.ResolvedAt, rp.ResolutionNote, rp.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.BadRequest("report is already closed")
	}
	return nil
}

type uploadRepository struct {
	db *sqlx.DB
}

func NewUploadRepository(db *sqlx.DB) repository.UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, u *domain.Upload) error {
	u.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO uploads (user_id, purpose, storage_key, file_name, content_type, size, url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		u.UserID, u.Purpose, u.StorageKey, u.FileName, u.ContentType, u.Size, u.URL, u.CreatedAt).Scan(&u.ID)
	return mapError(err, "upload")
}

func (r *uploadRepository) GetByID(ctx context.Context, id int32) (*domain.Upload, error) {
	u := &domain.Upload{}
	if err := r.db.GetContext(ctx, u,
		`SELECT id, user_id, purpose, storage_key, file_name, content_type, size, url, created_at FROM uploads WHERE id = $1`,
		id); err != nil {
		return nil, mapError(err, "upload")
	}
	return u, nil
}

func (r *uploadRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "upload")
}
