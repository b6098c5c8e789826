package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const rentalColumns = `id, reference, equipment_id, renter_id, owner_id, start_date, end_date, daily_rate, price_period,
	total_amount, status, payment_method, payment_status, payment_receipt_url, payment_receipt_status,
	receipt_rejection_reason, receipt_validated_by, receipt_validated_at, notes, cancellation_reason, cancelled_by,
	created_at, updated_at`

type rentalRepository struct {
	db *sqlx.DB
}

func NewRentalRepository(db *sqlx.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Create", "equipmentID", rt.EquipmentID, "renterID", rt.RenterID)
	now := time.Now().UTC()
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		logger.DatabaseCall("UPDATE", "equipment", "equipmentID", rt.EquipmentID)
		res, err := tx.ExecContext(ctx,
			`UPDATE equipment SET is_available=FALSE, updated_at=$1 WHERE id=$2 AND is_available AND deleted_at IS NULL`,
			now, rt.EquipmentID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.BadRequest("equipment is not available for rental")
		}

		query := `INSERT INTO rentals (reference, equipment_id, renter_id, owner_id, start_date, end_date, daily_rate,
		          price_period, total_amount, status, payment_method, payment_status, notes, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14) RETURNING id`
		logger.DatabaseCall("INSERT", "rentals", "equipmentID", rt.EquipmentID)
		return tx.QueryRowxContext(ctx, query, rt.Reference, rt.EquipmentID, rt.RenterID, rt.OwnerID, rt.StartDate,
			rt.EndDate, rt.DailyRate, rt.PricePeriod, rt.TotalAmount, rt.Status, rt.PaymentMethod, rt.PaymentStatus,
			rt.Notes, now).Scan(&rt.ID)
	})
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Create", err, "equipmentID", rt.EquipmentID)
		return mapError(err, "rental")
	}
	rt.CreatedAt = now
	rt.UpdatedAt = now
	logger.ExitMethod("rentalRepository.Create", "rentalID", rt.ID, "reference", rt.Reference)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	rt := &domain.Rental{}
	if err := r.db.GetContext(ctx, rt, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "rental")
	}
	return rt, nil
}

func (r *rentalRepository) Transition(ctx context.Context, rt *domain.Rental, from []domain.RentalStatus, releaseEquipment bool) error {
	logger.EnterMethod("rentalRepository.Transition", "rentalID", rt.ID, "to", rt.Status, "release", releaseEquipment)
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}
	now := time.Now().UTC()
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `UPDATE rentals SET status=$1, payment_status=$2, cancellation_reason=$3, cancelled_by=$4, updated_at=$5
		          WHERE id=$6 AND status = ANY($7)`
		res, err := tx.ExecContext(ctx, query, rt.Status, rt.PaymentStatus, rt.CancellationReason, rt.CancelledBy,
			now, rt.ID, pq.Array(statuses))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		logger.DatabaseResult("UPDATE", n, err, "rentalID", rt.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.BadRequest("rental cannot move to %s from its current status", rt.Status)
		}
		if !releaseEquipment {
			return nil
		}
		_, err = tx.ExecContext(ctx, `UPDATE equipment SET is_available=TRUE, updated_at=$1 WHERE id=$2 AND deleted_at IS NULL`,
			now, rt.EquipmentID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Transition", err, "rentalID", rt.ID)
		return err
	}
	rt.UpdatedAt = now
	logger.ExitMethod("rentalRepository.Transition", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) AttachReceipt(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET payment_receipt_url=$1, payment_receipt_status='PENDING', receipt_rejection_reason='',
	          receipt_validated_by=NULL, receipt_validated_at=NULL, updated_at=$2
	          WHERE id=$3 AND payment_method='RECEIPT' AND status IN ('PENDING', 'APPROVED')
	          AND (payment_receipt_status IS NULL OR payment_receipt_status <> 'APPROVED')`
	rt.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, rt.PaymentReceiptURL, rt.UpdatedAt, rt.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.BadRequest("payment receipt can no longer be uploaded for this rental")
	}
	pending := domain.ModerationPending
	rt.PaymentReceiptStatus = &pending
	rt.ReceiptRejectionReason = ""
	rt.ReceiptValidatedBy = nil
	rt.ReceiptValidatedAt = nil
	return nil
}

func (r *rentalRepository) DecideReceipt(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.DecideReceipt", "rentalID", rt.ID, "decision", rt.ReceiptStatus())
	query := `UPDATE rentals SET payment_receipt_status=$1, receipt_rejection_reason=$2, receipt_validated_by=$3,
	          receipt_validated_at=$4, payment_status=$5, status=$6, updated_at=$7
	          WHERE id=$8 AND payment_receipt_status='PENDING' AND status IN ('PENDING', 'APPROVED')`
	rt.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, rt.PaymentReceiptStatus, rt.ReceiptRejectionReason, rt.ReceiptValidatedBy,
		rt.ReceiptValidatedAt, rt.PaymentStatus, rt.Status, rt.UpdatedAt, rt.ID)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.DecideReceipt", err, "rentalID", rt.ID)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.BadRequest("payment receipt is not pending validation")
	}
	logger.ExitMethod("rentalRepository.DecideReceipt", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) List(ctx context.Context, f domain.RentalFilter, page, pageSize int32) ([]domain.Rental, int32, error) {
	var w whereBuilder
	if f.RenterID != 0 {
		w.add("renter_id = ?", f.RenterID)
	}
	if f.OwnerID != 0 {
		w.add("owner_id = ?", f.OwnerID)
	}
	if f.EquipmentID != 0 {
		w.add("equipment_id = ?", f.EquipmentID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.ReceiptStatus != "" {
		w.add("payment_receipt_status = ?", f.ReceiptStatus)
	}

	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM rentals`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}
	rentals := []domain.Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals` + w.String() + ` ORDER BY created_at DESC, id DESC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &rentals, query, w.args...); err != nil {
		return nil, 0, err
	}
	return rentals, total, nil
}

func (r *rentalRepository) HasOpenForEquipment(ctx context.Context, equipmentID int32) (bool, error) {
	statuses := make([]string, len(domain.OpenRentalStatuses))
	for i, s := range domain.OpenRentalStatuses {
		statuses[i] = string(s)
	}
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM rentals WHERE equipment_id = $1 AND status = ANY($2))`,
		equipmentID, pq.Array(statuses))
	return exists, err
}

func (r *rentalRepository) ListStalePending(ctx context.Context, startedBefore time.Time) ([]domain.Rental, error) {
	rentals := []domain.Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = 'PENDING' AND start_date < $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &rentals, query, startedBefore); err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *rentalRepository) ListFinishedActive(ctx context.Context, endedBefore time.Time) ([]domain.Rental, error) {
	rentals := []domain.Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = 'ACTIVE' AND end_date < $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &rentals, query, endedBefore); err != nil {
		return nil, err
	}
	return rentals, nil
}
