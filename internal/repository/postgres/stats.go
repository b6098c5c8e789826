package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type statsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func revenueStatuses() pq.StringArray {
	out := make(pq.StringArray, len(domain.RevenueStatuses))
	for i, s := range domain.RevenueStatuses {
		out[i] = string(s)
	}
	return out
}

func (r *statsRepository) countBy(ctx context.Context, query string, args ...any) ([]domain.CountBy, error) {
	rows := []domain.CountBy{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *statsRepository) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var (
		s   domain.AdminStats
		err error
	)
	if s.UsersByType, err = r.countBy(ctx,
		`SELECT user_type AS key, COUNT(*) AS count FROM users WHERE deleted_at IS NULL GROUP BY user_type ORDER BY user_type`); err != nil {
		return nil, err
	}
	if s.UsersByStatus, err = r.countBy(ctx,
		`SELECT account_status AS key, COUNT(*) AS count FROM users WHERE deleted_at IS NULL GROUP BY account_status ORDER BY account_status`); err != nil {
		return nil, err
	}
	if s.EquipmentByStatus, err = r.countBy(ctx,
		`SELECT moderation_status AS key, COUNT(*) AS count FROM equipment WHERE deleted_at IS NULL GROUP BY moderation_status ORDER BY moderation_status`); err != nil {
		return nil, err
	}
	if s.RentalsByStatus, err = r.countBy(ctx,
		`SELECT status AS key, COUNT(*) AS count FROM rentals GROUP BY status ORDER BY status`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &s.Revenue,
		`SELECT COALESCE(SUM(total_amount), 0) FROM rentals WHERE status = ANY($1)`, revenueStatuses()); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *statsRepository) LandlordStats(ctx context.Context, ownerID int32) (*domain.LandlordStats, error) {
	var (
		s   domain.LandlordStats
		err error
	)
	if s.EquipmentByStatus, err = r.countBy(ctx,
		`SELECT moderation_status AS key, COUNT(*) AS count FROM equipment WHERE owner_id = $1 AND deleted_at IS NULL
		 GROUP BY moderation_status ORDER BY moderation_status`, ownerID); err != nil {
		return nil, err
	}
	if s.RentalsByStatus, err = r.countBy(ctx,
		`SELECT status AS key, COUNT(*) AS count FROM rentals WHERE owner_id = $1 GROUP BY status ORDER BY status`, ownerID); err != nil {
		return nil, err
	}
	var earnings decimal.Decimal
	if err := r.db.GetContext(ctx, &earnings,
		`SELECT COALESCE(SUM(total_amount), 0) FROM rentals WHERE owner_id = $1 AND status = ANY($2)`,
		ownerID, revenueStatuses()); err != nil {
		return nil, err
	}
	s.Earnings = earnings
	return &s, nil
}

func (r *statsRepository) ModerationStats(ctx context.Context) (*domain.ModerationStats, error) {
	var (
		s   domain.ModerationStats
		err error
	)
	if s.EquipmentByStatus, err = r.countBy(ctx,
		`SELECT moderation_status AS key, COUNT(*) AS count FROM equipment WHERE deleted_at IS NULL GROUP BY moderation_status ORDER BY moderation_status`); err != nil {
		return nil, err
	}
	if s.EditsByStatus, err = r.countBy(ctx,
		`SELECT status AS key, COUNT(*) AS count FROM equipment_edits GROUP BY status ORDER BY status`); err != nil {
		return nil, err
	}
	counters := []struct {
		dest  *int64
		query string
	}{
		{&s.PendingReceipts, `SELECT COUNT(*) FROM rentals WHERE payment_receipt_status = 'PENDING'`},
		{&s.PendingLandlords, `SELECT COUNT(*) FROM users WHERE account_status = 'PENDING' AND deleted_at IS NULL`},
		{&s.OpenReports, `SELECT COUNT(*) FROM reports WHERE status = 'OPEN'`},
	}
	for _, c := range counters {
		if err := r.db.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
