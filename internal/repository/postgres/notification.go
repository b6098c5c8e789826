package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const notificationColumns = `id, user_id, type, level, title, message, data, is_read, read_at, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

// encodeData fills RawData from Data; the column holds a JSON string.
func encodeData(n *domain.Notification) error {
	if len(n.Data) == 0 {
		n.RawData = sql.NullString{}
		return nil
	}
	raw, err := json.Marshal(n.Data)
	if err != nil {
		return err
	}
	n.RawData = sql.NullString{String: string(raw), Valid: true}
	return nil
}

func decodeData(n *domain.Notification) {
	if !n.RawData.Valid || n.RawData.String == "" {
		return
	}
	if err := json.Unmarshal([]byte(n.RawData.String), &n.Data); err != nil {
		logger.Warn("Failed to decode notification data", "notificationID", n.ID, "error", err)
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "type", n.Type, "title", n.Title)
	if err := encodeData(n); err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal data")
		return err
	}
	if n.Level == "" {
		n.Level = domain.NotificationLevelInfo
	}
	n.CreatedAt = time.Now().UTC()

	query := `INSERT INTO notifications (user_id, type, level, title, message, data, is_read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID)
	err := r.db.QueryRowxContext(ctx, query, n.UserID, n.Type, n.Level, n.Title, n.Message, n.RawData, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userID", n.UserID)
		return mapError(err, "notification")
	}
	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

func (r *notificationRepository) CreateMany(ctx context.Context, notes []*domain.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	logger.EnterMethod("notificationRepository.CreateMany", "count", len(notes))
	now := time.Now().UTC()
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `INSERT INTO notifications (user_id, type, level, title, message, data, is_read, created_at)
		          VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7) RETURNING id`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, n := range notes {
			if err := encodeData(n); err != nil {
				return err
			}
			if n.Level == "" {
				n.Level = domain.NotificationLevelInfo
			}
			n.CreatedAt = now
			if err := stmt.QueryRowxContext(ctx, n.UserID, n.Type, n.Level, n.Title, n.Message, n.RawData, now).Scan(&n.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.CreateMany", err)
		return err
	}
	logger.ExitMethod("notificationRepository.CreateMany", "count", len(notes))
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error) {
	var w whereBuilder
	w.add("user_id = ?", userID)
	if unreadOnly {
		w.addRaw("NOT is_read")
	}
	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}
	notes := []domain.Notification{}
	query := `SELECT ` + notificationColumns + ` FROM notifications` + w.String() + ` ORDER BY created_at DESC, id DESC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &notes, query, w.args...); err != nil {
		return nil, 0, err
	}
	for i := range notes {
		decodeData(&notes[i])
	}
	return notes, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID int32) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID)
	return n, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $1) WHERE id = $2 AND user_id = $3`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, "notification")
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int32) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = $1 WHERE user_id = $2 AND NOT is_read`,
		time.Now().UTC(), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, "notification")
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	logger.DatabaseCall("DELETE", "notifications", "before", before)
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE is_read AND created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("DELETE", n, err)
	return n, err
}
