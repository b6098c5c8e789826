package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

const chatColumns = `id, participant_a, participant_b, equipment_id, last_message_at, created_at`

type chatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) GetOrCreate(ctx context.Context, c *domain.Chat) (*domain.Chat, error) {
	// The conflict target mirrors chats_pair_key.
	insert := `INSERT INTO chats (participant_a, participant_b, equipment_id, created_at)
	           VALUES ($1, $2, $3, $4)
	           ON CONFLICT (participant_a, participant_b, COALESCE(equipment_id, 0)) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, c.ParticipantA, c.ParticipantB, c.EquipmentID, time.Now().UTC()); err != nil {
		return nil, mapError(err, "chat")
	}
	out := &domain.Chat{}
	query := `SELECT ` + chatColumns + ` FROM chats
	          WHERE participant_a = $1 AND participant_b = $2 AND COALESCE(equipment_id, 0) = COALESCE($3, 0)`
	if err := r.db.GetContext(ctx, out, query, c.ParticipantA, c.ParticipantB, c.EquipmentID); err != nil {
		return nil, mapError(err, "chat")
	}
	return out, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id int32) (*domain.Chat, error) {
	c := &domain.Chat{}
	if err := r.db.GetContext(ctx, c, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "chat")
	}
	return c, nil
}

func (r *chatRepository) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.ChatSummary, int32, error) {
	var total int32
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM chats WHERE participant_a = $1 OR participant_b = $1`, userID); err != nil {
		return nil, 0, err
	}
	query := `SELECT c.id, c.participant_a, c.participant_b, c.equipment_id, c.last_message_at, c.created_at,
	          (SELECT m.content FROM messages m WHERE m.chat_id = c.id ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_message,
	          (SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id AND m.sender_id <> $1 AND m.read_at IS NULL) AS unread_count
	          FROM chats c WHERE c.participant_a = $1 OR c.participant_b = $1
	          ORDER BY COALESCE(c.last_message_at, c.created_at) DESC, c.id DESC` + pageClause(page, pageSize)
	chats := []domain.ChatSummary{}
	if err := r.db.SelectContext(ctx, &chats, query, userID); err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	m.CreatedAt = time.Now().UTC()
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO messages (chat_id, sender_id, content, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			m.ChatID, m.SenderID, m.Content, m.CreatedAt).Scan(&m.ID)
		if err != nil {
			return mapError(err, "message")
		}
		_, err = tx.ExecContext(ctx, `UPDATE chats SET last_message_at = $1 WHERE id = $2`, m.CreatedAt, m.ChatID)
		return err
	})
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID int32, page, pageSize int32) ([]domain.Message, int32, error) {
	var total int32
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE chat_id = $1`, chatID); err != nil {
		return nil, 0, err
	}
	messages := []domain.Message{}
	query := `SELECT id, chat_id, sender_id, content, read_at, created_at FROM messages WHERE chat_id = $1
	          ORDER BY created_at DESC, id DESC` + pageClause(page, pageSize)
	if err := r.db.SelectContext(ctx, &messages, query, chatID); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *chatRepository) MarkRead(ctx context.Context, chatID, readerID int32) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at = $1 WHERE chat_id = $2 AND sender_id <> $3 AND read_at IS NULL`,
		time.Now().UTC(), chatID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
