package domain

import "time"

const MaxMessageLength = 2000

type Chat struct {
	ID            int32      `json:"id" db:"id"`
	ParticipantA  int32      `json:"participant_a" db:"participant_a"`
	ParticipantB  int32      `json:"participant_b" db:"participant_b"`
	EquipmentID   *int32     `json:"equipment_id,omitempty" db:"equipment_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" db:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// NewChat orders the participants so a pair maps to a single row.
func NewChat(userID, otherID int32, equipmentID *int32) *Chat {
	a, b := userID, otherID
	if b < a {
		a, b = b, a
	}
	return &Chat{ParticipantA: a, ParticipantB: b, EquipmentID: equipmentID}
}

func (c *Chat) HasParticipant(userID int32) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

func (c *Chat) OtherParticipant(userID int32) int32 {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

type Message struct {
	ID        int32      `json:"id" db:"id"`
	ChatID    int32      `json:"chat_id" db:"chat_id"`
	SenderID  int32      `json:"sender_id" db:"sender_id"`
	Content   string     `json:"content" db:"content"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// ChatSummary is a chat as listed for one participant.
type ChatSummary struct {
	Chat
	LastMessage *string `json:"last_message,omitempty" db:"last_message"`
	UnreadCount int32   `json:"unread_count" db:"unread_count"`
}
