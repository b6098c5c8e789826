package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type chatService struct {
	chatRepo      repository.ChatRepository
	userRepo      repository.UserRepository
	equipmentRepo repository.EquipmentRepository
	realtime      Realtime
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, equipmentRepo repository.EquipmentRepository, realtime Realtime) ChatService {
	if realtime == nil {
		realtime = nopRealtime{}
	}
	return &chatService{
		chatRepo:      chatRepo,
		userRepo:      userRepo,
		equipmentRepo: equipmentRepo,
		realtime:      realtime,
	}
}

func (s *chatService) Open(ctx context.Context, actor *domain.User, otherUserID int32, equipmentID *int32) (*domain.Chat, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	if otherUserID == actor.ID {
		return nil, domain.BadRequest("cannot start a chat with yourself")
	}
	other, err := s.userRepo.GetByID(ctx, otherUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, err
	}
	if other.DeletedAt != nil {
		return nil, domain.NotFound("user not found")
	}
	if equipmentID != nil {
		eq, err := s.equipmentRepo.GetByID(ctx, *equipmentID)
		if err != nil {
			return nil, err
		}
		if eq.OwnerID != actor.ID && eq.OwnerID != otherUserID {
			return nil, domain.BadRequest("equipment does not belong to either participant")
		}
	}
	return s.chatRepo.GetOrCreate(ctx, domain.NewChat(actor.ID, otherUserID, equipmentID))
}

func (s *chatService) Join(ctx context.Context, actor *domain.User, chatID int32) (*domain.Chat, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(actor.ID) {
		return nil, domain.Forbidden("you are not a participant of this chat")
	}
	return chat, nil
}

func (s *chatService) ListChats(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.ChatSummary, int32, error) {
	if actor == nil {
		return nil, 0, domain.Unauthorized("authentication required")
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.chatRepo.ListByUser(ctx, actor.ID, page, pageSize)
}

func (s *chatService) ListMessages(ctx context.Context, actor *domain.User, chatID int32, page, pageSize int32) ([]domain.Message, int32, error) {
	if _, err := s.Join(ctx, actor, chatID); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.chatRepo.ListMessages(ctx, chatID, page, pageSize)
}

// SendMessage stores the message and pushes it to every socket that joined
// the chat room.
func (s *chatService) SendMessage(ctx context.Context, actor *domain.User, chatID int32, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.BadRequest("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, domain.BadRequest("message cannot exceed %d characters", domain.MaxMessageLength)
	}
	chat, err := s.Join(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{ChatID: chat.ID, SenderID: actor.ID, Content: content}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.realtime.PushToRoom(ChatRoom(chat.ID), EventNewMessage, msg)
	return msg, nil
}

func (s *chatService) MarkRead(ctx context.Context, actor *domain.User, chatID int32) (int64, error) {
	if _, err := s.Join(ctx, actor, chatID); err != nil {
		return 0, err
	}
	return s.chatRepo.MarkRead(ctx, chatID, actor.ID)
}
