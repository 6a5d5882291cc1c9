package service

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/abeme/echospace/entity"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotParticipant  = errors.New("sender is not a participant of this chat")
)

// MessageService defines operations for direct messages.
type MessageService interface {
	Send(sender string, chatID uint, text string) (*entity.Message, error)
	List(chatID uint) ([]entity.Message, error)
	Delete(id uint) error
}

type DBMessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *DBMessageService {
	return &DBMessageService{db: db}
}

// Send persists a message after verifying the chat exists and the sender
// is one of its two participants.
func (s *DBMessageService) Send(sender string, chatID uint, text string) (*entity.Message, error) {
	var chat entity.Chat
	if err := s.db.Where("id = ?", chatID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, errors.Wrap(err, "messageService.Send.Chat")
	}
	var cnt int64
	if err := s.db.Model(&entity.User{}).Where("username = ?", sender).Count(&cnt).Error; err != nil {
		return nil, errors.Wrap(err, "messageService.Send.Sender")
	}
	if cnt == 0 {
		return nil, ErrUserNotFound
	}
	if chat.User1 != sender && chat.User2 != sender {
		return nil, ErrNotParticipant
	}

	msg := &entity.Message{ChatID: chatID, Sender: sender, Text: text}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, errors.Wrap(err, "messageService.Send.Insert")
	}
	return msg, nil
}

// List returns chat history in ascending time order.
func (s *DBMessageService) List(chatID uint) ([]entity.Message, error) {
	var msgs []entity.Message
	if err := s.db.Where("chat_id = ?", chatID).Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, errors.Wrap(err, "messageService.List")
	}
	return msgs, nil
}

func (s *DBMessageService) Delete(id uint) error {
	res := s.db.Where("id = ?", id).Delete(&entity.Message{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "messageService.Delete")
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
