package service

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/abeme/echospace/entity"
)

var (
	ErrChatExists   = errors.New("chat already exists")
	ErrSelfChat     = errors.New("cannot create chat with yourself")
	ErrChatNotFound = errors.New("chat not found")
)

// ChatService manages direct-message chats between user pairs.
type ChatService interface {
	GetOrCreate(a, b string) (*entity.Chat, error)
	ListForUser(username string) ([]entity.Chat, error)
}

type DBChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *DBChatService {
	return &DBChatService{db: db}
}

// GetOrCreate creates the single chat for the unordered pair {a,b}.
// Existing chats surface as ErrChatExists with the row attached; a racing
// insert that loses to the unique index is converted to the same outcome
// instead of a second row or a 500.
func (s *DBChatService) GetOrCreate(a, b string) (*entity.Chat, error) {
	if a == b {
		return nil, ErrSelfChat
	}
	// normalize so the unique index covers both orderings
	u1, u2 := a, b
	if u2 < u1 {
		u1, u2 = u2, u1
	}

	var chat entity.Chat
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&entity.User{}).Where("username IN ?", []string{a, b}).Count(&cnt).Error; err != nil {
			return errors.Wrap(err, "chatService.GetOrCreate.CheckUsers")
		}
		if cnt != 2 {
			return ErrUserNotFound
		}

		err := tx.Where("(user1 = ? AND user2 = ?) OR (user1 = ? AND user2 = ?)", a, b, b, a).First(&chat).Error
		if err == nil {
			return ErrChatExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "chatService.GetOrCreate.Lookup")
		}

		chat = entity.Chat{User1: u1, User2: u2}
		if err := tx.Create(&chat).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrChatExists
			}
			return errors.Wrap(err, "chatService.GetOrCreate.Insert")
		}
		return nil
	})
	if errors.Is(err, ErrChatExists) {
		// surface the surviving row so callers can report its id
		if chat.ID == 0 {
			if ferr := s.db.Where("user1 = ? AND user2 = ?", u1, u2).First(&chat).Error; ferr != nil {
				return nil, err
			}
		}
		return &chat, err
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *DBChatService) ListForUser(username string) ([]entity.Chat, error) {
	var chats []entity.Chat
	if err := s.db.Where("user1 = ? OR user2 = ?", username, username).Find(&chats).Error; err != nil {
		return nil, errors.Wrap(err, "chatService.ListForUser")
	}
	return chats, nil
}
