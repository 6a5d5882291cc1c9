package service

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/abeme/echospace/entity"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
	ErrPhoneTaken    = errors.New("phone number already registered")
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrSelfFollow    = errors.New("cannot follow yourself")
)

// UserService abstracts account and follow-edge operations.
type UserService interface {
	Register(username, email, password, phone, name string) (*entity.User, error)
	Authenticate(username, password string) (*entity.User, error)
	GetProfile(username string) (*entity.User, []string, []string, error)
	GetMiniProfile(username string) (*entity.User, error)
	Search(prefix string) ([]string, error)
	UpdateProfile(username string, req entity.UpdateProfileRequest) error
	ToggleFollow(follower, followed string) (bool, error)
	Delete(username string) error
}

type DBUserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *DBUserService {
	return &DBUserService{db: db}
}

func (s *DBUserService) Register(username, email, password, phone, name string) (*entity.User, error) {
	var cnt int64
	if err := s.db.Model(&entity.User{}).Where("username = ?", username).Count(&cnt).Error; err != nil {
		return nil, errors.Wrap(err, "userService.Register.CheckUsername")
	}
	if cnt > 0 {
		return nil, ErrUsernameTaken
	}
	if err := s.db.Model(&entity.User{}).Where("email = ?", email).Count(&cnt).Error; err != nil {
		return nil, errors.Wrap(err, "userService.Register.CheckEmail")
	}
	if cnt > 0 {
		return nil, ErrEmailTaken
	}
	if err := s.db.Model(&entity.User{}).Where("mobileno = ?", phone).Count(&cnt).Error; err != nil {
		return nil, errors.Wrap(err, "userService.Register.CheckPhone")
	}
	if cnt > 0 {
		return nil, ErrPhoneTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "userService.Register.Hash")
	}
	u := &entity.User{
		Username: username,
		Email:    email,
		Mobileno: phone,
		Name:     name,
		Password: string(hash),
	}
	if err := s.db.Create(u).Error; err != nil {
		// a racing registration loses to the unique indexes
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "userService.Register.Insert")
	}
	return u, nil
}

func (s *DBUserService) Authenticate(username, password string) (*entity.User, error) {
	var u entity.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, errors.Wrap(err, "userService.Authenticate")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCreds
	}
	return &u, nil
}

// GetProfile returns the user plus its follower and following username lists.
func (s *DBUserService) GetProfile(username string) (*entity.User, []string, []string, error) {
	var u entity.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrUserNotFound
		}
		return nil, nil, nil, errors.Wrap(err, "userService.GetProfile")
	}
	var following []entity.Follow
	if err := s.db.Where("follower = ?", username).Find(&following).Error; err != nil {
		return nil, nil, nil, errors.Wrap(err, "userService.GetProfile.Following")
	}
	var followers []entity.Follow
	if err := s.db.Where("followed = ?", username).Find(&followers).Error; err != nil {
		return nil, nil, nil, errors.Wrap(err, "userService.GetProfile.Followers")
	}
	followerNames := lo.Map(followers, func(f entity.Follow, _ int) string { return f.Follower })
	followingNames := lo.Map(following, func(f entity.Follow, _ int) string { return f.Followed })
	return &u, followerNames, followingNames, nil
}

func (s *DBUserService) GetMiniProfile(username string) (*entity.User, error) {
	var u entity.User
	if err := s.db.Select("username", "name", "profile_image").Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "userService.GetMiniProfile")
	}
	return &u, nil
}

// Search matches usernames by prefix.
func (s *DBUserService) Search(prefix string) ([]string, error) {
	var users []entity.User
	if err := s.db.Select("username").Where("username LIKE ?", prefix+"%").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "userService.Search")
	}
	return lo.Map(users, func(u entity.User, _ int) string { return u.Username }), nil
}

func (s *DBUserService) UpdateProfile(username string, req entity.UpdateProfileRequest) error {
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		var cnt int64
		if err := s.db.Model(&entity.User{}).Where("email = ? AND username != ?", req.Email, username).Count(&cnt).Error; err != nil {
			return errors.Wrap(err, "userService.UpdateProfile.CheckEmail")
		}
		if cnt > 0 {
			return ErrEmailTaken
		}
		updates["email"] = req.Email
	}
	if req.Mobileno != "" {
		var cnt int64
		if err := s.db.Model(&entity.User{}).Where("mobileno = ? AND username != ?", req.Mobileno, username).Count(&cnt).Error; err != nil {
			return errors.Wrap(err, "userService.UpdateProfile.CheckPhone")
		}
		if cnt > 0 {
			return ErrPhoneTaken
		}
		updates["mobileno"] = req.Mobileno
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrap(err, "userService.UpdateProfile.Hash")
		}
		updates["password"] = string(hash)
	}
	if req.ProfileImage != "" {
		updates["profile_image"] = req.ProfileImage
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.Model(&entity.User{}).Where("username = ?", username).Updates(updates)
	if res.Error != nil {
		return errors.Wrap(res.Error, "userService.UpdateProfile.Update")
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ToggleFollow flips the directed follow edge and reports the resulting
// state (true when following afterwards).
func (s *DBUserService) ToggleFollow(follower, followed string) (bool, error) {
	if follower == followed {
		return false, ErrSelfFollow
	}
	var cnt int64
	if err := s.db.Model(&entity.User{}).Where("username IN ?", []string{follower, followed}).Count(&cnt).Error; err != nil {
		return false, errors.Wrap(err, "userService.ToggleFollow.CheckUsers")
	}
	if cnt != 2 {
		return false, ErrUserNotFound
	}
	var existing entity.Follow
	err := s.db.Where("follower = ? AND followed = ?", follower, followed).First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.Delete(&existing).Error; err != nil {
			return false, errors.Wrap(err, "userService.ToggleFollow.Delete")
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		f := &entity.Follow{Follower: follower, Followed: followed}
		if err := s.db.Create(f).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// a concurrent toggle won the insert; the edge exists
				return true, nil
			}
			return false, errors.Wrap(err, "userService.ToggleFollow.Insert")
		}
		return true, nil
	default:
		return false, errors.Wrap(err, "userService.ToggleFollow.Lookup")
	}
}

// Delete removes the account and cascades posts, likes, comments, follow
// edges, chats and messages in one transaction.
func (s *DBUserService) Delete(username string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var u entity.User
		if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errors.Wrap(err, "userService.Delete.Lookup")
		}

		var posts []entity.Post
		if err := tx.Select("id").Where("author = ?", username).Find(&posts).Error; err != nil {
			return errors.Wrap(err, "userService.Delete.Posts")
		}
		postIDs := lo.Map(posts, func(p entity.Post, _ int) uint { return p.ID })

		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&entity.Like{}).Error; err != nil {
				return errors.Wrap(err, "userService.Delete.PostLikes")
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&entity.Comment{}).Error; err != nil {
				return errors.Wrap(err, "userService.Delete.PostComments")
			}
		}
		if err := tx.Where("username = ?", username).Delete(&entity.Like{}).Error; err != nil {
			return errors.Wrap(err, "userService.Delete.Likes")
		}
		if err := tx.Where("author = ?", username).Delete(&entity.Comment{}).Error; err != nil {
			return errors.Wrap(err, "userService.Delete.Comments")
		}
		if err := tx.Where("author = ?", username).Delete(&entity.Post{}).Error; err != nil {
			return errors.Wrap(err, "userService.Delete.DeletePosts")
		}
		if err := tx.Where("follower = ? OR followed = ?", username, username).Delete(&entity.Follow{}).Error; err != nil {
			return errors.Wrap(err, "userService.Delete.Follows")
		}

		var chats []entity.Chat
		if err := tx.Select("id").Where("user1 = ? OR user2 = ?", username, username).Find(&chats).Error; err != nil {
			return errors.Wrap(err, "userService.Delete.Chats")
		}
		chatIDs := lo.Map(chats, func(c entity.Chat, _ int) uint { return c.ID })
		if len(chatIDs) > 0 {
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&entity.Message{}).Error; err != nil {
				return errors.Wrap(err, "userService.Delete.Messages")
			}
			if err := tx.Where("id IN ?", chatIDs).Delete(&entity.Chat{}).Error; err != nil {
				return errors.Wrap(err, "userService.Delete.DeleteChats")
			}
		}

		if err := tx.Delete(&u).Error; err != nil {
			return errors.Wrap(err, "userService.Delete.DeleteUser")
		}
		return nil
	})
}
