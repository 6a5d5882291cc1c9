package service

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/abeme/echospace/entity"
)

var ErrPostNotFound = errors.New("post not found")

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

func (s *PostService) Create(author, text, media string) (*entity.Post, error) {
	var post *entity.Post
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&entity.User{}).Where("username = ?", author).Count(&cnt).Error; err != nil {
			return errors.Wrap(err, "postService.Create.CheckUser")
		}
		if cnt == 0 {
			return ErrUserNotFound
		}
		post = &entity.Post{Author: author, Text: text, Media: media}
		if err := tx.Create(post).Error; err != nil {
			return errors.Wrap(err, "postService.Create.Insert")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	post.LikedBy = []string{}
	return post, nil
}

// GetUserPosts returns a user's posts newest first with liked_by filled in.
func (s *PostService) GetUserPosts(username string) ([]entity.Post, error) {
	var posts []entity.Post
	if err := s.db.Where("author = ?", username).Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, errors.Wrap(err, "postService.GetUserPosts")
	}
	if err := s.fillLikedBy(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) GetByID(id uint) (*entity.Post, error) {
	var post entity.Post
	if err := s.db.Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, errors.Wrap(err, "postService.GetByID")
	}
	posts := []entity.Post{post}
	if err := s.fillLikedBy(posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// GetFollowedPosts returns posts authored by users the caller follows,
// newest first.
func (s *PostService) GetFollowedPosts(username string) ([]entity.Post, error) {
	followed := s.db.Model(&entity.Follow{}).Select("followed").Where("follower = ?", username)
	var posts []entity.Post
	if err := s.db.Where("author IN (?)", followed).Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, errors.Wrap(err, "postService.GetFollowedPosts")
	}
	if err := s.fillLikedBy(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Delete removes the post together with its likes and comments.
func (s *PostService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&entity.Like{}).Error; err != nil {
			return errors.Wrap(err, "postService.Delete.Likes")
		}
		if err := tx.Where("post_id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
			return errors.Wrap(err, "postService.Delete.Comments")
		}
		res := tx.Where("id = ?", id).Delete(&entity.Post{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "postService.Delete.Post")
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// ToggleLike flips the (user, post) like row and reports the resulting
// state. A racing insert that loses to the unique index is treated as
// already-liked rather than an error.
func (s *PostService) ToggleLike(user string, postID uint) (bool, error) {
	var cnt int64
	if err := s.db.Model(&entity.Post{}).Where("id = ?", postID).Count(&cnt).Error; err != nil {
		return false, errors.Wrap(err, "postService.ToggleLike.CheckPost")
	}
	if cnt == 0 {
		return false, ErrPostNotFound
	}
	var existing entity.Like
	err := s.db.Where("username = ? AND post_id = ?", user, postID).First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.Delete(&existing).Error; err != nil {
			return false, errors.Wrap(err, "postService.ToggleLike.Delete")
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := &entity.Like{User: user, Post: postID}
		if err := s.db.Create(like).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return true, nil
			}
			return false, errors.Wrap(err, "postService.ToggleLike.Insert")
		}
		return true, nil
	default:
		return false, errors.Wrap(err, "postService.ToggleLike.Lookup")
	}
}

func (s *PostService) fillLikedBy(posts []entity.Post) error {
	for i := range posts {
		posts[i].LikedBy = []string{}
	}
	if len(posts) == 0 {
		return nil
	}
	ids := lo.Map(posts, func(p entity.Post, _ int) uint { return p.ID })
	var likes []entity.Like
	if err := s.db.Where("post_id IN ?", ids).Find(&likes).Error; err != nil {
		return errors.Wrap(err, "postService.fillLikedBy")
	}
	byPost := lo.GroupBy(likes, func(l entity.Like) uint { return l.Post })
	for i := range posts {
		for _, l := range byPost[posts[i].ID] {
			posts[i].LikedBy = append(posts[i].LikedBy, l.User)
		}
	}
	return nil
}
