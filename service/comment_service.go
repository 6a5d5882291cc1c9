package service

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/abeme/echospace/entity"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Add verifies the author, post and optional parent comment inside one
// transaction before inserting.
func (s *CommentService) Add(author string, req entity.CreateCommentRequest) (*entity.Comment, error) {
	var comment *entity.Comment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&entity.User{}).Where("username = ?", author).Count(&cnt).Error; err != nil {
			return errors.Wrap(err, "commentService.Add.CheckUser")
		}
		if cnt == 0 {
			return ErrUserNotFound
		}
		if err := tx.Model(&entity.Post{}).Where("id = ?", req.PostID).Count(&cnt).Error; err != nil {
			return errors.Wrap(err, "commentService.Add.CheckPost")
		}
		if cnt == 0 {
			return ErrPostNotFound
		}
		if req.ParentComment != nil {
			if err := tx.Model(&entity.Comment{}).Where("id = ?", *req.ParentComment).Count(&cnt).Error; err != nil {
				return errors.Wrap(err, "commentService.Add.CheckParent")
			}
			if cnt == 0 {
				return ErrCommentNotFound
			}
		}
		comment = &entity.Comment{
			Author:        author,
			PostID:        req.PostID,
			Text:          req.Text,
			ParentComment: req.ParentComment,
		}
		if err := tx.Create(comment).Error; err != nil {
			return errors.Wrap(err, "commentService.Add.Insert")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) GetAll(postID uint) ([]entity.Comment, error) {
	var comments []entity.Comment
	if err := s.db.Where("post_id = ?", postID).Find(&comments).Error; err != nil {
		return nil, errors.Wrap(err, "commentService.GetAll")
	}
	return comments, nil
}

func (s *CommentService) Delete(postID, commentID uint) error {
	res := s.db.Where("id = ? AND post_id = ?", commentID, postID).Delete(&entity.Comment{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "commentService.Delete")
	}
	if res.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
