package entity

import "time"

// Comment optionally references a parent comment for single-level replies.
type Comment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Author        string    `json:"author" gorm:"index;size:50"`
	PostID        uint      `json:"post" gorm:"index"`
	Text          string    `json:"text" gorm:"size:500"`
	ParentComment *uint     `json:"parent_comment"`
	CreatedAt     time.Time `json:"time"`
}

type CreateCommentRequest struct {
	PostID        uint   `json:"postId" binding:"required"`
	Text          string `json:"text" binding:"required,max=500"`
	ParentComment *uint  `json:"parentComment"`
}
