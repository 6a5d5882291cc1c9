package entity

import "time"

type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Author    string    `json:"author" gorm:"index;size:50"`
	Text      string    `json:"text" gorm:"size:255"`
	Media     string    `json:"media" gorm:"size:500"`
	CreatedAt time.Time `json:"time"`
	// LikedBy is derived from Like rows at query time, never persisted.
	LikedBy []string `json:"liked_by" gorm:"-"`
}

// Like is the (user, post) join row; the composite unique index makes a
// racing double-insert fail with a duplicate-key error.
type Like struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	User string `json:"user" gorm:"column:username;uniqueIndex:idx_like_pair;size:50"`
	Post uint   `json:"post" gorm:"column:post_id;uniqueIndex:idx_like_pair"`
}

type CreatePostRequest struct {
	Text  string `json:"text" binding:"required,max=255"`
	Media string `json:"media" binding:"omitempty,max=500"`
}
