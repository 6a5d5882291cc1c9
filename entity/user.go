package entity

// User is keyed by username; the username doubles as the identity carried
// in tokens and presence entries.
type User struct {
	Username     string `json:"username" gorm:"primaryKey;size:50"`
	Name         string `json:"name" gorm:"size:50"`
	Email        string `json:"email" gorm:"uniqueIndex;size:50"`
	Mobileno     string `json:"mobileno" gorm:"uniqueIndex;size:10"`
	Password     string `json:"-" gorm:"size:255"`
	ProfileImage string `json:"profile_image" gorm:"size:255"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=50"`
	Password string `json:"password" binding:"required,max=255"`
	Phone    string `json:"phone" binding:"required,len=10,numeric"`
	Name     string `json:"name" binding:"required,max=50"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries a partial profile edit; empty fields are
// left untouched.
type UpdateProfileRequest struct {
	Name         string `json:"name" binding:"omitempty,max=50"`
	Email        string `json:"email" binding:"omitempty,email,max=50"`
	Mobileno     string `json:"mobileno" binding:"omitempty,len=10,numeric"`
	Password     string `json:"password" binding:"omitempty,max=255"`
	ProfileImage string `json:"profile_image" binding:"omitempty,max=255"`
}

// Follow is a directed edge: Follower follows Followed.
type Follow struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Follower string `json:"follower" gorm:"uniqueIndex:idx_follow_pair;size:50"`
	Followed string `json:"followed" gorm:"uniqueIndex:idx_follow_pair;size:50"`
}
