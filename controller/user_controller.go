package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abeme/echospace/entity"
	"github.com/abeme/echospace/middleware"
	"github.com/abeme/echospace/service"
)

type UserController struct {
	svc    service.UserService
	logger *slog.Logger
}

func NewUserController(svc service.UserService, logger *slog.Logger) *UserController {
	return &UserController{svc: svc, logger: logger}
}

func (u *UserController) GetProfile(c *gin.Context) {
	username := c.Param("id")
	user, followers, following, err := u.svc.GetProfile(username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found.", "success": false})
			return
		}
		u.logger.Error("get profile failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"user":      user,
		"followers": followers,
		"following": following,
	})
}

func (u *UserController) GetMiniProfile(c *gin.Context) {
	username := c.Param("id")
	user, err := u.svc.GetMiniProfile(username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found.", "success": false})
			return
		}
		u.logger.Error("get miniprofile failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": gin.H{"name": user.Name, "profile_image": user.ProfileImage}})
}

func (u *UserController) Search(c *gin.Context) {
	users, err := u.svc.Search(c.Param("query"))
	if err != nil {
		u.logger.Error("search failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error", "success": false})
		return
	}
	if len(users) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No users found.", "success": false, "users": []string{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func (u *UserController) UpdateProfile(c *gin.Context) {
	var req entity.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
		return
	}
	username := middleware.Username(c)
	err := u.svc.UpdateProfile(username, req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "success": true})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Email is already in use by another user", "success": false})
	case errors.Is(err, service.ErrPhoneTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Phone number is already in use by another user", "success": false})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found.", "success": false})
	default:
		u.logger.Error("update profile failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while updating the profile", "success": false})
	}
}

func (u *UserController) ToggleFollow(c *gin.Context) {
	follower := middleware.Username(c)
	followed := c.Param("id")
	isFollowing, err := u.svc.ToggleFollow(follower, followed)
	switch {
	case err == nil:
		msg := "Unfollowed successfully"
		if isFollowing {
			msg = "Followed successfully"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "success": true})
	case errors.Is(err, service.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"message": "You cannot follow yourself", "success": false})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found.", "success": false})
	default:
		u.logger.Error("follow toggle failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error", "success": false})
	}
}

func (u *UserController) Delete(c *gin.Context) {
	username := middleware.Username(c)
	if err := u.svc.Delete(username); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found.", "success": false})
			return
		}
		u.logger.Error("account delete failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while deleting the account.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully.", "success": true})
}
