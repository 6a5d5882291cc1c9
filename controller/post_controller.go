package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abeme/echospace/entity"
	"github.com/abeme/echospace/middleware"
	"github.com/abeme/echospace/service"
)

type PostController struct {
	svc    *service.PostService
	logger *slog.Logger
}

func NewPostController(svc *service.PostService, logger *slog.Logger) *PostController {
	return &PostController{svc: svc, logger: logger}
}

func (p *PostController) Create(c *gin.Context) {
	var req entity.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
		return
	}
	author := middleware.Username(c)
	post, err := p.svc.Create(author, req.Text, req.Media)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User does not exist", "success": false})
			return
		}
		p.logger.Error("post create failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred", "success": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "success": true, "post": post})
}

func (p *PostController) GetUserPosts(c *gin.Context) {
	posts, err := p.svc.GetUserPosts(c.Param("username"))
	if err != nil {
		p.logger.Error("get user posts failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while retrieving posts.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

func (p *PostController) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post id", "success": false})
		return
	}
	post, err := p.svc.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found.", "success": false})
			return
		}
		p.logger.Error("get post failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while retrieving the post.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

func (p *PostController) GetFollowed(c *gin.Context) {
	username := middleware.Username(c)
	posts, err := p.svc.GetFollowedPosts(username)
	if err != nil {
		p.logger.Error("get followed posts failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while retrieving posts.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

// Like toggles the caller's like on the post.
func (p *PostController) Like(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post id", "success": false})
		return
	}
	username := middleware.Username(c)
	liked, err := p.svc.ToggleLike(username, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found.", "success": false})
			return
		}
		p.logger.Error("like toggle failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while liking/unliking the post.", "success": false})
		return
	}
	msg := "Post unliked successfully"
	if liked {
		msg = "Post liked successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "isLiked": liked, "success": true})
}

func (p *PostController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post id", "success": false})
		return
	}
	if err := p.svc.Delete(uint(id)); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found.", "success": false})
			return
		}
		p.logger.Error("post delete failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while deleting the post.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully.", "success": true})
}
