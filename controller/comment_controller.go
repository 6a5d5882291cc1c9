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

type CommentController struct {
	svc    *service.CommentService
	logger *slog.Logger
}

func NewCommentController(svc *service.CommentService, logger *slog.Logger) *CommentController {
	return &CommentController{svc: svc, logger: logger}
}

func (ct *CommentController) Create(c *gin.Context) {
	var req entity.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
		return
	}
	author := middleware.Username(c)
	comment, err := ct.svc.Add(author, req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "success": true, "commentId": comment.ID})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User does not exist", "success": false})
	case errors.Is(err, service.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Post does not exist", "success": false})
	case errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Parent comment does not exist", "success": false})
	default:
		ct.logger.Error("comment create failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while adding the comment", "success": false})
	}
}

func (ct *CommentController) GetAll(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("postId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post id", "success": false})
		return
	}
	comments, err := ct.svc.GetAll(uint(postID))
	if err != nil {
		ct.logger.Error("get comments failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while retrieving comments.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

func (ct *CommentController) Delete(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post id", "success": false})
		return
	}
	commentID, err := strconv.ParseUint(c.Param("commentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid comment id", "success": false})
		return
	}
	if err := ct.svc.Delete(uint(postID), uint(commentID)); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found.", "success": false})
			return
		}
		ct.logger.Error("comment delete failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while deleting the comment.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully.", "success": true})
}
