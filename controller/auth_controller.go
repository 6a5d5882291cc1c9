package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abeme/echospace/entity"
	"github.com/abeme/echospace/service"
	"github.com/abeme/echospace/utils"
)

const tokenTTL = 24 * time.Hour

type AuthController struct {
	svc    service.UserService
	secret string
	logger *slog.Logger
}

func NewAuthController(svc service.UserService, secret string, logger *slog.Logger) *AuthController {
	return &AuthController{svc: svc, secret: secret, logger: logger}
}

func (a *AuthController) Register(c *gin.Context) {
	var req entity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
		return
	}
	_, err := a.svc.Register(req.Username, req.Email, req.Password, req.Phone, req.Name)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "success": true})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Username is already taken. Please try a different username.", "success": false})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Email is already registered", "success": false})
	case errors.Is(err, service.ErrPhoneTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Phone number is already registered", "success": false})
	default:
		a.logger.Error("register failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while creating the account", "success": false})
	}
}

func (a *AuthController) Login(c *gin.Context) {
	var req entity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required", "success": false})
		return
	}
	u, err := a.svc.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Incorrect username or password", "success": false})
			return
		}
		a.logger.Error("login failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error", "success": false})
		return
	}
	token, err := utils.GenerateToken(a.secret, u.Username, tokenTTL)
	if err != nil {
		a.logger.Error("token generation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome back %s", u.Username),
		"success": true,
		"token":   token,
		"user":    u.Username,
	})
}
