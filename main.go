package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abeme/echospace/config"
	"github.com/abeme/echospace/controller"
	"github.com/abeme/echospace/entity"
	"github.com/abeme/echospace/middleware"
	"github.com/abeme/echospace/service"
	"github.com/abeme/echospace/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	db, err := openDB(cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Follow{},
		&entity.Chat{},
		&entity.Message{},
		&entity.Post{},
		&entity.Like{},
		&entity.Comment{},
	); err != nil {
		logger.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	// redis is optional; without it message push stays worker-local
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Error("failed to create upload dir", "err", err)
		os.Exit(1)
	}

	// services
	userSvc := service.NewUserService(db)
	chatSvc := service.NewChatService(db)
	msgSvc := service.NewMessageService(db)
	postSvc := service.NewPostService(db)
	commentSvc := service.NewCommentService(db)

	// ws hub (init before controllers needing it)
	hub := ws.NewHub(rdb, logger)
	defer hub.Close()

	// controllers
	authCtrl := controller.NewAuthController(userSvc, cfg.SecretKey, logger)
	userCtrl := controller.NewUserController(userSvc, logger)
	postCtrl := controller.NewPostController(postSvc, logger)
	commentCtrl := controller.NewCommentController(commentSvc, logger)
	msgCtrl := controller.NewMessageController(msgSvc, chatSvc, hub, logger)
	uploadCtrl := controller.NewUploadController(cfg.UploadDir, logger)

	r := gin.Default()

	api := r.Group("/api")
	api.POST("/user/register", authCtrl.Register)
	api.POST("/user/login", authCtrl.Login)

	auth := api.Group("")
	auth.Use(middleware.Auth(cfg.SecretKey))
	auth.GET("/user/:id/profile", userCtrl.GetProfile)
	auth.GET("/user/:id/miniprofile", userCtrl.GetMiniProfile)
	auth.GET("/user/search/:query", userCtrl.Search)
	auth.POST("/user/updateProfile", userCtrl.UpdateProfile)
	auth.POST("/user/:id/followToggle", userCtrl.ToggleFollow)
	auth.DELETE("/user/delete", userCtrl.Delete)

	auth.POST("/post/create", postCtrl.Create)
	auth.GET("/post/user/:username", postCtrl.GetUserPosts)
	auth.GET("/post/:id/get", postCtrl.GetByID)
	auth.GET("/post/followed", postCtrl.GetFollowed)
	auth.GET("/post/:id/like", postCtrl.Like)
	auth.DELETE("/post/delete/:id", postCtrl.Delete)

	auth.POST("/comment/create", commentCtrl.Create)
	auth.GET("/comment/getAll/:postId", commentCtrl.GetAll)
	auth.DELETE("/comment/:id/comment/:commentId", commentCtrl.Delete)

	auth.POST("/message/send", msgCtrl.Send)
	auth.GET("/message/all/:id", msgCtrl.GetMessages)
	auth.DELETE("/message/delete/:id", msgCtrl.Delete)
	auth.GET("/message/chats", msgCtrl.GetChats)
	auth.POST("/message/createChat", msgCtrl.CreateChat)

	auth.POST("/upload", uploadCtrl.Upload)
	r.Static("/uploads", cfg.UploadDir)

	r.GET("/ws", func(c *gin.Context) {
		ws.ServeWS(hub, c)
	})

	logger.Info("starting server", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// openDB prefers Postgres when DATABASE_URL is set and falls back to the
// SQLite file otherwise. TranslateError makes duplicate-key failures
// surface as gorm.ErrDuplicatedKey on both drivers.
func openDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.DatabaseURL != "" {
		logger.Info("opening postgres database")
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	}
	logger.Info("opening sqlite database", "file", cfg.DBFile)
	return gorm.Open(sqlite.Open(cfg.DBFile), gormCfg)
}
