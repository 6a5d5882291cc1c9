package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abeme/echospace/controller"
	"github.com/abeme/echospace/entity"
	"github.com/abeme/echospace/middleware"
	"github.com/abeme/echospace/service"
	"github.com/abeme/echospace/ws"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.Follow{}, &entity.Chat{}, &entity.Message{},
		&entity.Post{}, &entity.Like{}, &entity.Comment{},
	))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userSvc := service.NewUserService(db)
	chatSvc := service.NewChatService(db)
	msgSvc := service.NewMessageService(db)
	postSvc := service.NewPostService(db)
	commentSvc := service.NewCommentService(db)
	hub := ws.NewHub(nil, logger)
	t.Cleanup(hub.Close)

	authCtrl := controller.NewAuthController(userSvc, testSecret, logger)
	userCtrl := controller.NewUserController(userSvc, logger)
	postCtrl := controller.NewPostController(postSvc, logger)
	commentCtrl := controller.NewCommentController(commentSvc, logger)
	msgCtrl := controller.NewMessageController(msgSvc, chatSvc, hub, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/user/register", authCtrl.Register)
	api.POST("/user/login", authCtrl.Login)

	auth := api.Group("")
	auth.Use(middleware.Auth(testSecret))
	auth.GET("/user/:id/profile", userCtrl.GetProfile)
	auth.POST("/user/:id/followToggle", userCtrl.ToggleFollow)
	auth.POST("/post/create", postCtrl.Create)
	auth.GET("/post/:id/like", postCtrl.Like)
	auth.POST("/comment/create", commentCtrl.Create)
	auth.GET("/comment/getAll/:postId", commentCtrl.GetAll)
	auth.POST("/message/send", msgCtrl.Send)
	auth.GET("/message/all/:id", msgCtrl.GetMessages)
	auth.GET("/message/chats", msgCtrl.GetChats)
	auth.POST("/message/createChat", msgCtrl.CreateChat)

	r.GET("/ws", func(c *gin.Context) {
		ws.ServeWS(hub, c)
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	resp := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func register(t *testing.T, r http.Handler, username string, phone string) {
	t.Helper()
	w, _ := do(t, r, http.MethodPost, "/api/user/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret",
		"phone":    phone,
		"name":     username,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func login(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	w, resp := do(t, r, http.MethodPost, "/api/user/login", "", gin.H{
		"username": username,
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing fields", gin.H{"username": "alice"}},
		{"malformed email", gin.H{"username": "alice", "email": "not-an-email", "password": "x", "phone": "1234567890", "name": "Alice"}},
		{"short phone", gin.H{"username": "alice", "email": "a@example.com", "password": "x", "phone": "12345", "name": "Alice"}},
		{"letters in phone", gin.H{"username": "alice", "email": "a@example.com", "password": "x", "phone": "12345abcde", "name": "Alice"}},
		{"oversized username", gin.H{"username": strings.Repeat("a", 51), "email": "a@example.com", "password": "x", "phone": "1234567890", "name": "Alice"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := do(t, r, http.MethodPost, "/api/user/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, resp["success"])
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "1234567890")

	w, _ := do(t, r, http.MethodPost, "/api/user/register", "", gin.H{
		"username": "alice", "email": "new@example.com", "password": "x", "phone": "0000000001", "name": "A",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/user/register", "", gin.H{
		"username": "bob", "email": "alice@example.com", "password": "x", "phone": "0000000002", "name": "B",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/user/register", "", gin.H{
		"username": "carol", "email": "carol@example.com", "password": "x", "phone": "1234567890", "name": "C",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthGate(t *testing.T) {
	r := newTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/api/message/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/message/chats", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "1234567890")

	w, _ := do(t, r, http.MethodPost, "/api/user/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatAndMessageFlow(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "1111111111")
	register(t, r, "bob", "2222222222")
	alice := login(t, r, "alice")

	srv := httptest.NewServer(r)
	defer srv.Close()

	// bob connects to the live channel
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?username=bob"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the connect broadcast arrives first
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var online ws.Event
	require.NoError(t, conn.ReadJSON(&online))
	assert.Equal(t, "getOnlineUsers", online.Event)

	w, resp := do(t, r, http.MethodPost, "/api/message/createChat", alice, gin.H{"receiverId": "bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	chatID := resp["chatId"].(float64)
	require.NotZero(t, chatID)

	// the identical call must not mint a second chat
	w, _ = do(t, r, http.MethodPost, "/api/message/createChat", alice, gin.H{"receiverId": "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = do(t, r, http.MethodPost, "/api/message/send", alice, gin.H{
		"chatId":      chatID,
		"text":        "hi",
		"receiverIds": []string{"bob"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, resp["success"])

	// bob receives the push
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var pushed ws.Event
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, "newMessage", pushed.Event)
	data := pushed.Data.(map[string]interface{})
	assert.Equal(t, "hi", data["text"])
	assert.Equal(t, "alice", data["sender"])

	// and the history read path has it too
	w, resp = do(t, r, http.MethodGet, fmt.Sprintf("/api/message/all/%.0f", chatID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := resp["messages"].([]interface{})
	require.Len(t, msgs, 1)
}

func TestSendToUnknownChat(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "1111111111")
	alice := login(t, r, "alice")

	w, _ := do(t, r, http.MethodPost, "/api/message/send", alice, gin.H{
		"chatId": 42, "text": "hi", "receiverIds": []string{"bob"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelfChatRejected(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "1111111111")
	alice := login(t, r, "alice")

	w, _ := do(t, r, http.MethodPost, "/api/message/createChat", alice, gin.H{"receiverId": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostLikeToggleOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "1111111111")
	alice := login(t, r, "alice")

	w, resp := do(t, r, http.MethodPost, "/api/post/create", alice, gin.H{"text": "hello world"})
	require.Equal(t, http.StatusCreated, w.Code)
	post := resp["post"].(map[string]interface{})
	postID := post["id"].(float64)

	w, resp = do(t, r, http.MethodGet, fmt.Sprintf("/api/post/%.0f/like", postID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["isLiked"])

	w, resp = do(t, r, http.MethodGet, fmt.Sprintf("/api/post/%.0f/like", postID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["isLiked"])
}
