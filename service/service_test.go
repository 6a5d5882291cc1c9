package service

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abeme/echospace/entity"
)

var phoneSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps concurrent transactions from tripping over
	// sqlite's locking
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.Follow{},
		&entity.Chat{},
		&entity.Message{},
		&entity.Post{},
		&entity.Like{},
		&entity.Comment{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) {
	t.Helper()
	u := &entity.User{
		Username: username,
		Name:     username,
		Email:    username + "@example.com",
		Mobileno: fmt.Sprintf("%010d", atomic.AddInt64(&phoneSeq, 1)),
		Password: "x",
	}
	require.NoError(t, db.Create(u).Error)
}
