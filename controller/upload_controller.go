package controller

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 8 MiB upload cap
const maxUploadSize = 8 << 20

type UploadController struct {
	dir    string
	logger *slog.Logger
}

func NewUploadController(dir string, logger *slog.Logger) *UploadController {
	return &UploadController{dir: dir, logger: logger}
}

// Upload stores a multipart file under a fresh UUID name. The content
// type is sniffed from the bytes, not trusted from the client, and only
// images are accepted.
func (u *UploadController) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File is required", "success": false})
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File is too large", "success": false})
		return
	}

	f, err := header.Open()
	if err != nil {
		u.logger.Error("open upload failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while uploading the file", "success": false})
		return
	}
	mtype, err := mimetype.DetectReader(f)
	_ = f.Close()
	if err != nil {
		u.logger.Error("sniff upload failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while uploading the file", "success": false})
		return
	}
	if !mimetype.EqualsAny(mtype.String(), "image/png", "image/jpeg", "image/gif", "image/webp") {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Only image uploads are allowed", "success": false})
		return
	}

	name := uuid.NewString() + mtype.Extension()
	dst := filepath.Join(u.dir, name)
	if err := c.SaveUploadedFile(header, dst); err != nil {
		u.logger.Error("save upload failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while uploading the file", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"success": true,
		"file":    gin.H{"filename": name, "path": "/uploads/" + name, "type": mtype.String(), "size": header.Size},
	})
}
