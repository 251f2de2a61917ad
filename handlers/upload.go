package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"food-ordering-api/apperrors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 5 << 20

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Upload stores an image under a random name and returns its public URL
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)
	file, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, apperrors.ErrFileTooLarge)
			return
		}
		fail(c, apperrors.ErrMissingFile.Wrap(err))
		return
	}
	if file.Size > maxUploadSize {
		fail(c, apperrors.ErrFileTooLarge)
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		fail(c, apperrors.ErrUnsupportedFile)
		return
	}
	// The name is only a hint; the bytes decide what gets served.
	kind, err := sniff(file)
	if err != nil {
		fail(c, apperrors.Internal("Failed to read upload", err))
		return
	}
	if !mimetype.EqualsAny(kind.String(), imageTypes...) {
		fail(c, apperrors.ErrUnsupportedFile.WithDetails(map[string]any{"detected_type": kind.String()}))
		return
	}
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		fail(c, apperrors.Internal("Failed to prepare upload directory", err))
		return
	}
	name := uuid.NewString() + kind.Extension()
	if err := c.SaveUploadedFile(file, filepath.Join(h.UploadDir, name)); err != nil {
		fail(c, apperrors.Internal("Failed to store upload", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": "/uploads/" + name})
}

func sniff(file *multipart.FileHeader) (*mimetype.MIME, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mimetype.DetectReader(f)
}
