// Package uploads accepts organization logos and banners and stores them in the assets bucket.
package uploads

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/pkg/response"
	"github.com/campus-orgs/backend/pkg/storage"
)

// ObjectStore is the part of *storage.S3 the handler uses.
type ObjectStore interface {
	PublicObjectURL(key string) string
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// PresignRequest is the body of POST /uploads/:kind/presign.
type PresignRequest struct {
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	FileSize    int64  `json:"file_size"`
}

// Handler handles uploads.
type Handler struct {
	store    ObjectStore
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates an uploads handler. store may be nil when S3 is not configured.
func NewHandler(store ObjectStore, maxBytes int64, logger *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = storage.MaxAssetFileSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, maxBytes: maxBytes, logger: logger}
}

// Register mounts the routes on a JWT-protected group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/uploads/:kind", h.Upload)
	rg.POST("/uploads/:kind/presign", h.Presign)
}

// Upload handles POST /uploads/:kind with a multipart "file" field.
func (h *Handler) Upload(c *gin.Context) {
	kind, ok := h.begin(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > h.maxBytes {
		response.BadRequest(c, "file exceeds the upload size limit")
		return
	}
	ext, ok := storage.ValidateImageType(file.Header.Get("Content-Type"), file.Filename)
	if !ok {
		response.BadRequest(c, "invalid file type: only jpg, png, webp and gif images are allowed")
		return
	}

	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	key := storage.AssetKey(kind, userID, ext)
	url, err := h.store.Upload(c.Request.Context(), key, storage.ContentTypeForExt(ext), rc, file.Size)
	if err != nil {
		h.logger.Error("asset upload failed", zap.Error(err), zap.String("key", key), zap.String("user_id", userID.String()))
		response.ServiceUnavailable(c, "upload storage unavailable")
		return
	}
	response.Created(c, gin.H{"url": url, "key": key})
}

// Presign handles POST /uploads/:kind/presign for direct browser uploads.
func (h *Handler) Presign(c *gin.Context) {
	kind, ok := h.begin(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.FileSize > h.maxBytes {
		response.BadRequest(c, "file exceeds the upload size limit")
		return
	}
	ext, ok := storage.ValidateImageType(req.ContentType, req.Filename)
	if !ok {
		response.BadRequest(c, "invalid file type: only jpg, png, webp and gif images are allowed")
		return
	}

	key := storage.AssetKey(kind, userID, ext)
	contentType := storage.ContentTypeForExt(ext)
	uploadURL, err := h.store.PresignUpload(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("presign upload failed", zap.Error(err), zap.String("key", key))
		response.ServiceUnavailable(c, "upload storage unavailable")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   uploadURL,
		"key":          key,
		"url":          h.store.PublicObjectURL(key),
		"content_type": contentType,
	})
}

func (h *Handler) begin(c *gin.Context) (string, bool) {
	if h.store == nil {
		response.ServiceUnavailable(c, "storage not configured")
		return "", false
	}
	kind := c.Param("kind")
	if !storage.ValidKind(kind) {
		response.BadRequest(c, "kind must be logo or banner")
		return "", false
	}
	return kind, true
}
