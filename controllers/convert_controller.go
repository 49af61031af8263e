package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paperlens/pdf2jpg/config"
	"github.com/paperlens/pdf2jpg/middleware"
	"github.com/paperlens/pdf2jpg/models"
	"github.com/paperlens/pdf2jpg/utils"
)

// Converter turns a stored PDF into a client-reachable image artifact and
// returns its public URL. Implementations must honor ctx cancellation.
type Converter interface {
	Convert(ctx context.Context, storedPath, storedName string) (string, error)
}

// SimulatedConverter is the placeholder strategy: it waits a fixed delay, copies
// the stored bytes to the output directory under a .jpg name and returns the
// public URL. No rasterization happens; swapping in a real converter only
// requires replacing this implementation.
type SimulatedConverter struct {
	Delay      time.Duration
	OutputDir  string
	PublicBase string
}

// Convert implements Converter.
func (c *SimulatedConverter) Convert(ctx context.Context, storedPath, storedName string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.Delay):
	}

	jpgName := strings.TrimSuffix(storedName, filepath.Ext(storedName)) + ".jpg"
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return "", err
	}

	src, err := os.Open(storedPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dstPath := filepath.Join(c.OutputDir, jpgName)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}

	return c.PublicBase + "/" + jpgName, nil
}

// ConvertController handles authenticated PDF uploads and conversion history.
type ConvertController struct {
	db        *gorm.DB
	converter Converter
	uploadDir string
	maxSize   int64
	timeout   time.Duration
}

// NewConvertController creates a ConvertController using upload settings from cfg.
func NewConvertController(db *gorm.DB, converter Converter, cfg config.AppConfig) *ConvertController {
	return &ConvertController{
		db:        db,
		converter: converter,
		uploadDir: cfg.UploadDir,
		maxSize:   int64(cfg.UploadMaxSizeMB) * 1024 * 1024,
		timeout:   time.Duration(cfg.ConvertTimeoutSec) * time.Second,
	}
}

// Upload stores a PDF, runs the conversion strategy under a deadline and
// persists a conversion record owned by the authenticated user. The stored
// write must succeed before any record exists, so a record never points at a
// missing file.
func (c *ConvertController) Upload(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	// Accept the original field name 'pdf' or fallback to 'file'
	file, header, err := ctx.Request.FormFile("pdf")
	if err != nil {
		file, header, err = ctx.Request.FormFile("file")
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
			return
		}
	}
	defer file.Close()

	// Media type gate runs before any disk write
	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if !strings.EqualFold(mediaType, "application/pdf") {
		utils.Error(ctx, http.StatusBadRequest, 40031, "only PDF files are accepted")
		return
	}

	if header.Size > 0 && header.Size > c.maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", c.maxSize/(1024*1024)))
		return
	}

	if err := os.MkdirAll(c.uploadDir, 0o755); err != nil {
		utils.Sugar.Errorf("failed to create upload directory: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store file")
		return
	}

	// Sanitize filename and ensure uniqueness
	fname := filepath.Base(header.Filename)
	if fname == "." || fname == "/" || fname == "" {
		fname = "upload.pdf"
	}
	storedName := fmt.Sprintf("%d_%s_%s", time.Now().UnixNano(), uuid.NewString()[:8], fname)
	storedPath := filepath.Join(c.uploadDir, storedName)

	out, err := os.Create(storedPath)
	if err != nil {
		utils.Sugar.Errorf("failed to create stored file: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to store file")
		return
	}

	// Enforce the size cap even when the client lies about Content-Length
	lr := &io.LimitedReader{R: file, N: c.maxSize + 1}
	written, err := io.Copy(out, lr)
	closeErr := out.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(storedPath)
		utils.Sugar.Errorf("failed to write stored file: copy=%v close=%v", err, closeErr)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to store file")
		return
	}
	if written > c.maxSize {
		_ = os.Remove(storedPath)
		utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", c.maxSize/(1024*1024)))
		return
	}

	// Bound the conversion wait; a hung strategy surfaces as a request failure,
	// and a client disconnect cancels through the request context.
	convCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	imageURL, err := c.converter.Convert(convCtx, storedPath, storedName)
	if err != nil {
		// Stored file stays behind for the orphan sweeper
		if errors.Is(err, context.DeadlineExceeded) {
			utils.Sugar.Errorf("conversion timed out for %s", storedName)
		} else {
			utils.Sugar.Errorf("conversion failed for %s: %v", storedName, err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "conversion failed")
		return
	}

	conversion := models.Conversion{
		UserID:       userID,
		OriginalName: header.Filename,
		FilePath:     storedPath,
		ImageURL:     imageURL,
	}
	if err := c.db.Create(&conversion).Error; err != nil {
		utils.Sugar.Errorf("failed to persist conversion record: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to save conversion")
		return
	}

	utils.Success(ctx, gin.H{"file": conversionResponse(conversion)})
}

// List returns the authenticated user's conversion history, newest first.
func (c *ConvertController) List(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	var conversions []models.Conversion
	if err := c.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&conversions).Error; err != nil {
		utils.Sugar.Errorf("failed to list conversions: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to list conversions")
		return
	}

	files := make([]gin.H, 0, len(conversions))
	for _, conv := range conversions {
		files = append(files, conversionResponse(conv))
	}

	utils.Success(ctx, gin.H{"files": files})
}

// conversionResponse projects a record for API responses; stored paths of the
// original uploads are never exposed.
func conversionResponse(conv models.Conversion) gin.H {
	return gin.H{
		"id":           conv.ID,
		"originalName": conv.OriginalName,
		"imageUrl":     conv.ImageURL,
		"createdAt":    conv.CreatedAt,
	}
}
