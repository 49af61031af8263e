package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/paperlens/pdf2jpg/config"
	"github.com/paperlens/pdf2jpg/middleware"
	"github.com/paperlens/pdf2jpg/models"
	"github.com/paperlens/pdf2jpg/utils"
)

const testSecret = "test-secret-key-long-enough-for-hs256"

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)
	// Error paths log through the global sugar logger
	if err := utils.InitLogger(config.AppConfig{LogLevel: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testEnv struct {
	router       *gin.Engine
	db           *gorm.DB
	tokens       *utils.TokenService
	uploadDir    string
	convertedDir string
}

// newTestEnv wires the full route surface against an in-memory sqlite database
// and per-test temp directories. A nil converter defaults to a fast simulated one.
func newTestEnv(t *testing.T, converter Converter) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// In-memory sqlite exists per connection; keep the pool at one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Conversion{}))

	uploadDir := t.TempDir()
	convertedDir := t.TempDir()

	cfg := config.AppConfig{
		UploadDir:          uploadDir,
		ConvertedDir:       convertedDir,
		ConvertedPublicURL: "/static/converted",
		UploadMaxSizeMB:    1,
		ConvertDelayMs:     10,
		ConvertTimeoutSec:  1,
	}

	if converter == nil {
		converter = &SimulatedConverter{
			Delay:      10 * time.Millisecond,
			OutputDir:  convertedDir,
			PublicBase: cfg.ConvertedPublicURL,
		}
	}

	tokens := utils.NewTokenService(testSecret, time.Hour)
	authController := NewAuthController(db, tokens)
	convertController := NewConvertController(db, converter, cfg)

	r := gin.New()
	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(tokens), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(tokens), authController.Me)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(tokens))
	protected.POST("/convert", convertController.Upload)
	protected.GET("/files", convertController.List)

	return &testEnv{
		router:       r,
		db:           db,
		tokens:       tokens,
		uploadDir:    uploadDir,
		convertedDir: convertedDir,
	}
}

type envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns its bearer token.
func (e *testEnv) signup(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.postJSON(t, "/api/v1/auth/signup", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	token, _ := env.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// multipartFile builds a multipart body with one file part carrying an explicit media type.
func multipartFile(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, token, field, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, bodyType := multipartFile(t, field, filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", bodyType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) listFiles(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func countFilesIn(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}
