package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/paperlens/pdf2jpg/config"
	"github.com/paperlens/pdf2jpg/controllers"
	"github.com/paperlens/pdf2jpg/middleware"
	"github.com/paperlens/pdf2jpg/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, tokens *utils.TokenService, converter controllers.Converter) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	// Converted artifacts are served statically; retrieval is not part of the API
	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db, tokens)
	convertController := controllers.NewConvertController(db, converter, cfg)

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

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
