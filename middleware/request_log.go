package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paperlens/pdf2jpg/utils"
)

// RequestLogger logs each request through zap with method, path, status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path

		ctx.Next()

		if utils.Logger == nil {
			return
		}
		utils.Logger.Info("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
		)
	}
}

// Recovery converts panics into a logged generic 500 response.
func Recovery() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if utils.Logger != nil {
					utils.Logger.Error("panic recovered",
						zap.Any("error", r),
						zap.String("path", ctx.Request.URL.Path),
						zap.Stack("stacktrace"),
					)
				}
				utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
				ctx.Abort()
			}
		}()
		ctx.Next()
	}
}
