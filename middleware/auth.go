package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paperlens/pdf2jpg/utils"
)

// ContextUserIDKey is the key used to store the authenticated user ID in the Gin context.
const ContextUserIDKey = "user_id"

// AuthRequired ensures the request carries a valid bearer token and binds the
// resolved user ID to the request context. It is the single gate between a
// request and any per-user data: handlers must only use the ID set here.
func AuthRequired(tokens *utils.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		userID, ok := tokens.Verify(tokenString)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, userID)
		ctx.Next()
	}
}

// UserID extracts the authenticated user ID bound by AuthRequired.
func UserID(ctx *gin.Context) (uint, bool) {
	v, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
