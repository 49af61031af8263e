package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/paperlens/pdf2jpg/middleware"
	"github.com/paperlens/pdf2jpg/models"
	"github.com/paperlens/pdf2jpg/utils"
)

// AuthController handles account creation and session endpoints.
type AuthController struct {
	db     *gorm.DB
	tokens *utils.TokenService
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, tokens *utils.TokenService) *AuthController {
	return &AuthController{db: db, tokens: tokens}
}

// Signup registers a new account keyed by email and issues a session token.
func (a *AuthController) Signup(ctx *gin.Context) {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "email and password are required")
		return
	}

	var existing models.User
	if err := a.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		// Same message regardless of which field collided
		utils.Error(ctx, http.StatusConflict, 40901, "account already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Sugar.Errorf("signup lookup failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to create account")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Sugar.Errorf("password hashing failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create account")
		return
	}

	user := models.User{
		Name:         utils.Sanitize(strings.TrimSpace(req.Name)),
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := a.db.Create(&user).Error; err != nil {
		// The unique index on email closes the lookup/create race
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "account already exists")
			return
		}
		utils.Sugar.Errorf("signup create failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to create account")
		return
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		utils.Sugar.Errorf("token issue failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// Login verifies credentials and issues a session token. The response never
// distinguishes an unknown email from a wrong password.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		utils.Sugar.Errorf("token issue failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// Logout invalidates the presented token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	utils.BlacklistToken(token, a.tokens.ExpiresAt(token))
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, userResponse(user))
}

// userResponse projects an account for API responses; the password hash never leaves this package.
func userResponse(user models.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	}
}
