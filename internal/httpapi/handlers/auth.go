package handlers

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/proximachat/proxima/internal/auth"
	"github.com/proximachat/proxima/internal/common"
	"github.com/proximachat/proxima/internal/httpapi/middleware"
	"github.com/proximachat/proxima/internal/models"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, "email and password required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		common.Fail(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, "email already registered")
		return
	}

	h.issueToken(c, &user)
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		common.Fail(c, http.StatusInternalServerError, "db error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.issueToken(c, &user)
}

func (h *Handler) issueToken(c *gin.Context, user *models.User) {
	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to sign token")
		return
	}
	common.OK(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Logout denylists the presented token until it would have expired anyway.
func (h *Handler) Logout(c *gin.Context) {
	if h.Redis == nil {
		common.OK(c, gin.H{"message": "Logged out"})
		return
	}

	token := c.GetString(middleware.TokenKey)
	if err := h.Redis.DenyToken(c.Request.Context(), token, tokenTTL); err != nil {
		common.Fail(c, http.StatusInternalServerError, "logout failed")
		return
	}
	common.OK(c, gin.H{"message": "Logged out"})
}
