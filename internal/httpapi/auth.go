package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login exchanges credentials for an access/refresh token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.roster.FindUserByEmail(ctx, req.Email)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.unauthorized(c, "invalid email or password")
		return
	}

	pair, err := auth.Issue(user.ID, string(user.Role), h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if err := h.roster.SaveRefreshToken(ctx, user.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
		"user":          user,
	})
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. A revoked or expired token fails closed.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	claims, err := auth.Parse(req.RefreshToken, h.cfg.JWTSigningKey, h.cfg.JWTIssuer, auth.TokenRefresh)
	if err != nil {
		h.unauthorized(c, "invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	stored, err := h.roster.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		h.unauthorized(c, "refresh token revoked or expired")
		return
	}

	user, err := h.roster.FindUser(ctx, claims.Subject)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if user == nil {
		h.unauthorized(c, "account no longer exists")
		return
	}

	if err := h.roster.RevokeRefreshToken(ctx, req.RefreshToken); err != nil {
		h.respondErr(c, err)
		return
	}
	pair, err := auth.Issue(user.ID, string(user.Role), h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if err := h.roster.SaveRefreshToken(ctx, user.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
	})
}

func (h *Handler) unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": &attendance.Rejection{
		Code:    "UNAUTHORIZED",
		Message: msg,
	}})
}
