// controllers/auth_controller.go
package controllers

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

type badgeLoginRequest struct {
	UID string `json:"uid" binding:"required"`
}

// POST /auth/badge-login
// 扫卡流程的收尾：checkScan 拿到的 UID → 用户 → 签名会话令牌。
// 徽章没录入系统时 401，前端提示重扫即可（非致命）。
func (ac *AuthController) BadgeLogin(c *gin.Context) {
	var req badgeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "uid is required"})
		return
	}

	u, err := ac.Repo.FindUserByBadgeUID(c.Request.Context(), req.UID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, app.H{"success": false, "message": "unknown badge"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}

	// 登录快照失败不阻塞
	_ = ac.Repo.TouchUserLogin(c.Request.Context(), u.ID, c.ClientIP(), c.Request.UserAgent())

	sid := uuid.NewString()
	if err := ac.AppSess.Create(c.Request.Context(), sid, u.ID, req.UID); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	signed, err := token.Issue(ac.Cfg.JWTSecret, u.ID, sid, ac.Cfg.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app.H{
		"success":  true,
		"token":    signed,
		"userName": u.DisplayName,
	})
}

// POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if sid := c.GetString("sessionID"); sid != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), sid)
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}

// GET /auth/whoami
func (ac *AuthController) Whoami(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := ac.Repo.FindUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"success": false, "message": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "user": u})
}
