package app

import (
	"Gin_postgres_redis_servante/config"
	"Gin_postgres_redis_servante/db"
	"Gin_postgres_redis_servante/session"
	"Gin_postgres_redis_servante/token"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired 校验 JWT，再查 Redis 会话还在不在（可吊销），最后确认用户没被删
func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "error": "unauthorized"})
			return
		}
		claims, err := token.Validate(cfg.JWTSecret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "error": "invalid token"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), claims.SessionID)
		if err != nil || as.UserID != claims.Subject {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "error": "session revoked"})
			return
		}

		u, err := repo.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = appSess.Delete(c.Request.Context(), claims.SessionID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"success": false, "error": "unauthorized"})
			return
		}
		// 把用户放进上下文，后续 handler 可用
		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Set("isAdmin", u.IsAdmin)
		c.Set("sessionID", claims.SessionID)

		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get("isAdmin"); ok {
			if isAdmin, _ := v.(bool); isAdmin {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, H{"success": false, "error": "forbidden"})
	}
}
