package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users?q=alice&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app.H{
		"success": true,
		"total":   res.Total,
		"users":   res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "invalid uuid"})
		return
	}
	user, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"success": false, "message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "user": user})
}

// DELETE /api/users/:id
// 删库前先把该用户的全部会话撤掉，token 立刻失效
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "invalid uuid"})
		return
	}
	if id == c.GetString("userID") {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "cannot delete yourself"})
		return
	}

	if err := uc.AppSess.RevokeAllForUser(c.Request.Context(), id); err != nil {
		logging.Log.Warn("session revoke failed on user delete", "userId", id, "err", err)
	}
	if err := uc.Repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"success": false, "message": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}
