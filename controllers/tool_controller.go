// controllers/tool_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

type createToolRequest struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category"`
	DrawerNumber *int   `json:"drawerNumber"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
}

// POST /api/tools 管理员录入一种工具，初始全部可借
func (tc *ToolController) CreateTool(c *gin.Context) {
	var req createToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": err.Error()})
		return
	}
	if req.DrawerNumber != nil && (*req.DrawerNumber < 1 || *req.DrawerNumber > 4) {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "drawerNumber must be 1-4"})
		return
	}
	t := &models.Tool{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Category:          req.Category,
		DrawerNumber:      req.DrawerNumber,
		TotalQuantity:     req.Quantity,
		AvailableQuantity: req.Quantity,
	}
	if err := tc.Repo.CreateTool(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "tool": t})
}

// GET /api/tools?q=&category=
func (tc *ToolController) ListTools(c *gin.Context) {
	tools, err := tc.Repo.ListTools(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "tools": tools})
}

// GET /api/tools/:id
func (tc *ToolController) GetTool(c *gin.Context) {
	t, err := tc.Repo.FindToolByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"success": false, "message": "tool not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "tool": t})
}

// GET /api/drawer-logs?limit= 管理员看抽屉审计
func (tc *ToolController) ListDrawerLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := tc.Repo.ListDrawerLogs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "logs": logs})
}
