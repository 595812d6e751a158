// controllers/borrow_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/db"
	"Gin_postgres_redis_servante/logging"
	"Gin_postgres_redis_servante/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BorrowStore 借还流程用到的存储面。生产实现是 *db.Repo，
// 测试用内存假件顶替，借此把计数不变量测到位。
type BorrowStore interface {
	CreateBorrow(ctx context.Context, userID, toolID string, daysToReturn int) (*models.Borrow, *models.Tool, error)
	ReturnBorrow(ctx context.Context, borrowID string) (*db.BorrowResult, error)
	UpdateBorrowStatuses(ctx context.Context) (int64, error)
	FindBorrowByID(ctx context.Context, id string) (*models.Borrow, error)
	ListBorrows(ctx context.Context, userID, toolID, status string) ([]models.Borrow, error)
	ListOpenBorrowsByUser(ctx context.Context, userID string) ([]models.Borrow, error)
	LogDrawer(ctx context.Context, entry *models.DrawerLog) (*models.DrawerLog, error)
}

type BorrowController struct {
	*Srv
	store BorrowStore
}

func NewBorrowController(s *Srv) *BorrowController {
	return &BorrowController{Srv: s, store: s.Repo}
}

type createBorrowRequest struct {
	UserID       string `json:"userId" binding:"required"`
	ToolID       string `json:"toolId" binding:"required"`
	DaysToReturn int    `json:"daysToReturn"`
}

// POST /borrows
// 借出事务先落库，抽屉异步开。电机挂了只记日志——库存正确性永远优先于硬件。
func (bc *BorrowController) CreateBorrow(c *gin.Context) {
	var req createBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "userId and toolId are required"})
		return
	}
	days := req.DaysToReturn
	if days <= 0 {
		days = bc.Cfg.DefaultLoanDays
	}

	borrow, tool, err := bc.store.CreateBorrow(c.Request.Context(), req.UserID, req.ToolID, days)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"success": false, "message": "user or tool not found"})
		case errors.Is(err, db.ErrToolUnavailable):
			c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "tool not available"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		}
		return
	}

	if tool.DrawerNumber != nil {
		go bc.openDrawerForBorrow(borrow, tool, c.GetString("username"))
	}

	c.JSON(http.StatusCreated, app.H{"success": true, "borrow": borrow})
}

// 借出成功后的硬件副作用：开抽屉 + 落审计。任何失败都吞掉。
func (bc *BorrowController) openDrawerForBorrow(borrow *models.Borrow, tool *models.Tool, actorName string) {
	drawer := *tool.DrawerNumber
	err := bc.Motor.OpenDrawer(strconv.Itoa(drawer))
	if err != nil {
		logging.Log.Warn("drawer open failed after borrow",
			"borrowId", borrow.ID, "drawer", drawer, "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, logErr := bc.store.LogDrawer(ctx, &models.DrawerLog{
		ActorID:       borrow.UserID,
		ActorUsername: actorName,
		ToolID:        &tool.ID,
		BorrowID:      &borrow.ID,
		DrawerNumber:  drawer,
		Action:        "open",
		Sent:          err == nil,
	})
	if logErr != nil {
		logging.Log.Warn("drawer audit failed", "borrowId", borrow.ID, "err", logErr)
	}
}

func (bc *BorrowController) finishBorrow(c *gin.Context, borrowID string) {
	res, err := bc.store.ReturnBorrow(c.Request.Context(), borrowID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"success": false, "message": "borrow not found"})
		case errors.Is(err, db.ErrAlreadyReturned):
			c.JSON(http.StatusConflict, app.H{"success": false, "message": "borrow already returned"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, app.H{
		"success":  true,
		"borrow":   res.Borrow,
		"daysLate": res.DaysLate,
		"wasLate":  res.WasLate,
	})
}

// PUT /borrows/:id/return 用户自助归还
func (bc *BorrowController) ReturnBorrow(c *gin.Context) {
	bc.finishBorrow(c, c.Param("id"))
}

// POST /borrows/:id/mark-returned 管理员代还，状态机与自助归还一致
func (bc *BorrowController) MarkAsReturned(c *gin.Context) {
	bc.finishBorrow(c, c.Param("id"))
}

// PUT /borrows/update-statuses 逾期清扫（定时任务也调这里的 repo 方法）
func (bc *BorrowController) UpdateStatuses(c *gin.Context) {
	n, err := bc.store.UpdateBorrowStatuses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "updatedCount": n})
}

// GET /borrows/:id
func (bc *BorrowController) GetBorrow(c *gin.Context) {
	b, err := bc.store.FindBorrowByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"success": false, "message": "borrow not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "borrow": b})
}

// GET /borrows?status=&userId=&toolId=
func (bc *BorrowController) ListBorrows(c *gin.Context) {
	bs, err := bc.store.ListBorrows(c.Request.Context(),
		c.Query("userId"), c.Query("toolId"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "borrows": bs})
}

// GET /borrows/my 自己手上没还的
func (bc *BorrowController) ListMyOpenBorrows(c *gin.Context) {
	uid := c.GetString("userID")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, app.H{"success": false, "message": "unauthorized"})
		return
	}
	bs, err := bc.store.ListOpenBorrowsByUser(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "borrows": bs})
}
