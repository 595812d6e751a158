// controllers/hardware_controller.go
package controllers

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/hardware"
	"Gin_postgres_redis_servante/logging"
	"Gin_postgres_redis_servante/models"

	"github.com/gin-gonic/gin"
)

type HardwareController struct{ *Srv }

func NewHardwareController(s *Srv) *HardwareController { return &HardwareController{Srv: s} }

// ------------------------------
// 扫卡会话（前端轮询）
// ------------------------------

// POST /hardware/badge-scan/start
func (hc *HardwareController) StartBadgeScan(c *gin.Context) {
	id := hc.Scans.StartScan()
	c.JSON(http.StatusOK, app.H{
		"success": true,
		"scanId":  id,
		"message": "scan started, present a badge",
	})
}

// GET /hardware/badge-scan/:scanId
// 单次投递：拿到 UID 的那次轮询顺手删掉会话，再查就是 404
func (hc *HardwareController) CheckBadgeScan(c *gin.Context) {
	uid, err := hc.Scans.CheckScan(c.Param("scanId"))
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"success": false, "message": "scan not found or expired"})
		return
	}
	if uid == "" {
		c.JSON(http.StatusOK, app.H{"success": true, "uid": nil, "message": "waiting for badge"})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "uid": uid, "message": "badge captured"})
}

// DELETE /hardware/badge-scan/:scanId（幂等）
func (hc *HardwareController) CancelBadgeScan(c *gin.Context) {
	hc.Scans.CancelScan(c.Param("scanId"))
	c.JSON(http.StatusOK, app.H{"success": true, "message": "scan cancelled"})
}

// ------------------------------
// 抽屉 / 电机
// ------------------------------

type drawerRequest struct {
	DrawerNumber string `json:"drawerNumber" binding:"required"`
}

func (hc *HardwareController) motorErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, hardware.ErrInvalidDrawer):
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": err.Error()})
	case errors.Is(err, hardware.ErrNotConnected):
		// 503 区别于 500：硬件不在 ≠ 程序有 bug
		c.JSON(http.StatusServiceUnavailable, app.H{"success": false, "message": "motor controller not connected"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"success": false, "message": err.Error()})
	}
}

func (hc *HardwareController) auditDrawer(c *gin.Context, drawer int, action string, sent bool) {
	actorID := c.GetString("userID")
	actorName := c.GetString("username")
	if actorID == "" {
		return // 未登录的硬件调试端点不落审计
	}
	_, err := hc.Repo.LogDrawer(c.Request.Context(), &models.DrawerLog{
		ActorID:       actorID,
		ActorUsername: actorName,
		DrawerNumber:  drawer,
		Action:        action,
		Sent:          sent,
	})
	if err != nil {
		logging.Log.Warn("drawer audit failed", "err", err)
	}
}

// POST /hardware/drawer/open
func (hc *HardwareController) OpenDrawer(c *gin.Context) {
	var req drawerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "drawerNumber is required"})
		return
	}
	if err := hc.Motor.OpenDrawer(req.DrawerNumber); err != nil {
		hc.motorErr(c, err)
		return
	}
	if n, ok := hardware.DrawerNumber(req.DrawerNumber); ok {
		hc.auditDrawer(c, n, "open", true)
	}
	c.JSON(http.StatusOK, app.H{"success": true, "message": "drawer opening", "drawerNumber": req.DrawerNumber})
}

// POST /hardware/drawer/close
func (hc *HardwareController) CloseDrawer(c *gin.Context) {
	var req drawerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"success": false, "message": "drawerNumber is required"})
		return
	}
	if err := hc.Motor.CloseDrawer(req.DrawerNumber); err != nil {
		hc.motorErr(c, err)
		return
	}
	if n, ok := hardware.DrawerNumber(req.DrawerNumber); ok {
		hc.auditDrawer(c, n, "close", true)
	}
	c.JSON(http.StatusOK, app.H{"success": true, "message": "drawer closing", "drawerNumber": req.DrawerNumber})
}

// POST /hardware/motor/stop 急停
func (hc *HardwareController) StopMotors(c *gin.Context) {
	if err := hc.Motor.StopAll(); err != nil {
		hc.motorErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "message": "all motors stopped"})
}

// GET /hardware/motor/status
func (hc *HardwareController) MotorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"success": true, "data": hc.Motor.Status()})
}

// ------------------------------
// 免会话的简易轮询（最后一次扫卡）
// ------------------------------

// GET /rfid/last-scan
func (hc *HardwareController) LastScan(c *gin.Context) {
	uid, ts, ok := hc.Scans.LastScan()
	if !ok {
		c.JSON(http.StatusNotFound, app.H{"success": false, "message": "no recent scan"})
		return
	}
	c.JSON(http.StatusOK, app.H{
		"success": true,
		"data":    app.H{"badgeId": uid, "timestamp": ts.UnixMilli()},
	})
}

// POST /rfid/consume 读后即清
func (hc *HardwareController) ConsumeLastScan(c *gin.Context) {
	uid, ok := hc.Scans.ConsumeLast()
	if !ok {
		c.JSON(http.StatusNotFound, app.H{"success": false, "message": "no recent scan"})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "data": app.H{"badgeId": uid}})
}
