package routes

import (
	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/controllers"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	hwCtl := controllers.NewHardwareController(s)
	borrowCtl := controllers.NewBorrowController(s)
	toolCtl := controllers.NewToolController(s)
	userCtl := controllers.NewUserController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo, a.Config)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// 徽章登录（登录前必须可达，不挂鉴权）
	// ------------------------------
	scan := r.Group("/hardware/badge-scan")
	{
		scan.POST("/start", hwCtl.StartBadgeScan)
		scan.GET("/:scanId", hwCtl.CheckBadgeScan)
		scan.DELETE("/:scanId", hwCtl.CancelBadgeScan)
	}

	rfid := r.Group("/rfid")
	{
		rfid.GET("/last-scan", hwCtl.LastScan)
		rfid.POST("/consume", hwCtl.ConsumeLastScan)
	}

	r.POST("/auth/badge-login", authCtl.BadgeLogin)

	authed := r.Group("/auth", authMW, seenMW)
	{
		authed.POST("/logout", authCtl.Logout)
		authed.GET("/whoami", authCtl.Whoami)
	}

	// ------------------------------
	// 抽屉 / 电机（需登录，急停除外）
	// ------------------------------
	r.POST("/hardware/motor/stop", hwCtl.StopMotors) // 急停谁按都行
	hw := r.Group("/hardware", authMW, seenMW)
	{
		hw.POST("/drawer/open", hwCtl.OpenDrawer)
		hw.POST("/drawer/close", hwCtl.CloseDrawer)
		hw.GET("/motor/status", hwCtl.MotorStatus)
	}

	// ------------------------------
	// 借还
	// ------------------------------
	borrows := r.Group("/borrows", authMW, seenMW)
	{
		borrows.POST("", borrowCtl.CreateBorrow)
		borrows.GET("", borrowCtl.ListBorrows)
		borrows.GET("/my", borrowCtl.ListMyOpenBorrows)
		borrows.PUT("/update-statuses", borrowCtl.UpdateStatuses)
		borrows.GET("/:id", borrowCtl.GetBorrow)
		borrows.PUT("/:id/return", borrowCtl.ReturnBorrow)
		borrows.POST("/:id/mark-returned", adminMW, borrowCtl.MarkAsReturned)
	}

	// ------------------------------
	// 工具与用户
	// ------------------------------
	tools := r.Group("/api/tools", authMW, seenMW)
	{
		tools.GET("", toolCtl.ListTools)
		tools.GET("/:id", toolCtl.GetTool)
		tools.POST("", adminMW, toolCtl.CreateTool)
	}

	usersAdmin := r.Group("/api/users", authMW, adminMW)
	{
		usersAdmin.GET("", userCtl.ListUsers)
		usersAdmin.GET("/:id", userCtl.GetUser)
		usersAdmin.DELETE("/:id", userCtl.DeleteUser)
	}

	r.GET("/api/drawer-logs", authMW, adminMW, toolCtl.ListDrawerLogs)
}
