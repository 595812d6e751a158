package main

import (
	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/config"
	"Gin_postgres_redis_servante/db"
	"Gin_postgres_redis_servante/logging"
	"Gin_postgres_redis_servante/routes"
	"context"
	"log"
	"time"
)

func main() {
	config.LoadEnv()
	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	// 逾期清扫：每小时把过期的 ACTIVE 翻成 OVERDUE（HTTP 端点也能手动触发）
	repo := db.NewRepo(application.DB)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := repo.UpdateBorrowStatuses(ctx)
			cancel()
			if err != nil {
				logging.Log.Warn("overdue sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logging.Log.Info("overdue sweep", "flipped", n)
			}
		}
	}()

	port := application.Config.Port
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
