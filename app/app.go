package app

import (
	"Gin_postgres_redis_servante/config"
	"Gin_postgres_redis_servante/db"
	"Gin_postgres_redis_servante/hardware"
	"Gin_postgres_redis_servante/logging"
	"Gin_postgres_redis_servante/session"
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config config.Config

	Transport *hardware.Transport
	Motor     *hardware.MotorController
	Scans     *hardware.ScanRegistry

	appSess *session.AppSessionStore
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := config.Load()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB(cfg.DB)

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- 串口 + 两路消费者 ---
	// 电机先挂，RFID 后挂：同一条流，一个读取者按序分发。
	// 打不开就降级跑：借还照常，只是抽屉不会动、扫卡不会来。
	transport := hardware.NewTransport(cfg.Serial)
	motor := hardware.NewMotorController(transport)
	scans := hardware.NewScanRegistry()
	transport.OnLine(scans.HandleLine)
	if err := transport.Open(); err != nil {
		logging.Log.Warn("serial unavailable, running degraded", "err", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
		Transport: transport, Motor: motor, Scans: scans,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	return a
}

func (a *App) Close() {
	a.Transport.Close()
	_ = a.RDB.Close()
}
