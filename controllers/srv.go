// controllers/srv.go
package controllers

import (
	"Gin_postgres_redis_servante/app"
	"Gin_postgres_redis_servante/config"
	"Gin_postgres_redis_servante/db"
	"Gin_postgres_redis_servante/hardware"
	"Gin_postgres_redis_servante/session"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Motor   *hardware.MotorController
	Scans   *hardware.ScanRegistry
	Cfg     config.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:    db.NewRepo(a.DB),
		AppSess: a.AppSessions(),
		Motor:   a.Motor,
		Scans:   a.Scans,
		Cfg:     a.Config,
	}
}
