package db

import (
	"Gin_postgres_redis_servante/models"
	"context"
	"fmt"
)

func (r *Repo) LogDrawer(ctx context.Context, entry *models.DrawerLog) (*models.DrawerLog, error) {
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("insert drawer log: %w", err)
	}
	return entry, nil
}

func (r *Repo) ListDrawerLogs(ctx context.Context, limit int) ([]models.DrawerLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.DrawerLog
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
