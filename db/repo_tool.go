// db/repo_tool.go
package db

import (
	"Gin_postgres_redis_servante/models"
	"context"
	"strings"
)

// Tools

func (r *Repo) CreateTool(ctx context.Context, t *models.Tool) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *Repo) FindToolByID(ctx context.Context, id string) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) ListTools(ctx context.Context, q, category string) ([]models.Tool, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Tool{}).Order("created_at DESC")
	if q = strings.TrimSpace(q); q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	var tools []models.Tool
	err := tx.Find(&tools).Error
	return tools, err
}
