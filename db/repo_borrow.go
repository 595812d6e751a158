// db/repo_borrow.go
package db

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_servante/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrToolUnavailable = errors.New("no available quantity for this tool")
	ErrAlreadyReturned = errors.New("borrow already returned")
)

// BorrowResult 带上本次归还算出的迟还天数（终态仍是 RETURNED，迟到只随响应走）
type BorrowResult struct {
	Borrow   *models.Borrow `json:"borrow"`
	DaysLate int            `json:"daysLate"`
	WasLate  bool           `json:"wasLate"`
}

// CreateBorrow 借出：原子操作 = 锁住 tool 行 → 可用数-1/借出数+1 → 新建 borrow。
// 计数更新带 available_quantity > 0 守卫，并发下绝不会减到负数。
// 抽屉开启不在这里做：硬件副作用由调用方异步触发，失败不回滚借出。
func (r *Repo) CreateBorrow(ctx context.Context, userID, toolID string, daysToReturn int) (*models.Borrow, *models.Tool, error) {
	var borrow *models.Borrow
	var tool models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 用户必须存在
		var u models.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return err
		}
		// 1) 锁住工具行
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&tool, "id = ?", toolID).Error; err != nil {
			return err
		}
		if tool.AvailableQuantity <= 0 {
			return ErrToolUnavailable
		}
		// 2) 成对更新计数，WHERE 里再守一次
		res := tx.Model(&models.Tool{}).
			Where("id = ? AND available_quantity > 0", tool.ID).
			Updates(map[string]interface{}{
				"available_quantity": gorm.Expr("available_quantity - 1"),
				"borrowed_quantity":  gorm.Expr("borrowed_quantity + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrToolUnavailable
		}
		// 3) 新建 borrow
		now := time.Now().UTC()
		b := &models.Borrow{
			ID:         uuid.NewString(),
			UserID:     userID,
			ToolID:     tool.ID,
			BorrowDate: now,
			DueDate:    now.AddDate(0, 0, daysToReturn),
			Status:     models.BorrowStatusActive,
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		tool.AvailableQuantity--
		tool.BorrowedQuantity++
		borrow = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return borrow, &tool, nil
}

// ReturnBorrow 归还：原子操作 = 锁住 borrow → 置 RETURNED → 可用数+1/借出数-1。
// 二次归还报 ErrAlreadyReturned，计数不动。
func (r *Repo) ReturnBorrow(ctx context.Context, borrowID string) (*BorrowResult, error) {
	var b models.Borrow
	var daysLate int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, "id = ?", borrowID).Error; err != nil {
			return err
		}
		if b.Status == models.BorrowStatusReturned || b.ReturnDate != nil {
			return ErrAlreadyReturned
		}
		now := time.Now().UTC()
		daysLate = models.DaysLate(b.DueDate, now)
		b.ReturnDate = &now
		b.Status = models.BorrowStatusReturned
		if err := tx.Save(&b).Error; err != nil {
			return err
		}
		// 释放一件库存，borrowed_quantity > 0 守卫防止漂移
		res := tx.Model(&models.Tool{}).
			Where("id = ? AND borrowed_quantity > 0", b.ToolID).
			Updates(map[string]interface{}{
				"available_quantity": gorm.Expr("available_quantity + 1"),
				"borrowed_quantity":  gorm.Expr("borrowed_quantity - 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("tool counters out of sync")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BorrowResult{Borrow: &b, DaysLate: daysLate, WasLate: daysLate > 0}, nil
}

// UpdateBorrowStatuses 逾期清扫：ACTIVE 且过期的翻成 OVERDUE。
// 幂等，纯信息性，不碰库存计数。
func (r *Repo) UpdateBorrowStatuses(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Borrow{}).
		Where("status = ? AND due_date < NOW()", models.BorrowStatusActive).
		Update("status", models.BorrowStatusOverdue)
	return res.RowsAffected, res.Error
}

func (r *Repo) FindBorrowByID(ctx context.Context, id string) (*models.Borrow, error) {
	var b models.Borrow
	if err := r.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) ListBorrows(ctx context.Context, userID, toolID, status string) ([]models.Borrow, error) {
	q := r.DB.WithContext(ctx).Model(&models.Borrow{}).Order("borrow_date DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if toolID != "" {
		q = q.Where("tool_id = ?", toolID)
	}
	switch status {
	case "open":
		q = q.Where("return_date IS NULL")
	case "returned":
		q = q.Where("return_date IS NOT NULL")
	case models.BorrowStatusActive, models.BorrowStatusOverdue, models.BorrowStatusReturned:
		q = q.Where("status = ?", status)
	}
	var bs []models.Borrow
	if err := q.Find(&bs).Error; err != nil {
		return nil, err
	}
	return bs, nil
}

// 某用户手上还没还的
func (r *Repo) ListOpenBorrowsByUser(ctx context.Context, userID string) ([]models.Borrow, error) {
	var bs []models.Borrow
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND return_date IS NULL", userID).
		Order("due_date ASC").
		Find(&bs).Error
	return bs, err
}
