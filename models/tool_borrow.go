// models/tool_borrow.go
package models

import (
	"math"
	"time"
)

const ToolTable = "srv_tools"
const BorrowTable = "srv_borrows"

const (
	BorrowStatusActive   = "ACTIVE"
	BorrowStatusOverdue  = "OVERDUE"
	BorrowStatusReturned = "RETURNED"
)

// Tool 同型号的可互换工具按数量记账，不按单件序列化
// 不变量：available + borrowed == total，且都 >= 0（DB 层有 CHECK 兜底）
type Tool struct {
	ID                string `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string `gorm:"size:200;not null" json:"name"`
	Category          string `gorm:"size:100;index" json:"category"`
	DrawerNumber      *int   `gorm:"column:drawer_number" json:"drawerNumber,omitempty"` // 1..4，无抽屉则空
	TotalQuantity     int    `gorm:"not null;default:0" json:"totalQuantity"`
	AvailableQuantity int    `gorm:"not null;default:0" json:"availableQuantity"`
	BorrowedQuantity  int    `gorm:"not null;default:0" json:"borrowedQuantity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Borrow struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string     `gorm:"type:uuid;index;not null" json:"userId"`
	ToolID     string     `gorm:"type:uuid;index;not null" json:"toolId"`
	BorrowDate time.Time  `gorm:"index;not null" json:"borrowDate"`
	DueDate    time.Time  `gorm:"index;not null" json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	Status     string     `gorm:"size:20;index;not null;default:'ACTIVE'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Tool) TableName() string   { return ToolTable }
func (Borrow) TableName() string { return BorrowTable }

// DaysLate 整天向上取整，没迟到就是 0
func DaysLate(due, returned time.Time) int {
	d := returned.Sub(due)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
