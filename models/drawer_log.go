package models

import "time"

// DrawerLog 抽屉开关的审计记录：谁、哪个抽屉、成功与否
// 电机指令本身是 fire-and-forget，这里记录的是“下发了指令”而非物理结果
type DrawerLog struct {
	ID            string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID       string    `gorm:"type:uuid" json:"actorId"`
	ActorUsername string    `json:"actorUsername"`
	ToolID        *string   `gorm:"type:uuid" json:"toolId,omitempty"`
	BorrowID      *string   `gorm:"type:uuid" json:"borrowId,omitempty"`
	DrawerNumber  int       `json:"drawerNumber"`
	Action        string    `gorm:"size:10" json:"action"` // open / close / stop
	Sent          bool      `json:"sent"`                  // 指令是否成功写入串口
	Note          *string   `json:"note,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (DrawerLog) TableName() string { return "srv_drawer_log" }
