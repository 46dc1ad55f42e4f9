package model

import (
	"time"

	"gorm.io/datatypes"
)

// WizardRunRecord 向导完成归档：AI测评得分与反馈落库，
// 活动会话本身存放在Redis（见 service.WizardService）。
type WizardRunRecord struct {
	UUIDBase
	UserID      uint                        `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Prompt      string                      `gorm:"type:longtext" json:"prompt"`
	Score       int                         `gorm:"default:0" json:"score"`
	Analysis    datatypes.JSON              `json:"analysis"`
	Feedback    datatypes.JSONSlice[string] `json:"feedback"`
	CompletedAt time.Time                   `json:"completedAt"`
}

func (WizardRunRecord) TableName() string {
	return "wizard_run_records"
}
