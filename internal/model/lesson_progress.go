package model

import (
	"time"
)

// LessonProgress 用户-课时进度记录，(user_id, lesson_id)唯一。
// 首次访问时创建，完成时更新，仅在用户显式重置时删除。
type LessonProgress struct {
	BaseModel
	UserID         uint       `gorm:"uniqueIndex:idx_user_lesson;type:bigint unsigned;not null" json:"userId"`
	LessonID       uint       `gorm:"uniqueIndex:idx_user_lesson;type:bigint unsigned;not null" json:"lessonId"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completedAt"`
	LastAccessedAt time.Time  `json:"lastAccessedAt"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
