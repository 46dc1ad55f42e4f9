package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuizQuestion 课时测验题，选项有序，Answer为正确选项下标
type QuizQuestion struct {
	BaseModel
	LessonID    uint                        `gorm:"index;type:bigint unsigned;not null" json:"lessonId"`
	Order       int                         `gorm:"default:0" json:"order"`
	Question    string                      `gorm:"type:text;not null" json:"question"`
	Options     datatypes.JSONSlice[string] `json:"options"`
	Answer      int                         `gorm:"not null" json:"-"`
	Explanation string                      `gorm:"type:text" json:"-"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizSubmission 存储用户的测验结果
type QuizSubmission struct {
	BaseModel
	UserID      uint                             `gorm:"index" json:"userId"`
	LessonID    uint                             `gorm:"index" json:"lessonId"`
	Score       int                              `gorm:"not null" json:"score"`
	Total       int                              `gorm:"not null" json:"total"`
	Answers     datatypes.JSONType[map[uint]int] `json:"answers"`
	CompletedAt time.Time                        `json:"completedAt"`
}

func (QuizSubmission) TableName() string {
	return "quiz_submissions"
}
