package repository

import (
	"prompt_lab_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// ListByUser 返回该用户的全部课时进度记录
func (r *ProgressRepository) ListByUser(userID uint) ([]model.LessonProgress, error) {
	var records []model.LessonProgress
	err := r.DB.Where("user_id = ?", userID).Find(&records).Error
	return records, err
}

// Touch 首次访问创建记录，已有记录仅更新最近访问时间
func (r *ProgressRepository) Touch(userID, lessonID uint) (*model.LessonProgress, error) {
	record := model.LessonProgress{
		UserID:         userID,
		LessonID:       lessonID,
		LastAccessedAt: time.Now(),
	}
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_accessed_at": time.Now()}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	var saved model.LessonProgress
	err = r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// MarkCompleted 完成课时，重复完成保持首次完成时间
func (r *ProgressRepository) MarkCompleted(userID, lessonID uint) (*model.LessonProgress, error) {
	now := time.Now()
	record := model.LessonProgress{
		UserID:         userID,
		LessonID:       lessonID,
		Completed:      true,
		CompletedAt:    &now,
		LastAccessedAt: now,
	}
	err := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed":        true,
			"completed_at":     gorm.Expr("COALESCE(completed_at, ?)", now),
			"last_accessed_at": now,
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	var saved model.LessonProgress
	err = r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteAllForUser 显式重置：物理删除该用户的全部进度记录
func (r *ProgressRepository) DeleteAllForUser(userID uint) error {
	return r.DB.Unscoped().
		Where("user_id = ?", userID).
		Delete(&model.LessonProgress{}).Error
}
