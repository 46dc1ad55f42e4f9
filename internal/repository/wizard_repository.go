package repository

import (
	"context"
	"fmt"
	"prompt_lab_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const wizardSessionKeyPrefix = "wizard_session:"

// WizardRepository 向导会话存取：活动会话放Redis（带TTL），
// 完成的测评归档落MySQL。
type WizardRepository struct {
	Redis *redis.Client
	DB    *gorm.DB
}

func NewWizardRepository(db *gorm.DB, rdb *redis.Client) *WizardRepository {
	return &WizardRepository{DB: db, Redis: rdb}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("%s%d", wizardSessionKeyPrefix, userID)
}

// LoadSession 不存在时返回 (nil, nil)
func (r *WizardRepository) LoadSession(ctx context.Context, userID uint) ([]byte, error) {
	val, err := r.Redis.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// SaveSession 整体覆盖写入（last-write-wins），并刷新TTL
func (r *WizardRepository) SaveSession(ctx context.Context, userID uint, payload []byte, ttl time.Duration) error {
	return r.Redis.Set(ctx, sessionKey(userID), payload, ttl).Err()
}

func (r *WizardRepository) DeleteSession(ctx context.Context, userID uint) error {
	return r.Redis.Del(ctx, sessionKey(userID)).Err()
}

func (r *WizardRepository) ArchiveRun(record *model.WizardRunRecord) error {
	return r.DB.Create(record).Error
}

func (r *WizardRepository) ListRuns(userID uint) ([]model.WizardRunRecord, error) {
	var runs []model.WizardRunRecord
	err := r.DB.Where("user_id = ?", userID).
		Order("completed_at DESC").
		Find(&runs).Error
	return runs, err
}
