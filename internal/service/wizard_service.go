package service

import (
	"context"
	"encoding/json"
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/internal/util"
	"prompt_lab_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// WizardSessionStore 会话读写抽象，生产环境由WizardRepository实现
type WizardSessionStore interface {
	LoadSession(ctx context.Context, userID uint) ([]byte, error)
	SaveSession(ctx context.Context, userID uint, payload []byte, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID uint) error
	ArchiveRun(record *model.WizardRunRecord) error
	ListRuns(userID uint) ([]model.WizardRunRecord, error)
}

// WizardService 训练向导状态机：线性7步，逐步门控，
// 会话整体写入存储并在TTL后过期。
type WizardService struct {
	Store      WizardSessionStore
	Prompt     *PromptService
	SessionTTL time.Duration

	now func() time.Time
}

func NewWizardService(store WizardSessionStore, prompt *PromptService, sessionTTL time.Duration) *WizardService {
	return &WizardService{
		Store:      store,
		Prompt:     prompt,
		SessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// GetSession 恢复会话。不存在、损坏、版本不符或超过TTL都当作不存在，
// 返回全新的第0步状态。
func (s *WizardService) GetSession(ctx context.Context, userID uint) (*model.WizardState, error) {
	payload, err := s.Store.LoadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return model.NewWizardState(), nil
	}

	var state model.WizardState
	if err := json.Unmarshal(payload, &state); err != nil {
		logger.Log.Warn("向导会话损坏，重新开始", zap.Uint("userID", userID), zap.Error(err))
		return model.NewWizardState(), nil
	}

	if state.SchemaVersion != model.WizardSchemaVersion {
		return model.NewWizardState(), nil
	}

	savedAt := time.UnixMilli(state.SavedAt)
	if s.now().Sub(savedAt) > s.SessionTTL {
		return model.NewWizardState(), nil
	}

	// 旧载荷的completedSteps长度可能不足
	if len(state.CompletedSteps) < model.WizardStepCount {
		padded := make([]bool, model.WizardStepCount)
		copy(padded, state.CompletedSteps)
		state.CompletedSteps = padded
	}

	return &state, nil
}

func (s *WizardService) persist(ctx context.Context, userID uint, state *model.WizardState) error {
	state.SavedAt = s.now().UnixMilli()
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.Store.SaveSession(ctx, userID, payload, s.SessionTTL)
}

// UpdateStep 提交某一步的数据并标记该步完成。
// 只允许提交当前步或已完成的步；AI实测步不接受直接提交。
func (s *WizardService) UpdateStep(ctx context.Context, userID uint, step int, raw json.RawMessage) (*model.WizardState, error) {
	if step < 0 || step >= model.WizardStepCount || step == model.WizardStepAITest {
		return nil, util.ErrStepOutOfRange
	}

	state, err := s.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if step > state.CurrentStep && !state.CompletedSteps[step] {
		return nil, util.ErrStepNotReachable
	}

	if err := applyStepData(&state.Data, step, raw); err != nil {
		return nil, err
	}

	state.CompletedSteps[step] = true
	if step == state.CurrentStep && state.CurrentStep < model.WizardStepCount-1 {
		state.CurrentStep++
	}

	if err := s.persist(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func applyStepData(data *model.WizardData, step int, raw json.RawMessage) error {
	switch step {
	case model.WizardStepRole:
		var d model.RoleStepData
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		data.Role = &d
	case model.WizardStepContext:
		var d model.ContextStepData
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		data.Context = &d
	case model.WizardStepTasks:
		var d model.TasksStepData
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		data.Tasks = &d
	case model.WizardStepTone:
		var d model.ToneStepData
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		data.Tone = &d
	case model.WizardStepFormat:
		var d model.FormatStepData
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		data.Format = &d
	case model.WizardStepFinalPrompt:
		var d model.FinalPromptStepData
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		data.FinalPrompt = &d
	}
	return nil
}

// Goto 导航到目标步。向后随意；向前一步要求当前步已完成；
// 跳过多步只允许重新进入此前已完成的步。
func (s *WizardService) Goto(ctx context.Context, userID uint, step int) (*model.WizardState, error) {
	if step < 0 || step >= model.WizardStepCount {
		return nil, util.ErrStepOutOfRange
	}

	state, err := s.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case step <= state.CurrentStep:
		// 向后导航始终允许
	case step == state.CurrentStep+1:
		if !state.CompletedSteps[state.CurrentStep] {
			return nil, util.ErrStepNotCompleted
		}
	default:
		if !state.CompletedSteps[step] {
			return nil, util.ErrStepNotReachable
		}
	}

	state.CurrentStep = step
	if err := s.persist(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// RunAITest 第5步：用已积累的数据组prompt、跑固定场景、评分，
// 结果写回会话并标记该步完成。
func (s *WizardService) RunAITest(ctx context.Context, userID uint) (*model.WizardState, *TestResult, error) {
	state, err := s.GetSession(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.Prompt.RunTest(state.Data)
	if err != nil {
		return nil, nil, err
	}

	state.Data.AITest = &model.AITestStepData{
		Score:    result.Score,
		Response: result.Response,
		Feedback: result.Feedback,
	}
	state.CompletedSteps[model.WizardStepAITest] = true
	if state.CurrentStep == model.WizardStepAITest {
		state.CurrentStep = model.WizardStepFinalPrompt
	}

	if err := s.persist(ctx, userID, state); err != nil {
		return nil, nil, err
	}
	return state, result, nil
}

// Complete 结束一次训练：归档成绩单到数据库并清掉活动会话
func (s *WizardService) Complete(ctx context.Context, userID uint) (*model.WizardRunRecord, error) {
	state, err := s.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if state.Data.FinalPrompt == nil || !state.CompletedSteps[model.WizardStepFinalPrompt] {
		return nil, util.ErrStepNotCompleted
	}

	record := &model.WizardRunRecord{
		UserID:      userID,
		Prompt:      state.Data.FinalPrompt.Prompt,
		CompletedAt: s.now(),
	}

	if test := state.Data.AITest; test != nil {
		record.Score = test.Score
		record.Feedback = datatypes.NewJSONSlice(test.Feedback)
		if analysis, err := json.Marshal(test); err == nil {
			record.Analysis = datatypes.JSON(analysis)
		}
	}

	if err := s.Store.ArchiveRun(record); err != nil {
		return nil, err
	}
	if err := s.Store.DeleteSession(ctx, userID); err != nil {
		logger.Log.Warn("归档后清理会话失败", zap.Uint("userID", userID), zap.Error(err))
	}
	return record, nil
}

// Reset 放弃当前会话
func (s *WizardService) Reset(ctx context.Context, userID uint) error {
	return s.Store.DeleteSession(ctx, userID)
}

// History 学员历次训练成绩
func (s *WizardService) History(userID uint) ([]model.WizardRunRecord, error) {
	return s.Store.ListRuns(userID)
}
