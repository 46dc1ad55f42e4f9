package service

import (
	"context"
	"encoding/json"
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSessionStore 内存版会话存储，记录写入时的TTL
type fakeSessionStore struct {
	sessions map[uint][]byte
	ttls     map[uint]time.Duration
	archived []*model.WizardRunRecord
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[uint][]byte),
		ttls:     make(map[uint]time.Duration),
	}
}

func (f *fakeSessionStore) LoadSession(ctx context.Context, userID uint) ([]byte, error) {
	return f.sessions[userID], nil
}

func (f *fakeSessionStore) SaveSession(ctx context.Context, userID uint, payload []byte, ttl time.Duration) error {
	f.sessions[userID] = payload
	f.ttls[userID] = ttl
	return nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, userID uint) error {
	delete(f.sessions, userID)
	return nil
}

func (f *fakeSessionStore) ArchiveRun(record *model.WizardRunRecord) error {
	f.archived = append(f.archived, record)
	return nil
}

func (f *fakeSessionStore) ListRuns(userID uint) ([]model.WizardRunRecord, error) {
	var runs []model.WizardRunRecord
	for _, r := range f.archived {
		if r.UserID == userID {
			runs = append(runs, *r)
		}
	}
	return runs, nil
}

func newTestWizardService(store *fakeSessionStore, client CompletionClient) *WizardService {
	return NewWizardService(store, NewPromptService(client), 24*time.Hour)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestWizardFreshSession(t *testing.T) {
	s := newTestWizardService(newFakeSessionStore(), nil)

	state, err := s.GetSession(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, state.CurrentStep)
	assert.Equal(t, model.WizardSchemaVersion, state.SchemaVersion)
	assert.Len(t, state.CompletedSteps, model.WizardStepCount)
	assert.Nil(t, state.Data.Role)
}

func TestWizardUpdateStepAdvancesAndPersists(t *testing.T) {
	store := newFakeSessionStore()
	s := newTestWizardService(store, nil)
	ctx := context.Background()

	state, err := s.UpdateStep(ctx, 1, model.WizardStepRole, mustJSON(t, model.RoleStepData{Role: "a support agent"}))
	require.NoError(t, err)

	assert.Equal(t, model.WizardStepContext, state.CurrentStep)
	assert.True(t, state.CompletedSteps[model.WizardStepRole])
	require.NotNil(t, state.Data.Role)
	assert.Equal(t, "a support agent", state.Data.Role.Role)

	// 会话写入带24小时TTL
	assert.Equal(t, 24*time.Hour, store.ttls[1])

	restored, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, state.CurrentStep, restored.CurrentStep)
	assert.Equal(t, state.CompletedSteps, restored.CompletedSteps)
	assert.Equal(t, "a support agent", restored.Data.Role.Role)
}

func TestWizardRestoreExpiredSessionStartsFresh(t *testing.T) {
	store := newFakeSessionStore()
	s := newTestWizardService(store, nil)
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	_, err := s.UpdateStep(ctx, 1, model.WizardStepRole, mustJSON(t, model.RoleStepData{Role: "x"}))
	require.NoError(t, err)

	// 超过24小时后恢复，持久化状态视为不存在
	current = current.Add(24*time.Hour + time.Minute)
	state, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentStep)
	assert.Nil(t, state.Data.Role)
}

func TestWizardRestoreWithinTTLKeepsState(t *testing.T) {
	store := newFakeSessionStore()
	s := newTestWizardService(store, nil)
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	_, err := s.UpdateStep(ctx, 1, model.WizardStepRole, mustJSON(t, model.RoleStepData{Role: "x"}))
	require.NoError(t, err)

	current = current.Add(23 * time.Hour)
	state, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.WizardStepContext, state.CurrentStep)
	require.NotNil(t, state.Data.Role)
}

func TestWizardRestoreCorruptedSessionStartsFresh(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions[1] = []byte("{not valid json")
	s := newTestWizardService(store, nil)

	state, err := s.GetSession(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentStep)
}

func TestWizardRestoreWrongSchemaVersionStartsFresh(t *testing.T) {
	store := newFakeSessionStore()
	old := model.NewWizardState()
	old.SchemaVersion = 0
	old.CurrentStep = 3
	old.SavedAt = time.Now().UnixMilli()
	store.sessions[1], _ = json.Marshal(old)

	s := newTestWizardService(store, nil)
	state, err := s.GetSession(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentStep)
}

func TestWizardGotoRules(t *testing.T) {
	store := newFakeSessionStore()
	s := newTestWizardService(store, nil)
	ctx := context.Background()

	// 未完成当前步不能前进
	_, err := s.Goto(ctx, 1, 1)
	assert.ErrorIs(t, err, util.ErrStepNotCompleted)

	_, err = s.UpdateStep(ctx, 1, model.WizardStepRole, mustJSON(t, model.RoleStepData{Role: "x"}))
	require.NoError(t, err)
	_, err = s.UpdateStep(ctx, 1, model.WizardStepContext, mustJSON(t, model.ContextStepData{Description: "d"}))
	require.NoError(t, err)

	// 当前在第2步：向后自由，跳到第3步需先完成第2步
	state, err := s.Goto(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentStep)

	// 回到第0步后，第2步已是此前到过但未完成的步，跳两步不放行
	_, err = s.Goto(ctx, 1, 2)
	assert.ErrorIs(t, err, util.ErrStepNotReachable)

	// 已完成的步可以重新进入
	state, err = s.Goto(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStep)

	_, err = s.Goto(ctx, 1, model.WizardStepCount)
	assert.ErrorIs(t, err, util.ErrStepOutOfRange)
	_, err = s.Goto(ctx, 1, -1)
	assert.ErrorIs(t, err, util.ErrStepOutOfRange)
}

func TestWizardUpdateStepRejectsSkipAhead(t *testing.T) {
	s := newTestWizardService(newFakeSessionStore(), nil)
	ctx := context.Background()

	_, err := s.UpdateStep(ctx, 1, model.WizardStepTone, mustJSON(t, model.ToneStepData{}))
	assert.ErrorIs(t, err, util.ErrStepNotReachable)

	// AI实测步不接受直接提交
	_, err = s.UpdateStep(ctx, 1, model.WizardStepAITest, mustJSON(t, model.AITestStepData{Score: 10}))
	assert.ErrorIs(t, err, util.ErrStepOutOfRange)
}

func completeStepsThroughFormat(t *testing.T, s *WizardService, userID uint) {
	t.Helper()
	ctx := context.Background()

	steps := []struct {
		step int
		data interface{}
	}{
		{model.WizardStepRole, model.RoleStepData{Role: "a support agent"}},
		{model.WizardStepContext, model.ContextStepData{Description: "online store"}},
		{model.WizardStepTasks, model.TasksStepData{Tasks: []string{"reply"}}},
		{model.WizardStepTone, model.ToneStepData{Formality: 50, Empathy: 50, Directness: 50}},
		{model.WizardStepFormat, model.FormatStepData{Format: "an email"}},
	}
	for _, st := range steps {
		_, err := s.UpdateStep(ctx, userID, st.step, mustJSON(t, st.data))
		require.NoError(t, err)
	}
}

func TestWizardRunAITestStoresResult(t *testing.T) {
	store := newFakeSessionStore()
	client := &stubCompletionClient{
		replies: []string{
			"Dear customer...",
			`{"completeness": 100, "accuracy": 100, "tone": 100, "specificity": 100, "actionability": 100, "feedback": ["Great"]}`,
		},
	}
	s := newTestWizardService(store, client)
	ctx := context.Background()

	completeStepsThroughFormat(t, s, 1)

	state, result, err := s.RunAITest(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Score)
	require.NotNil(t, state.Data.AITest)
	assert.Equal(t, 10, state.Data.AITest.Score)
	assert.True(t, state.CompletedSteps[model.WizardStepAITest])
	assert.Equal(t, model.WizardStepFinalPrompt, state.CurrentStep)
}

func TestWizardCompleteArchivesAndClearsSession(t *testing.T) {
	store := newFakeSessionStore()
	client := &stubCompletionClient{
		replies: []string{
			"Dear customer...",
			`{"completeness": 90, "accuracy": 90, "tone": 90, "specificity": 90, "actionability": 90, "feedback": ["ok"]}`,
		},
	}
	s := newTestWizardService(store, client)
	ctx := context.Background()

	completeStepsThroughFormat(t, s, 1)
	_, _, err := s.RunAITest(ctx, 1)
	require.NoError(t, err)

	// 最终提示词未提交时不能完成
	_, err = s.Complete(ctx, 1)
	assert.ErrorIs(t, err, util.ErrStepNotCompleted)

	_, err = s.UpdateStep(ctx, 1, model.WizardStepFinalPrompt, mustJSON(t, model.FinalPromptStepData{Prompt: "my final prompt"}))
	require.NoError(t, err)

	record, err := s.Complete(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, "my final prompt", record.Prompt)
	assert.Equal(t, 9, record.Score)
	require.Len(t, store.archived, 1)
	assert.Empty(t, store.sessions, "归档后应清除活动会话")

	// 下次进入是全新会话
	state, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentStep)
}

func TestWizardReset(t *testing.T) {
	store := newFakeSessionStore()
	s := newTestWizardService(store, nil)
	ctx := context.Background()

	_, err := s.UpdateStep(ctx, 1, model.WizardStepRole, mustJSON(t, model.RoleStepData{Role: "x"}))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, 1))

	state, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentStep)
	assert.Nil(t, state.Data.Role)
}
