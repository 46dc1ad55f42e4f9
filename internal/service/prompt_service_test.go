package service

import (
	"errors"
	"prompt_lab_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCompletionClient 按调用次序返回预置应答
type stubCompletionClient struct {
	replies []string
	errs    []error
	calls   int
	systems []string
	users   []string
}

func (s *stubCompletionClient) Chat(system, user string) (string, error) {
	i := s.calls
	s.calls++
	s.systems = append(s.systems, system)
	s.users = append(s.users, user)

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	reply := ""
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return reply, err
}

func fullWizardData() model.WizardData {
	return model.WizardData{
		Role:    &model.RoleStepData{Role: "a customer support specialist", ExperienceYears: 5},
		Context: &model.ContextStepData{Industry: "E-commerce", Description: "Online electronics store"},
		Tasks:   &model.TasksStepData{Tasks: []string{"Answer the customer", "Offer a resolution"}},
		Tone:    &model.ToneStepData{Formality: 70, Empathy: 80, Directness: 60},
		Format:  &model.FormatStepData{Format: "a professional email", MaxLength: 200},
	}
}

func TestAssembleAllSections(t *testing.T) {
	s := NewPromptService(nil)
	prompt := s.Assemble(fullWizardData())

	assert.Contains(t, prompt, "ROLE:")
	assert.Contains(t, prompt, "a customer support specialist with 5 years of experience")
	assert.Contains(t, prompt, "CONTEXT:")
	assert.Contains(t, prompt, "Industry: E-commerce")
	assert.Contains(t, prompt, "TASK:")
	assert.Contains(t, prompt, "- Answer the customer")
	assert.Contains(t, prompt, "CONSTRAINTS:")
	assert.Contains(t, prompt, "formality 70")
	assert.Contains(t, prompt, "OUTPUT FORMAT:")
	assert.Contains(t, prompt, "under 200 words")
}

func TestAssembleOmitsAbsentSections(t *testing.T) {
	s := NewPromptService(nil)

	prompt := s.Assemble(model.WizardData{
		Role: &model.RoleStepData{Role: "an analyst"},
	})

	assert.Contains(t, prompt, "ROLE:")
	assert.NotContains(t, prompt, "CONTEXT:")
	assert.NotContains(t, prompt, "TASK:")
	assert.NotContains(t, prompt, "CONSTRAINTS:")
	assert.NotContains(t, prompt, "OUTPUT FORMAT:")

	// 全空也不插占位符
	assert.Equal(t, "", s.Assemble(model.WizardData{}))
}

func TestReduceScorePerfect(t *testing.T) {
	score := ReduceScore(ScoreAnalysis{
		Completeness:  100,
		Accuracy:      100,
		Tone:          100,
		Specificity:   100,
		Actionability: 100,
	})
	assert.Equal(t, 10, score)
}

func TestReduceScoreNeutralFallbackSet(t *testing.T) {
	score := ReduceScore(ScoreAnalysis{
		Completeness:  70,
		Accuracy:      70,
		Tone:          70,
		Specificity:   70,
		Actionability: 70,
	})
	assert.Equal(t, 7, score)
}

func TestReduceScoreWeighted(t *testing.T) {
	// 0.25*80 + 0.25*60 + 0.20*90 + 0.15*50 + 0.15*100 = 75.5 → 8
	score := ReduceScore(ScoreAnalysis{
		Completeness:  80,
		Accuracy:      60,
		Tone:          90,
		Specificity:   50,
		Actionability: 100,
	})
	assert.Equal(t, 8, score)
}

func TestRunTestHappyPath(t *testing.T) {
	client := &stubCompletionClient{
		replies: []string{
			"Dear customer, here is what we will do...",
			`{"completeness": 90, "accuracy": 85, "tone": 95, "specificity": 80, "actionability": 88, "feedback": ["Clear ownership of the problem"]}`,
		},
	}
	s := NewPromptService(client)

	result, err := s.RunTest(fullWizardData())
	require.NoError(t, err)

	assert.Equal(t, "Dear customer, here is what we will do...", result.Response)
	assert.Equal(t, 9, result.Score)
	assert.Equal(t, 90, result.Analysis.Completeness)
	assert.Equal(t, []string{"Clear ownership of the problem"}, result.Feedback)

	// 首次调用：组装的提示词为system，固定场景为user
	require.Equal(t, 2, client.calls)
	assert.Contains(t, client.systems[0], "ROLE:")
	assert.Equal(t, TestScenario, client.users[0])
}

func TestRunTestStripsCodeFence(t *testing.T) {
	client := &stubCompletionClient{
		replies: []string{
			"reply",
			"```json\n{\"completeness\": 100, \"accuracy\": 100, \"tone\": 100, \"specificity\": 100, \"actionability\": 100, \"feedback\": []}\n```",
		},
	}
	s := NewPromptService(client)

	result, err := s.RunTest(fullWizardData())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Score)
}

func TestRunTestScoringFailureFallsBack(t *testing.T) {
	client := &stubCompletionClient{
		replies: []string{"reply", ""},
		errs:    []error{nil, errors.New("rate limited")},
	}
	s := NewPromptService(client)

	result, err := s.RunTest(fullWizardData())
	require.NoError(t, err, "评分失败不应阻塞学员")

	assert.Equal(t, 7, result.Score)
	assert.Equal(t, 70, result.Analysis.Tone)
	require.Len(t, result.Feedback, 1)
	assert.Contains(t, result.Feedback[0], "Automatic analysis was unavailable")
}

func TestRunTestUnparseableScoringFallsBack(t *testing.T) {
	client := &stubCompletionClient{
		replies: []string{"reply", "I would rate this response an 8 out of 10."},
	}
	s := NewPromptService(client)

	result, err := s.RunTest(fullWizardData())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Score)
}

func TestRunTestPrimaryFailureIsHardError(t *testing.T) {
	client := &stubCompletionClient{
		errs: []error{errors.New("upstream down")},
	}
	s := NewPromptService(client)

	_, err := s.RunTest(fullWizardData())
	assert.Error(t, err)
	assert.Equal(t, 1, client.calls, "首次调用失败后不应再发起评分调用")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1}  "))
}
