package service

import (
	"encoding/json"
	"fmt"
	"math"
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/pkg/logger"
	"prompt_lab_backend/pkg/monitoring"
	"strings"

	"go.uber.org/zap"
)

// CompletionClient 单轮补全抽象，生产环境由AIService实现
type CompletionClient interface {
	Chat(system, prompt string) (string, error)
}

// TestScenario 实测环节使用的固定客服邮件场景
const TestScenario = `You have received the following email from a customer:

"Hi, I ordered a laptop from your store two weeks ago (order #48215). It still hasn't arrived and the tracking page has shown 'in transit' for ten days. I need it for work next Monday. Can you tell me what's going on, and what you'll do about it?"

Write a reply to this customer.`

const scoringSystemPrompt = `You are an expert evaluator of AI prompt quality. You will receive a prompt written by a learner, a test scenario, and the AI response that prompt produced. Rate the response on five dimensions as integer percentages from 0 to 100 and give short feedback lines.

Respond with ONLY a JSON object in this exact shape:
{"completeness": 0, "accuracy": 0, "tone": 0, "specificity": 0, "actionability": 0, "feedback": ["..."]}`

// ScoreAnalysis 评分接口返回的五维子分，均为0-100整数
type ScoreAnalysis struct {
	Completeness  int `json:"completeness"`
	Accuracy      int `json:"accuracy"`
	Tone          int `json:"tone"`
	Specificity   int `json:"specificity"`
	Actionability int `json:"actionability"`
}

type scoringResponse struct {
	ScoreAnalysis
	Feedback []string `json:"feedback"`
}

// TestResult AI实测的完整结果：模型回复、0-10总分、五维分析、反馈列表
type TestResult struct {
	Response string        `json:"response"`
	Score    int           `json:"score"`
	Analysis ScoreAnalysis `json:"analysis"`
	Feedback []string      `json:"feedback"`
}

type PromptService struct {
	AI CompletionClient
}

func NewPromptService(ai CompletionClient) *PromptService {
	return &PromptService{AI: ai}
}

// Assemble 把向导各步数据拼成带标签段落的提示词文本。
// 缺失的步骤直接省略对应段落，不插占位符。
func (s *PromptService) Assemble(data model.WizardData) string {
	var sections []string

	if data.Role != nil {
		role := data.Role.Role
		if data.Role.ExperienceYears > 0 {
			role = fmt.Sprintf("%s with %d years of experience", role, data.Role.ExperienceYears)
		}
		sections = append(sections, "ROLE:\nYou are "+role+".")
	}

	if data.Context != nil {
		ctx := data.Context.Description
		if data.Context.Industry != "" {
			ctx = fmt.Sprintf("Industry: %s\n%s", data.Context.Industry, ctx)
		}
		sections = append(sections, "CONTEXT:\n"+ctx)
	}

	if data.Tasks != nil && len(data.Tasks.Tasks) > 0 {
		var b strings.Builder
		b.WriteString("TASK:")
		for _, t := range data.Tasks.Tasks {
			b.WriteString("\n- ")
			b.WriteString(t)
		}
		sections = append(sections, b.String())
	}

	if data.Tone != nil {
		sections = append(sections, fmt.Sprintf(
			"CONSTRAINTS:\nTone guidance (0-100 scales): formality %d, empathy %d, directness %d.",
			data.Tone.Formality, data.Tone.Empathy, data.Tone.Directness))
	}

	if data.Format != nil {
		var b strings.Builder
		b.WriteString("OUTPUT FORMAT:\n")
		b.WriteString("Respond as " + data.Format.Format + ".")
		if data.Format.MaxLength > 0 {
			fmt.Fprintf(&b, " Keep the response under %d words.", data.Format.MaxLength)
		}
		if data.Format.UseSections {
			b.WriteString(" Organize the response into clearly separated sections.")
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

// RunTest 实测流水线：组装的提示词作为system、固定场景作为user发起首次调用，
// 再把三者送去评分。首次调用失败是硬错误；评分失败则回退到中性分，不阻塞学员。
func (s *PromptService) RunTest(data model.WizardData) (*TestResult, error) {
	assembled := s.Assemble(data)

	response, err := s.AI.Chat(assembled, TestScenario)
	if err != nil {
		monitoring.AICallCounter.WithLabelValues("wizard_test", "error").Inc()
		return nil, err
	}
	monitoring.AICallCounter.WithLabelValues("wizard_test", "success").Inc()

	analysis, feedback := s.scoreResponse(assembled, response)

	return &TestResult{
		Response: response,
		Score:    ReduceScore(analysis),
		Analysis: analysis,
		Feedback: feedback,
	}, nil
}

// scoreResponse 评分调用及解析，任何一步失败都回退到全70中性分
func (s *PromptService) scoreResponse(prompt, response string) (ScoreAnalysis, []string) {
	scoringUser := fmt.Sprintf(
		"Learner's prompt:\n%s\n\nTest scenario:\n%s\n\nAI response to evaluate:\n%s",
		prompt, TestScenario, response)

	raw, err := s.AI.Chat(scoringSystemPrompt, scoringUser)
	if err != nil {
		logger.Log.Warn("评分调用失败，使用中性分兜底", zap.Error(err))
		monitoring.AICallCounter.WithLabelValues("wizard_score", "error").Inc()
		return fallbackAnalysis()
	}

	var parsed scoringResponse
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil {
		logger.Log.Warn("评分结果解析失败，使用中性分兜底", zap.Error(err), zap.String("raw", raw))
		monitoring.AICallCounter.WithLabelValues("wizard_score", "parse_error").Inc()
		return fallbackAnalysis()
	}

	monitoring.AICallCounter.WithLabelValues("wizard_score", "success").Inc()
	return parsed.ScoreAnalysis, parsed.Feedback
}

func fallbackAnalysis() (ScoreAnalysis, []string) {
	return ScoreAnalysis{
			Completeness:  70,
			Accuracy:      70,
			Tone:          70,
			Specificity:   70,
			Actionability: 70,
		}, []string{
			"Automatic analysis was unavailable; default scores applied.",
		}
}

// ReduceScore 五维加权平均（0.25/0.25/0.20/0.15/0.15），再从0-100压到0-10四舍五入
func ReduceScore(a ScoreAnalysis) int {
	weighted := 0.25*float64(a.Completeness) +
		0.25*float64(a.Accuracy) +
		0.20*float64(a.Tone) +
		0.15*float64(a.Specificity) +
		0.15*float64(a.Actionability)
	return int(math.Round(weighted / 10))
}

// StripCodeFence 剥掉模型常见的markdown代码围栏包裹
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// 围栏行可能带语言标记，如 ```json
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
