package model

// 向导固定7步：角色、业务背景、任务清单、语气、输出格式、AI实测、最终提示词
const (
	WizardStepRole = iota
	WizardStepContext
	WizardStepTasks
	WizardStepTone
	WizardStepFormat
	WizardStepAITest
	WizardStepFinalPrompt
	WizardStepCount
)

const WizardSchemaVersion = 1

// RoleStepData 第0步：学员扮演的角色与经验年限
type RoleStepData struct {
	Role            string `json:"role" binding:"required"`
	ExperienceYears int    `json:"experienceYears"`
}

// ContextStepData 第1步：业务背景描述
type ContextStepData struct {
	Industry    string `json:"industry"`
	Description string `json:"description" binding:"required"`
}

// TasksStepData 第2步：任务清单
type TasksStepData struct {
	Tasks []string `json:"tasks" binding:"required,min=1"`
}

// ToneStepData 第3步：语气滑杆，各维度0-100
type ToneStepData struct {
	Formality  int `json:"formality" binding:"min=0,max=100"`
	Empathy    int `json:"empathy" binding:"min=0,max=100"`
	Directness int `json:"directness" binding:"min=0,max=100"`
}

// FormatStepData 第4步：输出格式选项
type FormatStepData struct {
	Format      string `json:"format" binding:"required"`
	MaxLength   int    `json:"maxLength"`
	UseSections bool   `json:"useSections"`
}

// AITestStepData 第5步：AI实测结果（由服务端写入，非学员输入）
type AITestStepData struct {
	Score    int      `json:"score"`
	Response string   `json:"response"`
	Feedback []string `json:"feedback"`
}

// FinalPromptStepData 第6步：学员自由撰写的最终提示词
type FinalPromptStepData struct {
	Prompt string `json:"prompt" binding:"required"`
}

// WizardData 各步骤贡献的数据，指针为nil表示该步尚未填写。
// 按步骤分字段而非散平的万能bag，未填写与已填写在类型上可区分。
type WizardData struct {
	Role        *RoleStepData        `json:"role,omitempty"`
	Context     *ContextStepData     `json:"context,omitempty"`
	Tasks       *TasksStepData       `json:"tasks,omitempty"`
	Tone        *ToneStepData        `json:"tone,omitempty"`
	Format      *FormatStepData      `json:"format,omitempty"`
	AITest      *AITestStepData      `json:"aiTest,omitempty"`
	FinalPrompt *FinalPromptStepData `json:"finalPrompt,omitempty"`
}

// WizardState 整个向导会话的持久化载荷。
// 每次变更整体覆盖写入，SavedAt记录写入时刻（毫秒时间戳），
// 恢复时超过会话TTL视为不存在。
type WizardState struct {
	SchemaVersion  int        `json:"schemaVersion"`
	CurrentStep    int        `json:"currentStep"`
	Data           WizardData `json:"data"`
	CompletedSteps []bool     `json:"completedSteps"`
	SavedAt        int64      `json:"savedAt"`
}

// NewWizardState 全新的第0步会话
func NewWizardState() *WizardState {
	return &WizardState{
		SchemaVersion:  WizardSchemaVersion,
		CurrentStep:    WizardStepRole,
		CompletedSteps: make([]bool, WizardStepCount),
	}
}
