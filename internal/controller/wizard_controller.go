package controller

import (
	"encoding/json"
	"errors"
	"prompt_lab_backend/internal/service"
	"prompt_lab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type WizardController struct {
	WizardService *service.WizardService
}

func NewWizardController(wizardService *service.WizardService) *WizardController {
	return &WizardController{WizardService: wizardService}
}

// GetSession godoc
// @Summary 获取向导会话
// @Description 恢复当前用户的训练会话；不存在或已过期时返回全新第0步状态
// @Tags 训练向导
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.WizardState}
// @Router /api/wizard/session [get]
func (c *WizardController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	state, err := c.WizardService.GetSession(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// UpdateStepRequest 步骤提交载荷，data结构随step变化
type UpdateStepRequest struct {
	Step int             `json:"step"`
	Data json.RawMessage `json:"data" binding:"required"`
}

// UpdateStep godoc
// @Summary 提交步骤数据
// @Description 写入某一步的数据并标记该步完成，当前步会顺势前进
// @Tags 训练向导
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body UpdateStepRequest true "步骤数据"
// @Success 200 {object} util.Response{data=model.WizardState}
// @Failure 400 {object} util.Response "步骤越界或数据非法"
// @Failure 409 {object} util.Response "不允许跳步提交"
// @Router /api/wizard/steps [post]
func (c *WizardController) UpdateStep(ctx *gin.Context) {
	var req UpdateStepRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	state, err := c.WizardService.UpdateStep(ctx.Request.Context(), claims.UserID, req.Step, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStepOutOfRange):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrStepNotReachable):
			util.Error(ctx, 409, err.Error())
		default:
			var typeErr *json.UnmarshalTypeError
			var syntaxErr *json.SyntaxError
			if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) {
				util.BadRequest(ctx, "步骤数据格式错误")
			} else {
				util.LogInternalError(ctx, err)
			}
		}
		return
	}
	util.Success(ctx, state)
}

type GotoRequest struct {
	Step int `json:"step"`
}

// Goto godoc
// @Summary 步骤导航
// @Description 向后随意；向前一步需当前步已完成；跳多步只能进入已完成的步
// @Tags 训练向导
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body GotoRequest true "目标步骤"
// @Success 200 {object} util.Response{data=model.WizardState}
// @Failure 409 {object} util.Response "步骤门控不放行"
// @Router /api/wizard/goto [post]
func (c *WizardController) Goto(ctx *gin.Context) {
	var req GotoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	state, err := c.WizardService.Goto(ctx.Request.Context(), claims.UserID, req.Step)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStepOutOfRange):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrStepNotCompleted), errors.Is(err, util.ErrStepNotReachable):
			util.Error(ctx, 409, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, state)
}

// RunAITest godoc
// @Summary AI实测
// @Description 用已积累的向导数据组装提示词，跑固定客服场景并评分
// @Tags 训练向导
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Failure 502 {object} util.Response "AI上游调用失败"
// @Router /api/wizard/ai-test [post]
func (c *WizardController) RunAITest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	state, result, err := c.WizardService.RunAITest(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.BadGateway(ctx, util.ErrAIUpstream.Error())
		return
	}
	util.Success(ctx, gin.H{
		"state":  state,
		"result": result,
	})
}

// Complete godoc
// @Summary 完成训练
// @Description 归档本次训练成绩并清除活动会话
// @Tags 训练向导
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.WizardRunRecord}
// @Failure 409 {object} util.Response "最终提示词尚未提交"
// @Router /api/wizard/complete [post]
func (c *WizardController) Complete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	record, err := c.WizardService.Complete(ctx.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrStepNotCompleted) {
			util.Error(ctx, 409, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, record)
}

// Reset godoc
// @Summary 放弃当前训练会话
// @Tags 训练向导
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/wizard/session [delete]
func (c *WizardController) Reset(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.WizardService.Reset(ctx.Request.Context(), claims.UserID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// History godoc
// @Summary 历次训练成绩
// @Tags 训练向导
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.WizardRunRecord}
// @Router /api/wizard/history [get]
func (c *WizardController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	runs, err := c.WizardService.History(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, runs)
}
