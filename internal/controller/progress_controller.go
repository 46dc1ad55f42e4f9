package controller

import (
	"errors"
	"prompt_lab_backend/internal/service"
	"prompt_lab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// Overview godoc
// @Summary 学习进度总览
// @Description 当前用户在所有课程上的完成情况摘要
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.CourseProgressSummary}
// @Router /api/progress [get]
func (c *ProgressController) Overview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summaries, err := c.ProgressService.Overview(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summaries)
}

// AccessLesson godoc
// @Summary 记录课时访问
// @Description 首次访问建立进度记录，更新最近访问时间
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.LessonProgress}
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/lessons/{id}/access [post]
func (c *ProgressController) AccessLesson(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "无效的课时ID")
		return
	}

	claims := util.GetUserFromContext(ctx)
	record, err := c.ProgressService.AccessLesson(claims.UserID, lessonID)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, record)
}

// CompleteLesson godoc
// @Summary 完成课时
// @Description 显式标记课时完成，重复完成保持首次完成时间
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.LessonProgress}
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/lessons/{id}/complete [post]
func (c *ProgressController) CompleteLesson(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "无效的课时ID")
		return
	}

	claims := util.GetUserFromContext(ctx)
	record, err := c.ProgressService.CompleteLesson(claims.UserID, lessonID)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, record)
}

// ResetProgress godoc
// @Summary 重置学习进度
// @Description 删除当前用户的全部进度记录
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/progress/reset [post]
func (c *ProgressController) ResetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.ProgressService.ResetProgress(claims.UserID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
