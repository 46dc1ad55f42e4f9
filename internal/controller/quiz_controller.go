package controller

import (
	"errors"
	"prompt_lab_backend/internal/service"
	"prompt_lab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// GetLessonQuiz godoc
// @Summary 课时测验题
// @Description 返回课时测验题目，不含正确答案与解析
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=[]model.QuizQuestion}
// @Failure 404 {object} util.Response "课时或测验不存在"
// @Router /api/lessons/{id}/quiz [get]
func (c *QuizController) GetLessonQuiz(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "无效的课时ID")
		return
	}

	questions, err := c.QuizService.GetLessonQuiz(lessonID)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) || errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, questions)
}

// SubmitQuizRequest 答案为题目ID到所选选项下标的映射
type SubmitQuizRequest struct {
	Answers map[uint]int `json:"answers" binding:"required"`
}

// SubmitQuiz godoc
// @Summary 提交测验答案
// @Description 判分并落库，返回每题对错与解析
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Param   body body SubmitQuizRequest true "作答"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Failure 404 {object} util.Response "课时或测验不存在"
// @Router /api/lessons/{id}/quiz/submit [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "无效的课时ID")
		return
	}

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.QuizService.SubmitQuiz(claims.UserID, lessonID, req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) || errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}
