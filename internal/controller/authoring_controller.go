package controller

import (
	"errors"
	"prompt_lab_backend/internal/service"
	"prompt_lab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthoringController struct {
	AuthoringService *service.AuthoringService
}

func NewAuthoringController(authoringService *service.AuthoringService) *AuthoringController {
	return &AuthoringController{AuthoringService: authoringService}
}

// CreateCourse godoc
// @Summary 手工创建课程
// @Description 一次性提交完整课程树（模块与课时）
// @Tags 课程创作
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateCourseInput true "课程结构"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 403 {object} util.Response "仅教师可创建课程"
// @Router /api/authoring/courses [post]
func (c *AuthoringController) CreateCourse(ctx *gin.Context) {
	var input service.CreateCourseInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course, err := c.AuthoringService.CreateCourse(claims.UserID, input)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

type AddModuleRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// AddModule godoc
// @Summary 追加模块
// @Tags 课程创作
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Param   body body AddModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/authoring/courses/{id}/modules [post]
func (c *AuthoringController) AddModule(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	if courseID == 0 {
		util.BadRequest(ctx, "无效的课程ID")
		return
	}

	var req AddModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.AuthoringService.AddModule(courseID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, module)
}

// AddLesson godoc
// @Summary 追加课时
// @Tags 课程创作
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模块ID"
// @Param   body body service.LessonInput true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/authoring/modules/{id}/lessons [post]
func (c *AuthoringController) AddLesson(ctx *gin.Context) {
	moduleID := util.MustParseUint(ctx.Param("id"))
	if moduleID == 0 {
		util.BadRequest(ctx, "无效的模块ID")
		return
	}

	var input service.LessonInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.AuthoringService.AddLesson(moduleID, input)
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, lesson)
}

// GenerateCourse godoc
// @Summary AI生成课程
// @Description 让模型产出结构化大纲并直接建课（含测验题）
// @Tags 课程创作
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.OutlineRequest true "主题与参数"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 502 {object} util.Response "AI上游调用失败"
// @Failure 422 {object} util.Response "大纲无法解析"
// @Router /api/authoring/courses/generate [post]
func (c *AuthoringController) GenerateCourse(ctx *gin.Context) {
	var req service.OutlineRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course, err := c.AuthoringService.GenerateCourse(claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAIUpstream):
			util.BadGateway(ctx, err.Error())
		case errors.Is(err, util.ErrOutlineUnparseable):
			util.Error(ctx, 422, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, course)
}

// UploadSlides godoc
// @Summary 上传课时课件
// @Description 仅允许PDF与图片格式
// @Tags 课程创作
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Param   file formData file true "课件文件"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/authoring/lessons/{id}/slides [post]
func (c *AuthoringController) UploadSlides(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "无效的课时ID")
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	lesson, err := c.AuthoringService.UploadSlides(ctx.Request.Context(), lessonID, file)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidSlideExt):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lesson)
}

// UploadVideo godoc
// @Summary 上传课时视频
// @Description 上传后提取时长并生成缩略图
// @Tags 课程创作
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Param   file formData file true "视频文件"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/authoring/lessons/{id}/video [post]
func (c *AuthoringController) UploadVideo(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "无效的课时ID")
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	lesson, err := c.AuthoringService.UploadVideo(ctx.Request.Context(), lessonID, file)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidVideoExt):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lesson)
}
