package controller

import (
	"errors"
	"prompt_lab_backend/internal/service"
	"prompt_lab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// 未登录访问时按匿名预览处理（全部未完成，仅首课时解锁）
func currentUserID(ctx *gin.Context) uint {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return 0
	}
	return claims.UserID
}

// ListCourses godoc
// @Summary 课程目录
// @Description 返回带进度标注的全部课程，未登录时为匿名预览
// @Tags 课程
// @Produce  json
// @Success 200 {object} util.Response{data=[]service.CourseView}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	views, err := c.CourseService.ListCourses(currentUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GetCourse godoc
// @Summary 单课程详情
// @Description 返回单课程的模块/课时树，含完成与锁定标记
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseView}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	if courseID == 0 {
		util.BadRequest(ctx, "无效的课程ID")
		return
	}

	view, err := c.CourseService.GetCourse(currentUserID(ctx), courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}
