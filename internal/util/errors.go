package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrQuizNotFound       = errors.New("no quiz for this lesson")
	ErrStepOutOfRange     = errors.New("wizard step out of range")
	ErrStepNotCompleted   = errors.New("current step not completed")
	ErrStepNotReachable   = errors.New("cannot skip ahead to this step")
	ErrAIUpstream         = errors.New("AI服务调用失败，请检查API配置")
	ErrOutlineUnparseable = errors.New("AI返回的课程大纲无法解析")
	ErrInvalidSlideExt    = errors.New("仅支持PDF或图片格式的课件")
	ErrInvalidVideoExt    = errors.New("不支持的视频格式")
)
