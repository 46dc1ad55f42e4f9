package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"prompt_lab_backend/internal/config"
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/internal/repository"
	"prompt_lab_backend/internal/util"
	"prompt_lab_backend/pkg/cache"
	"prompt_lab_backend/pkg/logger"
	"prompt_lab_backend/pkg/monitoring"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// LessonInput 手工建课时的课时描述
type LessonInput struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
	Content         string `json:"content"`
	Example         string `json:"example"`
}

type ModuleInput struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Lessons     []LessonInput `json:"lessons"`
}

type CreateCourseInput struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Modules     []ModuleInput `json:"modules"`
}

// OutlineRequest AI生成课程大纲的请求参数
type OutlineRequest struct {
	Topic       string `json:"topic" binding:"required"`
	Audience    string `json:"audience"`
	ModuleCount int    `json:"moduleCount"`
}

// AuthoringService 课程创作：手工建课、AI大纲生成、课时媒体上传
type AuthoringService struct {
	CourseRepo *repository.CourseRepository
	QuizRepo   *repository.QuizRepository
	AI         CompletionClient
	Storage    *StorageService
	Cfg        *config.Config
	Cache      *cache.Cache
}

func NewAuthoringService(courseRepo *repository.CourseRepository, quizRepo *repository.QuizRepository, ai CompletionClient, storage *StorageService, cfg *config.Config, c *cache.Cache) *AuthoringService {
	return &AuthoringService{
		CourseRepo: courseRepo,
		QuizRepo:   quizRepo,
		AI:         ai,
		Storage:    storage,
		Cfg:        cfg,
		Cache:      c,
	}
}

// CreateCourse 手工创建完整课程树，顺序下标按提交顺序从1分配
func (s *AuthoringService) CreateCourse(authorID uint, input CreateCourseInput) (*model.Course, error) {
	course := &model.Course{
		Title:       input.Title,
		Description: input.Description,
		AuthorID:    authorID,
	}

	for mi, m := range input.Modules {
		module := model.CourseModule{
			Title:       m.Title,
			Description: m.Description,
			Order:       mi + 1,
		}
		for li, l := range m.Lessons {
			module.Lessons = append(module.Lessons, model.Lesson{
				Title:           l.Title,
				Description:     l.Description,
				DurationMinutes: l.DurationMinutes,
				Order:           li + 1,
				Content:         l.Content,
				Example:         l.Example,
			})
			course.DurationMinutes += l.DurationMinutes
		}
		course.Modules = append(course.Modules, module)
	}

	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	s.Cache.Invalidate(cache.CoursesKey)
	return course, nil
}

// AddModule 向已有课程追加模块，顺序取当前最大值+1
func (s *AuthoringService) AddModule(courseID uint, title, description string) (*model.CourseModule, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		return nil, util.ErrCourseNotFound
	}

	order, err := s.CourseRepo.NextModuleOrder(courseID)
	if err != nil {
		return nil, err
	}

	module := &model.CourseModule{
		CourseID:    courseID,
		Title:       title,
		Description: description,
		Order:       order,
	}
	if err := s.CourseRepo.CreateModule(module); err != nil {
		return nil, err
	}

	s.Cache.Invalidate(cache.CoursesKey, cache.CourseKey(courseID))
	return module, nil
}

// AddLesson 向已有模块追加课时
func (s *AuthoringService) AddLesson(moduleID uint, input LessonInput) (*model.Lesson, error) {
	module, err := s.CourseRepo.FindModuleByID(moduleID)
	if err != nil {
		return nil, util.ErrModuleNotFound
	}

	order, err := s.CourseRepo.NextLessonOrder(moduleID)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		ModuleID:        moduleID,
		Title:           input.Title,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		Order:           order,
		Content:         input.Content,
		Example:         input.Example,
	}
	if err := s.CourseRepo.CreateLesson(lesson); err != nil {
		return nil, err
	}

	s.Cache.Invalidate(cache.CoursesKey, cache.CourseKey(module.CourseID))
	return lesson, nil
}

const outlineSystemPrompt = `You are a curriculum designer. Produce a course outline for the requested topic.

Respond with ONLY a JSON object in this exact shape:
{
  "title": "...",
  "description": "...",
  "modules": [
    {
      "title": "...",
      "description": "...",
      "lessons": [
        {
          "title": "...",
          "description": "...",
          "durationMinutes": 10,
          "content": "...",
          "quiz": [
            {"question": "...", "options": ["...", "..."], "answer": 0, "explanation": "..."}
          ]
        }
      ]
    }
  ]
}`

type outlineQuiz struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation"`
}

type outlineLesson struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	DurationMinutes int           `json:"durationMinutes"`
	Content         string        `json:"content"`
	Quiz            []outlineQuiz `json:"quiz"`
}

type outlineModule struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Lessons     []outlineLesson `json:"lessons"`
}

type courseOutline struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Modules     []outlineModule `json:"modules"`
}

// GenerateCourse AI辅助建课：让模型产出结构化大纲并落库。
// 模型调用失败或大纲无法解析都是硬错误，不产出半成品课程。
func (s *AuthoringService) GenerateCourse(authorID uint, req OutlineRequest) (*model.Course, error) {
	moduleCount := req.ModuleCount
	if moduleCount <= 0 {
		moduleCount = 3
	}

	userPrompt := fmt.Sprintf("Topic: %s\nModules: %d", req.Topic, moduleCount)
	if req.Audience != "" {
		userPrompt += "\nTarget audience: " + req.Audience
	}

	raw, err := s.AI.Chat(outlineSystemPrompt, userPrompt)
	if err != nil {
		monitoring.AICallCounter.WithLabelValues("course_outline", "error").Inc()
		return nil, util.ErrAIUpstream
	}
	monitoring.AICallCounter.WithLabelValues("course_outline", "success").Inc()

	var outline courseOutline
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &outline); err != nil {
		logger.Log.Warn("课程大纲解析失败", zap.Error(err), zap.String("raw", raw))
		return nil, util.ErrOutlineUnparseable
	}
	if outline.Title == "" || len(outline.Modules) == 0 {
		return nil, util.ErrOutlineUnparseable
	}

	course := &model.Course{
		Title:       outline.Title,
		Description: outline.Description,
		AuthorID:    authorID,
		AIGenerated: true,
	}
	for mi, m := range outline.Modules {
		module := model.CourseModule{
			Title:       m.Title,
			Description: m.Description,
			Order:       mi + 1,
		}
		for li, l := range m.Lessons {
			module.Lessons = append(module.Lessons, model.Lesson{
				Title:           l.Title,
				Description:     l.Description,
				DurationMinutes: l.DurationMinutes,
				Order:           li + 1,
				Content:         l.Content,
			})
			course.DurationMinutes += l.DurationMinutes
		}
		course.Modules = append(course.Modules, module)
	}

	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}

	// 落库后课时ID已回填，再挂测验题
	var questions []model.QuizQuestion
	for mi, m := range outline.Modules {
		for li, l := range m.Lessons {
			lessonID := course.Modules[mi].Lessons[li].ID
			for qi, q := range l.Quiz {
				if len(q.Options) == 0 || q.Answer < 0 || q.Answer >= len(q.Options) {
					continue
				}
				questions = append(questions, model.QuizQuestion{
					LessonID:    lessonID,
					Order:       qi + 1,
					Question:    q.Question,
					Options:     datatypes.NewJSONSlice(q.Options),
					Answer:      q.Answer,
					Explanation: q.Explanation,
				})
			}
		}
	}
	if err := s.QuizRepo.CreateQuestions(questions); err != nil {
		logger.Log.Warn("AI生成的测验题写入失败", zap.Uint("courseID", course.ID), zap.Error(err))
	}

	s.Cache.Invalidate(cache.CoursesKey)
	return course, nil
}

// UploadSlides 上传课时课件，仅允许PDF和图片
func (s *AuthoringService) UploadSlides(ctx context.Context, lessonID uint, file *multipart.FileHeader) (*model.Lesson, error) {
	lesson, err := s.CourseRepo.FindLessonByID(lessonID)
	if err != nil {
		return nil, util.ErrLessonNotFound
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !containsExt(util.AllowedSlideExtensions, ext) {
		return nil, util.ErrInvalidSlideExt
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if _, err := util.ValidateMimeType(src, []string{util.MimeImage, util.MimePDF}); err != nil {
		return nil, util.ErrInvalidSlideExt
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("slides/%d_%d_%s%s", lessonID, time.Now().Unix(), util.GenerateRandomString(6), ext)
	url, err := s.Storage.Upload(ctx, filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	lesson.SlideURL = url
	if err := s.CourseRepo.SaveLesson(lesson); err != nil {
		return nil, err
	}

	s.invalidateLessonCaches(lessonID)
	return lesson, nil
}

// UploadVideo 上传课时视频：先落临时文件取元数据并截缩略图，再推存储
func (s *AuthoringService) UploadVideo(ctx context.Context, lessonID uint, file *multipart.FileHeader) (*model.Lesson, error) {
	lesson, err := s.CourseRepo.FindLessonByID(lessonID)
	if err != nil {
		return nil, util.ErrLessonNotFound
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !containsExt(util.AllowedVideoExtensions, ext) {
		return nil, util.ErrInvalidVideoExt
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tempDir := filepath.Join(s.Cfg.Storage.LocalPath, "temp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%d_%d_%s", lessonID, time.Now().Unix(), util.GenerateRandomString(6))
	videoPath := filepath.Join(tempDir, base+ext)
	out, err := os.Create(videoPath)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return nil, err
	}
	out.Close()
	defer os.Remove(videoPath)

	info, err := util.GetVideoInfo(videoPath)
	if err != nil {
		logger.Log.Warn("读取视频元数据失败", zap.Uint("lessonID", lessonID), zap.Error(err))
	}

	videoURL, err := s.Storage.UploadFile(ctx, "videos/"+base+ext, videoPath, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	thumbnailPath := filepath.Join(tempDir, base+".jpg")
	thumbnailURL := ""
	if err := util.GenerateThumbnail(videoPath, thumbnailPath, "00:00:01"); err != nil {
		logger.Log.Warn("生成视频缩略图失败", zap.Uint("lessonID", lessonID), zap.Error(err))
	} else {
		defer os.Remove(thumbnailPath)
		thumbnailURL, err = s.Storage.UploadFile(ctx, "thumbnails/"+base+".jpg", thumbnailPath, "image/jpeg")
		if err != nil {
			logger.Log.Warn("上传缩略图失败", zap.Uint("lessonID", lessonID), zap.Error(err))
			thumbnailURL = ""
		}
	}

	lesson.VideoURL = videoURL
	lesson.Thumbnail = thumbnailURL
	if info != nil {
		lesson.VideoDuration = info.Duration
	}
	if err := s.CourseRepo.SaveLesson(lesson); err != nil {
		return nil, err
	}

	s.invalidateLessonCaches(lessonID)
	return lesson, nil
}

func (s *AuthoringService) invalidateLessonCaches(lessonID uint) {
	keys := []string{cache.CoursesKey}
	if courseID, err := s.CourseRepo.CourseIDForLesson(lessonID); err == nil {
		keys = append(keys, cache.CourseKey(courseID))
	}
	s.Cache.Invalidate(keys...)
}

func containsExt(allowed []string, ext string) bool {
	for _, a := range allowed {
		if a == ext {
			return true
		}
	}
	return false
}
