package service

import (
	"math"
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/internal/repository"
	"prompt_lab_backend/internal/util"
	"prompt_lab_backend/pkg/cache"
	"sort"
)

type ModuleStatus string

const (
	ModuleLocked     ModuleStatus = "locked"
	ModuleInProgress ModuleStatus = "in-progress"
	ModuleCompleted  ModuleStatus = "completed"
)

// LessonView 渲染用课时视图，附加完成/锁定/当前标记
type LessonView struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"durationMinutes"`
	Order           int     `json:"order"`
	Content         string  `json:"content,omitempty"`
	SlideURL        string  `json:"slideUrl,omitempty"`
	VideoURL        string  `json:"videoUrl,omitempty"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
	VideoDuration   float64 `json:"videoDuration,omitempty"`
	Example         string  `json:"example,omitempty"`
	Completed       bool    `json:"completed"`
	Locked          bool    `json:"locked"`
	Current         bool    `json:"current"`
}

type ModuleView struct {
	ID               uint         `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Order            int          `json:"order"`
	Status           ModuleStatus `json:"status"`
	CompletedLessons int          `json:"completedLessons"`
	TotalLessons     int          `json:"totalLessons"`
	CompletionRate   int          `json:"completionRate"`
	Lessons          []LessonView `json:"lessons"`
}

type CourseView struct {
	ID               uint         `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	DurationMinutes  int          `json:"durationMinutes"`
	AIGenerated      bool         `json:"aiGenerated"`
	Modules          []ModuleView `json:"modules"`
	CompletedLessons int          `json:"completedLessons"`
	TotalLessons     int          `json:"totalLessons"`
	CompletionRate   int          `json:"completionRate"`
}

// AnnotateCourse 纯转换：课程树 + 用户进度记录 → 带锁定/完成/当前标记的视图。
// 无用户身份时传空map（预览模式：仅首模块首课时解锁）。
//
// 解锁规则刻意保持不对称：模块内只看前一课时是否完成，
// 跨模块边界则要求前一模块全部完成。
func AnnotateCourse(course *model.Course, records map[uint]model.LessonProgress) *CourseView {
	view := &CourseView{
		ID:              course.ID,
		Title:           course.Title,
		Description:     course.Description,
		DurationMinutes: course.DurationMinutes,
		AIGenerated:     course.AIGenerated,
		Modules:         make([]ModuleView, 0, len(course.Modules)),
	}

	modules := make([]model.CourseModule, len(course.Modules))
	copy(modules, course.Modules)
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].Order < modules[j].Order
	})

	prevModuleComplete := true

	for mi, mod := range modules {
		// 防御性排序：来源顺序不保证权威
		lessons := make([]model.Lesson, len(mod.Lessons))
		copy(lessons, mod.Lessons)
		sort.SliceStable(lessons, func(i, j int) bool {
			return lessons[i].Order < lessons[j].Order
		})

		moduleUnlocked := mi == 0 || prevModuleComplete

		mv := ModuleView{
			ID:           mod.ID,
			Title:        mod.Title,
			Description:  mod.Description,
			Order:        mod.Order,
			TotalLessons: len(lessons),
			Lessons:      make([]LessonView, 0, len(lessons)),
		}

		prevLessonComplete := false
		for li, lesson := range lessons {
			completed := records[lesson.ID].Completed

			var locked bool
			switch {
			case mi == 0 && li == 0:
				locked = false
			case li == 0:
				locked = !prevModuleComplete
			default:
				locked = !prevLessonComplete
			}

			lv := LessonView{
				ID:              lesson.ID,
				Title:           lesson.Title,
				Description:     lesson.Description,
				DurationMinutes: lesson.DurationMinutes,
				Order:           lesson.Order,
				Content:         lesson.Content,
				SlideURL:        lesson.SlideURL,
				VideoURL:        lesson.VideoURL,
				Thumbnail:       lesson.Thumbnail,
				VideoDuration:   lesson.VideoDuration,
				Example:         lesson.Example,
				Completed:       completed,
				Locked:          locked,
				Current:         !completed && !locked,
			}
			mv.Lessons = append(mv.Lessons, lv)

			if completed {
				mv.CompletedLessons++
			}
			prevLessonComplete = completed
		}

		mv.CompletionRate = completionRate(mv.CompletedLessons, mv.TotalLessons)
		mv.Status = moduleStatus(&mv, moduleUnlocked)

		view.CompletedLessons += mv.CompletedLessons
		view.TotalLessons += mv.TotalLessons
		view.Modules = append(view.Modules, mv)

		// 空模块对下一模块的门控视为已完成
		prevModuleComplete = mv.CompletedLessons == mv.TotalLessons
	}

	view.CompletionRate = completionRate(view.CompletedLessons, view.TotalLessons)
	return view
}

// completionRate = round(100 * completed / total)，total为0时返回0
func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func moduleStatus(mv *ModuleView, unlocked bool) ModuleStatus {
	switch {
	case mv.TotalLessons == 0:
		if unlocked {
			return ModuleCompleted
		}
		return ModuleLocked
	case mv.CompletedLessons == mv.TotalLessons:
		return ModuleCompleted
	case mv.CompletedLessons == 0 && mv.Lessons[0].Locked:
		return ModuleLocked
	default:
		return ModuleInProgress
	}
}

// CourseProgressSummary 目录页/仪表盘的单课程进度摘要
type CourseProgressSummary struct {
	CourseID         uint   `json:"courseId"`
	Title            string `json:"title"`
	CompletedLessons int    `json:"completedLessons"`
	TotalLessons     int    `json:"totalLessons"`
	CompletionRate   int    `json:"completionRate"`
}

type ProgressService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
	Cache        *cache.Cache
}

func NewProgressService(courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository, c *cache.Cache) *ProgressService {
	return &ProgressService{
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		Cache:        c,
	}
}

// RecordsForUser 经缓存读取用户进度记录，按课时ID索引
func (s *ProgressService) RecordsForUser(userID uint) (map[uint]model.LessonProgress, error) {
	value, err := s.Cache.GetOrFetch(cache.ProgressKey(userID), func() (interface{}, error) {
		return s.ProgressRepo.ListByUser(userID)
	})
	if err != nil {
		return nil, err
	}

	records := value.([]model.LessonProgress)
	indexed := make(map[uint]model.LessonProgress, len(records))
	for _, r := range records {
		indexed[r.LessonID] = r
	}
	return indexed, nil
}

// AccessLesson 首次访问建档，更新最近访问时间
func (s *ProgressService) AccessLesson(userID, lessonID uint) (*model.LessonProgress, error) {
	if _, err := s.CourseRepo.FindLessonByID(lessonID); err != nil {
		return nil, util.ErrLessonNotFound
	}
	record, err := s.ProgressRepo.Touch(userID, lessonID)
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(cache.ProgressKey(userID))
	return record, nil
}

// CompleteLesson 显式完成课时
func (s *ProgressService) CompleteLesson(userID, lessonID uint) (*model.LessonProgress, error) {
	if _, err := s.CourseRepo.FindLessonByID(lessonID); err != nil {
		return nil, util.ErrLessonNotFound
	}
	record, err := s.ProgressRepo.MarkCompleted(userID, lessonID)
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(cache.ProgressKey(userID))
	return record, nil
}

// ResetProgress 清空该用户全部进度
func (s *ProgressService) ResetProgress(userID uint) error {
	if err := s.ProgressRepo.DeleteAllForUser(userID); err != nil {
		return err
	}
	s.Cache.Invalidate(cache.ProgressKey(userID))
	return nil
}

// Overview 所有课程的进度摘要
func (s *ProgressService) Overview(userID uint) ([]CourseProgressSummary, error) {
	value, err := s.Cache.GetOrFetch(cache.CoursesKey, func() (interface{}, error) {
		return s.CourseRepo.FindAll()
	})
	if err != nil {
		return nil, err
	}
	courses := value.([]model.Course)

	records, err := s.RecordsForUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]CourseProgressSummary, 0, len(courses))
	for i := range courses {
		view := AnnotateCourse(&courses[i], records)
		summaries = append(summaries, CourseProgressSummary{
			CourseID:         view.ID,
			Title:            view.Title,
			CompletedLessons: view.CompletedLessons,
			TotalLessons:     view.TotalLessons,
			CompletionRate:   view.CompletionRate,
		})
	}
	return summaries, nil
}
