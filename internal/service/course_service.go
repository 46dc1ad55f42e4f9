package service

import (
	"errors"
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/internal/repository"
	"prompt_lab_backend/internal/util"
	"prompt_lab_backend/pkg/cache"

	"gorm.io/gorm"
)

// CourseService 课程目录读路径，全量目录与单课程树都走进程内缓存
type CourseService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
	Cache        *cache.Cache
}

func NewCourseService(courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository, c *cache.Cache) *CourseService {
	return &CourseService{
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		Cache:        c,
	}
}

// ListCourses 带进度标注的课程目录。userID为0表示匿名预览，
// 所有课时未完成且仅各课程首模块首课时解锁。
func (s *CourseService) ListCourses(userID uint) ([]*CourseView, error) {
	value, err := s.Cache.GetOrFetch(cache.CoursesKey, func() (interface{}, error) {
		return s.CourseRepo.FindAll()
	})
	if err != nil {
		return nil, err
	}
	courses := value.([]model.Course)

	records, err := s.recordsFor(userID)
	if err != nil {
		return nil, err
	}

	views := make([]*CourseView, 0, len(courses))
	for i := range courses {
		views = append(views, AnnotateCourse(&courses[i], records))
	}
	return views, nil
}

// GetCourse 单课程树（带进度标注）
func (s *CourseService) GetCourse(userID, courseID uint) (*CourseView, error) {
	value, err := s.Cache.GetOrFetch(cache.CourseKey(courseID), func() (interface{}, error) {
		return s.CourseRepo.FindByID(courseID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	course := value.(*model.Course)

	records, err := s.recordsFor(userID)
	if err != nil {
		return nil, err
	}
	return AnnotateCourse(course, records), nil
}

func (s *CourseService) recordsFor(userID uint) (map[uint]model.LessonProgress, error) {
	if userID == 0 {
		return map[uint]model.LessonProgress{}, nil
	}

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
