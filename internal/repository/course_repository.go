package repository

import (
	"prompt_lab_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func orderedModules(db *gorm.DB) *gorm.DB {
	return db.Order("course_modules.`order` ASC")
}

func orderedLessons(db *gorm.DB) *gorm.DB {
	return db.Order("lessons.`order` ASC")
}

// FindAll 返回全量课程目录（含嵌套模块/课时树）
func (r *CourseRepository) FindAll() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Preload("Modules", orderedModules).
		Preload("Modules.Lessons", orderedLessons).
		Order("courses.created_at ASC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Modules", orderedModules).
		Preload("Modules.Lessons", orderedLessons).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Create 持久化完整课程树（模块/课时一并写入）
func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) CreateModule(module *model.CourseModule) error {
	return r.DB.Create(module).Error
}

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *CourseRepository) FindModuleByID(id uint) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.First(&module, id).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *CourseRepository) FindLessonByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.First(&lesson, id).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) SaveLesson(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

// CourseIDForLesson 课时 → 所属课程，用于缓存失效
func (r *CourseRepository) CourseIDForLesson(lessonID uint) (uint, error) {
	var lesson model.Lesson
	if err := r.DB.Select("module_id").First(&lesson, lessonID).Error; err != nil {
		return 0, err
	}
	var module model.CourseModule
	if err := r.DB.Select("course_id").First(&module, lesson.ModuleID).Error; err != nil {
		return 0, err
	}
	return module.CourseID, nil
}

// NextModuleOrder 新增模块时取当前最大Order+1
func (r *CourseRepository) NextModuleOrder(courseID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.CourseModule{}).
		Where("course_id = ?", courseID).
		Select("MAX(`order`)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *CourseRepository) NextLessonOrder(moduleID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.Lesson{}).
		Where("module_id = ?", moduleID).
		Select("MAX(`order`)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}
