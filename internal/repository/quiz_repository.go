package repository

import (
	"prompt_lab_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) FindByLessonID(lessonID uint) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	err := r.DB.Where("lesson_id = ?", lessonID).
		Order("`order` ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) CreateQuestions(questions []model.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.DB.Create(&questions).Error
}

func (r *QuizRepository) SaveSubmission(submission *model.QuizSubmission) error {
	return r.DB.Create(submission).Error
}
