package service

import (
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/internal/repository"
	"prompt_lab_backend/internal/util"
	"time"

	"gorm.io/datatypes"
)

// QuestionResult 单题判分结果，提交后才把正确答案和解析回传
type QuestionResult struct {
	QuestionID    uint   `json:"questionId"`
	Correct       bool   `json:"correct"`
	SelectedIndex int    `json:"selectedIndex"`
	AnswerIndex   int    `json:"answerIndex"`
	Explanation   string `json:"explanation"`
}

type QuizResult struct {
	LessonID  uint             `json:"lessonId"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

type QuizService struct {
	QuizRepo   *repository.QuizRepository
	CourseRepo *repository.CourseRepository
}

func NewQuizService(quizRepo *repository.QuizRepository, courseRepo *repository.CourseRepository) *QuizService {
	return &QuizService{
		QuizRepo:   quizRepo,
		CourseRepo: courseRepo,
	}
}

// GetLessonQuiz 取课时测验题。答案与解析字段不随题目下发。
func (s *QuizService) GetLessonQuiz(lessonID uint) ([]model.QuizQuestion, error) {
	if _, err := s.CourseRepo.FindLessonByID(lessonID); err != nil {
		return nil, util.ErrLessonNotFound
	}
	questions, err := s.QuizRepo.FindByLessonID(lessonID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrQuizNotFound
	}
	return questions, nil
}

// SubmitQuiz 判分并落库。answers是题目ID到所选选项下标的映射，漏答计错。
func (s *QuizService) SubmitQuiz(userID, lessonID uint, answers map[uint]int) (*QuizResult, error) {
	questions, err := s.GetLessonQuiz(lessonID)
	if err != nil {
		return nil, err
	}

	result := &QuizResult{
		LessonID:  lessonID,
		Total:     len(questions),
		Questions: make([]QuestionResult, 0, len(questions)),
	}

	for _, q := range questions {
		selected, answered := answers[q.ID]
		if !answered {
			selected = -1
		}
		correct := answered && selected == q.Answer
		if correct {
			result.Score++
		}
		result.Questions = append(result.Questions, QuestionResult{
			QuestionID:    q.ID,
			Correct:       correct,
			SelectedIndex: selected,
			AnswerIndex:   q.Answer,
			Explanation:   q.Explanation,
		})
	}

	submission := &model.QuizSubmission{
		UserID:      userID,
		LessonID:    lessonID,
		Score:       result.Score,
		Total:       result.Total,
		Answers:     datatypes.NewJSONType(answers),
		CompletedAt: time.Now(),
	}
	if err := s.QuizRepo.SaveSubmission(submission); err != nil {
		return nil, err
	}

	return result, nil
}
