package service

import (
	"prompt_lab_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 两模块各两课时的最小课程树，课时ID 1-4
func buildCourse() *model.Course {
	return &model.Course{
		BaseModel: model.BaseModel{ID: 10},
		Title:     "提示词工程入门",
		Modules: []model.CourseModule{
			{
				BaseModel: model.BaseModel{ID: 100},
				Title:     "基础",
				Order:     1,
				Lessons: []model.Lesson{
					{BaseModel: model.BaseModel{ID: 1}, Title: "L1", Order: 1},
					{BaseModel: model.BaseModel{ID: 2}, Title: "L2", Order: 2},
				},
			},
			{
				BaseModel: model.BaseModel{ID: 200},
				Title:     "进阶",
				Order:     2,
				Lessons: []model.Lesson{
					{BaseModel: model.BaseModel{ID: 3}, Title: "L3", Order: 1},
					{BaseModel: model.BaseModel{ID: 4}, Title: "L4", Order: 2},
				},
			},
		},
	}
}

func completedRecords(lessonIDs ...uint) map[uint]model.LessonProgress {
	records := make(map[uint]model.LessonProgress)
	for _, id := range lessonIDs {
		records[id] = model.LessonProgress{LessonID: id, Completed: true}
	}
	return records
}

func TestAnnotateCourseFreshUser(t *testing.T) {
	view := AnnotateCourse(buildCourse(), map[uint]model.LessonProgress{})

	require.Len(t, view.Modules, 2)
	m1, m2 := view.Modules[0], view.Modules[1]

	// 只有首模块首课时解锁且为当前课时
	assert.False(t, m1.Lessons[0].Locked)
	assert.True(t, m1.Lessons[0].Current)
	assert.True(t, m1.Lessons[1].Locked)
	assert.True(t, m2.Lessons[0].Locked)
	assert.True(t, m2.Lessons[1].Locked)

	assert.Equal(t, ModuleInProgress, m1.Status)
	assert.Equal(t, ModuleLocked, m2.Status)
	assert.Equal(t, 0, view.CompletionRate)
}

func TestAnnotateCourseUnlocksNextLessonInModule(t *testing.T) {
	view := AnnotateCourse(buildCourse(), completedRecords(1))

	m1 := view.Modules[0]
	assert.True(t, m1.Lessons[0].Completed)
	assert.False(t, m1.Lessons[0].Current)
	assert.False(t, m1.Lessons[1].Locked)
	assert.True(t, m1.Lessons[1].Current)

	// 第二模块首课时仍锁定，前一模块未全部完成
	assert.True(t, view.Modules[1].Lessons[0].Locked)
	assert.Equal(t, 50, m1.CompletionRate)
	assert.Equal(t, 25, view.CompletionRate)
}

func TestAnnotateCourseModuleBoundaryRequiresFullModule(t *testing.T) {
	// 第一模块完成一半时跨模块边界不放行
	view := AnnotateCourse(buildCourse(), completedRecords(1))
	assert.True(t, view.Modules[1].Lessons[0].Locked)

	// 第一模块全部完成后第二模块首课时解锁
	view = AnnotateCourse(buildCourse(), completedRecords(1, 2))
	m2 := view.Modules[1]
	assert.False(t, m2.Lessons[0].Locked)
	assert.True(t, m2.Lessons[0].Current)
	assert.True(t, m2.Lessons[1].Locked)

	assert.Equal(t, ModuleCompleted, view.Modules[0].Status)
	assert.Equal(t, ModuleInProgress, m2.Status)
}

func TestAnnotateCourseAllCompleted(t *testing.T) {
	view := AnnotateCourse(buildCourse(), completedRecords(1, 2, 3, 4))

	for _, m := range view.Modules {
		assert.Equal(t, ModuleCompleted, m.Status)
		assert.Equal(t, 100, m.CompletionRate)
		for _, l := range m.Lessons {
			assert.False(t, l.Current, "全部完成后不应再有当前课时")
		}
	}
	assert.Equal(t, 100, view.CompletionRate)
	assert.Equal(t, 4, view.CompletedLessons)
}

func TestAnnotateCourseAtMostOneCurrentPerModule(t *testing.T) {
	cases := []map[uint]model.LessonProgress{
		{},
		completedRecords(1),
		completedRecords(1, 2),
		completedRecords(1, 2, 3),
		completedRecords(1, 2, 3, 4),
	}

	for _, records := range cases {
		view := AnnotateCourse(buildCourse(), records)
		for _, m := range view.Modules {
			current := 0
			for _, l := range m.Lessons {
				if l.Current {
					current++
				}
			}
			assert.LessOrEqual(t, current, 1)
		}
	}
}

func TestAnnotateCourseEmptyModule(t *testing.T) {
	course := &model.Course{
		Modules: []model.CourseModule{
			{BaseModel: model.BaseModel{ID: 100}, Order: 1},
			{
				BaseModel: model.BaseModel{ID: 200},
				Order:     2,
				Lessons: []model.Lesson{
					{BaseModel: model.BaseModel{ID: 1}, Order: 1},
				},
			},
		},
	}

	view := AnnotateCourse(course, map[uint]model.LessonProgress{})

	// 空模块不除零，且对后续模块的门控视为已完成
	assert.Equal(t, 0, view.Modules[0].CompletionRate)
	assert.Equal(t, ModuleCompleted, view.Modules[0].Status)
	assert.False(t, view.Modules[1].Lessons[0].Locked)
}

func TestAnnotateCourseSortsByOrderIndex(t *testing.T) {
	course := &model.Course{
		Modules: []model.CourseModule{
			{
				BaseModel: model.BaseModel{ID: 100},
				Order:     2,
				Lessons: []model.Lesson{
					{BaseModel: model.BaseModel{ID: 3}, Order: 1},
				},
			},
			{
				BaseModel: model.BaseModel{ID: 200},
				Order:     1,
				Lessons: []model.Lesson{
					{BaseModel: model.BaseModel{ID: 2}, Order: 2},
					{BaseModel: model.BaseModel{ID: 1}, Order: 1},
				},
			},
		},
	}

	view := AnnotateCourse(course, map[uint]model.LessonProgress{})

	require.Len(t, view.Modules, 2)
	assert.Equal(t, uint(200), view.Modules[0].ID)
	assert.Equal(t, uint(1), view.Modules[0].Lessons[0].ID)
	assert.False(t, view.Modules[0].Lessons[0].Locked)
	assert.True(t, view.Modules[0].Lessons[1].Locked)
}

func TestCompletionRateRounding(t *testing.T) {
	assert.Equal(t, 0, completionRate(0, 0))
	assert.Equal(t, 33, completionRate(1, 3))
	assert.Equal(t, 67, completionRate(2, 3))
	assert.Equal(t, 50, completionRate(1, 2))
	assert.Equal(t, 100, completionRate(3, 3))
}
