package model

// Course 课程，由作者创建（手工或AI辅助），学习者只读
type Course struct {
	BaseModel
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	DurationMinutes int            `gorm:"default:0" json:"durationMinutes"`
	AuthorID        uint           `gorm:"index;type:bigint unsigned" json:"authorId"`
	AIGenerated     bool           `gorm:"default:false" json:"aiGenerated"`
	Modules         []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule 课程模块，Order在同一课程内唯一并决定遍历顺序
type CourseModule struct {
	BaseModel
	CourseID    uint     `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Order       int      `gorm:"default:0" json:"order"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// Lesson 课时，Order在同一模块内唯一
type Lesson struct {
	BaseModel
	ModuleID        uint    `gorm:"index;type:bigint unsigned;not null" json:"moduleId"`
	Title           string  `gorm:"size:255;not null" json:"title"`
	Description     string  `gorm:"type:text" json:"description"`
	DurationMinutes int     `gorm:"default:0" json:"durationMinutes"`
	Order           int     `gorm:"default:0" json:"order"`
	Content         string  `gorm:"type:longtext" json:"content,omitempty"`
	SlideURL        string  `gorm:"size:255" json:"slideUrl,omitempty"`
	VideoURL        string  `gorm:"size:255" json:"videoUrl,omitempty"`
	Thumbnail       string  `gorm:"size:255" json:"thumbnail,omitempty"`
	VideoDuration   float64 `gorm:"default:0" json:"videoDuration,omitempty"`
	Example         string  `gorm:"type:text" json:"example,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}
