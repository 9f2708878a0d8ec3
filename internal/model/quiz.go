package model

// 测验定义的默认值与选项数限制
const (
	DefaultPassingScore = 75
	DefaultMaxAttempts  = 3
	MinQuizOptions      = 2
	MaxQuizOptions      = 6
)

// Quiz 每门课程至多一份启用中的测验，删除只做逻辑下线(IsActive=false)
// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID         uint           `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Questions        []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions"`
	PassingScore     int            `gorm:"default:75" json:"passingScore"`
	TimeLimitMinutes *int           `json:"timeLimitMinutes,omitempty"`
	MaxAttempts      int            `gorm:"default:3" json:"maxAttempts"`
	IsActive         bool           `gorm:"default:true" json:"isActive"`
	CreatedBy        uint           `gorm:"index;type:bigint unsigned;not null" json:"createdBy"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID             uint        `gorm:"index;type:bigint unsigned;not null" json:"quizId"`
	Question           string      `gorm:"type:text;not null" json:"question"`
	Options            StringSlice `gorm:"type:json" json:"options"`
	CorrectAnswerIndex int         `gorm:"not null" json:"correctAnswerIndex"`
	Explanation        string      `gorm:"type:text" json:"explanation"`
	Order              int         `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
