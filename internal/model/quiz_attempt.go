package model

import (
	"encoding/json"
	"time"
)

// QuizAttempt 一次计分提交，创建后不可修改、不可删除
// (user_id, quiz_id, attempt_number) 唯一约束用于并发提交时的兜底判定
// swagger:model QuizAttempt
type QuizAttempt struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint            `gorm:"uniqueIndex:idx_attempt_seq;index:idx_attempt_user_course;type:bigint unsigned;not null" json:"userId"`
	CourseID         uint            `gorm:"index:idx_attempt_user_course;type:bigint unsigned;not null" json:"courseId"`
	QuizID           uint            `gorm:"uniqueIndex:idx_attempt_seq;type:bigint unsigned;not null" json:"quizId"`
	AttemptNumber    int             `gorm:"uniqueIndex:idx_attempt_seq;not null" json:"attemptNumber"`
	Answers          json.RawMessage `gorm:"type:json" json:"answers"`
	Score            int             `gorm:"not null" json:"score"`
	IsPassed         bool            `gorm:"not null" json:"isPassed"`
	TimeSpentSeconds int             `gorm:"default:0" json:"timeSpentSeconds"`
	CompletedAt      time.Time       `gorm:"not null" json:"completedAt"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// QuizAnswer 单题作答，IsCorrect 在提交时判定后随整卷序列化进 Answers 列
type QuizAnswer struct {
	QuestionID          uint `json:"questionId"`
	SelectedAnswerIndex int  `json:"selectedAnswerIndex"`
	IsCorrect           bool `json:"isCorrect"`
}
