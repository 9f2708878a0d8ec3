package repository

import (
	"errors"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.`order` asc, quiz_questions.id asc")
		}).
		First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// FindActiveByCourse 只取启用中的测验，逻辑下线的不参与任何学员流程
func (r *QuizRepository) FindActiveByCourse(courseID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.`order` asc, quiz_questions.id asc")
		}).
		Where("course_id = ? AND is_active = ?", courseID, true).
		First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Update 整卷替换题目后保存，旧题目行先删（软删）再建
func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(quiz).Error
	})
}

func (r *QuizRepository) Deactivate(id uint) error {
	return r.DB.Model(&model.Quiz{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *QuizRepository) ListByInstructor(instructorID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.`order` asc, quiz_questions.id asc")
		}).
		Where("created_by = ? AND is_active = ?", instructorID, true).
		Order("created_at desc").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) CountAttempts(userID, quizID uint) (int, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return int(count), err
}

// CreateAttempt 依赖 (user_id, quiz_id, attempt_number) 唯一键
// 并发提交抢到同一个序号时返回 gorm.ErrDuplicatedKey，由服务层决定重试或拒绝
func (r *QuizRepository) CreateAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizRepository) ListAttempts(userID, quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_number desc").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizRepository) HasPassed(userID, courseID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND course_id = ? AND is_passed = ?", userID, courseID, true).
		Count(&count).Error
	return count > 0, err
}
