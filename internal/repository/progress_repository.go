package repository

import (
	"errors"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserAndCourse(userID, courseID uint) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.DB.
		Preload("Lectures").
		Preload("Lectures.Videos").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Create 连同整棵 lecture/video 零进度树一并落库
// (user_id, course_id) 唯一键，并发初始化时后到者收到 gorm.ErrDuplicatedKey
func (r *ProgressRepository) Create(progress *model.CourseProgress) error {
	return r.DB.Create(progress).Error
}

// Update 在同一事务里保存所有视频行与聚合百分比，保证派生字段不落后于子节点
func (r *ProgressRepository) Update(progress *model.CourseProgress) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for li := range progress.Lectures {
			for vi := range progress.Lectures[li].Videos {
				if err := tx.Save(&progress.Lectures[li].Videos[vi]).Error; err != nil {
					return err
				}
			}
		}
		return tx.Model(&model.CourseProgress{}).
			Where("id = ?", progress.ID).
			Update("progress_percentage", progress.ProgressPercentage).Error
	})
}
