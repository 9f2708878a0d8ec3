package repository

import (
	"errors"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

// FindWithCatalog 加载课程及按 order 排序的章节/视频目录，门禁展开依赖该顺序
func (r *CourseRepository) FindWithCatalog(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lectures.`order` asc, lectures.id asc")
		}).
		Preload("Lectures.Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("videos.`order` asc, videos.id asc")
		}).
		Preload("Instructor").
		First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Instructor").First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List(page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64
	query := r.DB.Model(&model.Course{}).Where("is_published = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Instructor").Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) ListByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("instructor_id = ?", instructorID).Order("created_at desc").Find(&courses).Error
	return courses, err
}

// InstructorOf 返回课程归属讲师ID，测验创建/修改的授权检查用
func (r *CourseRepository) InstructorOf(courseID uint) (uint, error) {
	var course model.Course
	err := r.DB.Select("instructor_id").First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return course.InstructorID, nil
}
