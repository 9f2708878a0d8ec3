package repository

import (
	"errors"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

// Create 依赖 (user_id, course_id) 唯一键保证一人一课至多一张证书
func (r *CertificateRepository) Create(cert *model.Certificate) error {
	return r.DB.Create(cert).Error
}

func (r *CertificateRepository) FindByUserAndCourse(userID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByCertificateID(certificateID string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("certificate_id = ?", certificateID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) ListByUser(userID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.
		Where("user_id = ? AND is_valid = ?", userID, true).
		Order("completion_date desc").
		Find(&certs).Error
	return certs, err
}

// IncrementDownloadCount 计数器自增在数据库侧完成，避免读改写竞争
func (r *CertificateRepository) IncrementDownloadCount(certificateID string) error {
	return r.DB.Model(&model.Certificate{}).
		Where("certificate_id = ?", certificateID).
		Update("download_count", gorm.Expr("download_count + 1")).Error
}

func (r *CertificateRepository) Revoke(certificateID string) error {
	return r.DB.Model(&model.Certificate{}).
		Where("certificate_id = ?", certificateID).
		Update("is_valid", false).Error
}
