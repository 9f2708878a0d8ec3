package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"
	"learnsphere_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CertificateStore 证书持久化接口
type CertificateStore interface {
	Create(cert *model.Certificate) error
	FindByUserAndCourse(userID, courseID uint) (*model.Certificate, error)
	FindByCertificateID(certificateID string) (*model.Certificate, error)
	ListByUser(userID uint) ([]model.Certificate, error)
	IncrementDownloadCount(certificateID string) error
	Revoke(certificateID string) error
}

type CertificateService struct {
	Certs CertificateStore
}

func NewCertificateService(certs CertificateStore) *CertificateService {
	return &CertificateService{Certs: certs}
}

// IssueIfPassed 幂等签发：已有证书直接返回且 created=false，第二次通过
// 不会覆盖首张证书的快照字段。并发签发撞到 (user,course) 唯一键时视为
// "已存在"，读回已有证书返回，不向调用方暴露冲突。
func (s *CertificateService) IssueIfPassed(userID, courseID uint, score int, studentName, courseName, instructorName string) (*model.Certificate, bool, error) {
	existing, err := s.Certs.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	cert := &model.Certificate{
		UserID:         userID,
		CourseID:       courseID,
		CertificateID:  generateCertificateID(),
		StudentName:    studentName,
		CourseName:     courseName,
		InstructorName: instructorName,
		CompletionDate: time.Now(),
		FinalScore:     score,
		IsValid:        true,
		DownloadCount:  0,
	}

	if err := s.Certs.Create(cert); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Log.Info("certificate already issued concurrently",
				zap.Uint("userId", userID), zap.Uint("courseId", courseID))
			existing, ferr := s.Certs.FindByUserAndCourse(userID, courseID)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	monitoring.CertificateIssuedCounter.Inc()
	return cert, true, nil
}

func (s *CertificateService) ListUserCertificates(userID uint) ([]model.Certificate, error) {
	return s.Certs.ListByUser(userID)
}

// GetByCertificateID 持有者查看证书详情
func (s *CertificateService) GetByCertificateID(userID uint, certificateID string) (*model.Certificate, error) {
	cert, err := s.Certs.FindByCertificateID(certificateID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, util.NotFoundError("certificate not found")
	}
	if cert.UserID != userID {
		return nil, util.ForbiddenError("certificate does not belong to this user")
	}
	return cert, nil
}

// DownloadResult 下载响应：证书可能已吊销，数据仍返回但带上标记
type DownloadResult struct {
	Certificate *model.Certificate `json:"certificate"`
	Revoked     bool               `json:"revoked"`
}

// RecordDownload 记录一次下载：计数只增不减，吊销的证书不计数但仍返回数据
func (s *CertificateService) RecordDownload(userID uint, certificateID string) (*DownloadResult, error) {
	cert, err := s.GetByCertificateID(userID, certificateID)
	if err != nil {
		return nil, err
	}

	if !cert.IsValid {
		return &DownloadResult{Certificate: cert, Revoked: true}, nil
	}

	if err := s.Certs.IncrementDownloadCount(certificateID); err != nil {
		return nil, err
	}
	cert.DownloadCount++
	return &DownloadResult{Certificate: cert}, nil
}

// VerificationResult 对外核验视图，只含非敏感字段
type VerificationResult struct {
	CertificateID  string    `json:"certificateId"`
	StudentName    string    `json:"studentName"`
	CourseName     string    `json:"courseName"`
	InstructorName string    `json:"instructorName"`
	CompletionDate time.Time `json:"completionDate"`
	FinalScore     int       `json:"finalScore"`
	IsValid        bool      `json:"isValid"`
}

// Verify 免认证核验，吊销的证书也能查到以便第三方看到吊销状态
func (s *CertificateService) Verify(certificateID string) (*VerificationResult, error) {
	cert, err := s.Certs.FindByCertificateID(certificateID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, util.NotFoundError("certificate not found")
	}
	return &VerificationResult{
		CertificateID:  cert.CertificateID,
		StudentName:    cert.StudentName,
		CourseName:     cert.CourseName,
		InstructorName: cert.InstructorName,
		CompletionDate: cert.CompletionDate,
		FinalScore:     cert.FinalScore,
		IsValid:        cert.IsValid,
	}, nil
}

// Revoke 吊销但不删除
func (s *CertificateService) Revoke(certificateID string) error {
	cert, err := s.Certs.FindByCertificateID(certificateID)
	if err != nil {
		return err
	}
	if cert == nil {
		return util.NotFoundError("certificate not found")
	}
	return s.Certs.Revoke(certificateID)
}

// generateCertificateID 可读前缀 + 毫秒时间戳 + 随机区分段，便于分享且难以猜测
func generateCertificateID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("CERT-%d-%s", time.Now().UnixMilli(), suffix)
}
