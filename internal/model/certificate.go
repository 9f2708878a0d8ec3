package model

import "time"

// Certificate 结业证书，每个(用户,课程)至多一张
// 姓名/课程名/讲师名/分数为签发时刻的快照，源数据后续变更不回写
// swagger:model Certificate
type Certificate struct {
	BaseModel
	UserID         uint      `gorm:"uniqueIndex:idx_cert_user_course;type:bigint unsigned;not null" json:"userId"`
	CourseID       uint      `gorm:"uniqueIndex:idx_cert_user_course;type:bigint unsigned;not null" json:"courseId"`
	CertificateID  string    `gorm:"uniqueIndex;size:64;not null" json:"certificateId"`
	StudentName    string    `gorm:"size:200;not null" json:"studentName"`
	CourseName     string    `gorm:"size:255;not null" json:"courseName"`
	InstructorName string    `gorm:"size:200;not null" json:"instructorName"`
	CompletionDate time.Time `gorm:"not null" json:"completionDate"`
	FinalScore     int       `gorm:"not null" json:"finalScore"`
	IsValid        bool      `gorm:"default:true" json:"isValid"`
	DownloadCount  int       `gorm:"default:0" json:"downloadCount"`
}

func (Certificate) TableName() string {
	return "certificates"
}
