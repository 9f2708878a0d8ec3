package model

import "time"

// VideoCompletionThreshold 观看进度达到该百分比即视为完成
const VideoCompletionThreshold = 80.0

// CourseProgress 每个(用户,课程)一条记录，首次访问时从课程目录懒初始化
// ProgressPercentage 为派生字段，每次变更后按整棵视频树重算
// swagger:model CourseProgress
type CourseProgress struct {
	BaseModel
	UserID             uint              `gorm:"uniqueIndex:idx_progress_user_course;type:bigint unsigned;not null" json:"userId"`
	CourseID           uint              `gorm:"uniqueIndex:idx_progress_user_course;type:bigint unsigned;not null" json:"courseId"`
	ProgressPercentage float64           `gorm:"default:0" json:"progressPercentage"`
	Lectures           []LectureProgress `gorm:"foreignKey:CourseProgressID" json:"completedLectures"`
}

func (CourseProgress) TableName() string {
	return "course_progresses"
}

// swagger:model LectureProgress
type LectureProgress struct {
	BaseModel
	CourseProgressID uint            `gorm:"index;type:bigint unsigned;not null" json:"-"`
	LectureID        uint            `gorm:"index;type:bigint unsigned;not null" json:"lectureId"`
	Videos           []VideoProgress `gorm:"foreignKey:LectureProgressID" json:"completedVideos"`
}

func (LectureProgress) TableName() string {
	return "lecture_progresses"
}

// swagger:model VideoProgress
type VideoProgress struct {
	BaseModel
	LectureProgressID uint       `gorm:"index;type:bigint unsigned;not null" json:"-"`
	VideoID           uint       `gorm:"index;type:bigint unsigned;not null" json:"videoId"`
	IsCompleted       bool       `gorm:"default:false" json:"isCompleted"`
	WatchPercentage   float64    `gorm:"default:0" json:"watchPercentage"`
	LastWatchedAt     *time.Time `json:"lastWatchedAt"`
}

func (VideoProgress) TableName() string {
	return "video_progresses"
}

// TotalVideos 统计整棵树的视频数
func (p *CourseProgress) TotalVideos() int {
	total := 0
	for _, l := range p.Lectures {
		total += len(l.Videos)
	}
	return total
}

// CompletedVideos 统计已完成的视频数
func (p *CourseProgress) CompletedVideos() int {
	completed := 0
	for _, l := range p.Lectures {
		for _, v := range l.Videos {
			if v.IsCompleted {
				completed++
			}
		}
	}
	return completed
}

// Recalculate 按完成数/总数重算聚合进度，必须在每次视频变更后调用
func (p *CourseProgress) Recalculate() {
	total := p.TotalVideos()
	if total == 0 {
		p.ProgressPercentage = 0
		return
	}
	p.ProgressPercentage = float64(p.CompletedVideos()) / float64(total) * 100
}
