package service

import (
	"errors"
	"time"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressStore 进度持久化接口
type ProgressStore interface {
	FindByUserAndCourse(userID, courseID uint) (*model.CourseProgress, error)
	Create(progress *model.CourseProgress) error
	Update(progress *model.CourseProgress) error
}

// CatalogStore 课程目录读取接口
type CatalogStore interface {
	FindWithCatalog(id uint) (*model.Course, error)
}

type ProgressService struct {
	Progress ProgressStore
	Catalog  CatalogStore
}

func NewProgressService(progress ProgressStore, catalog CatalogStore) *ProgressService {
	return &ProgressService{Progress: progress, Catalog: catalog}
}

func (s *ProgressService) GetProgress(userID, courseID uint) (*model.CourseProgress, error) {
	return s.Progress.FindByUserAndCourse(userID, courseID)
}

// GetOrInitializeProgress 首次访问时从课程目录懒建零进度树
func (s *ProgressService) GetOrInitializeProgress(userID, courseID uint) (*model.CourseProgress, error) {
	progress, err := s.Progress.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		return progress, nil
	}
	return s.InitializeProgress(userID, courseID)
}

// InitializeProgress 按目录快照建树，课程不存在或没有章节时返回 NotFound
// 并发初始化撞到唯一键时改为读回已有记录
func (s *ProgressService) InitializeProgress(userID, courseID uint) (*model.CourseProgress, error) {
	course, err := s.Catalog.FindWithCatalog(courseID)
	if err != nil {
		return nil, err
	}
	if course == nil || len(course.Lectures) == 0 {
		return nil, util.NotFoundError("course not found or has no lectures")
	}

	progress := &model.CourseProgress{
		UserID:   userID,
		CourseID: courseID,
	}
	for _, lecture := range course.Lectures {
		lp := model.LectureProgress{LectureID: lecture.ID}
		for _, video := range lecture.Videos {
			lp.Videos = append(lp.Videos, model.VideoProgress{
				VideoID:         video.ID,
				IsCompleted:     false,
				WatchPercentage: 0,
			})
		}
		progress.Lectures = append(progress.Lectures, lp)
	}

	if err := s.Progress.Create(progress); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Log.Info("progress already initialized concurrently",
				zap.Uint("userId", userID), zap.Uint("courseId", courseID))
			return s.Progress.FindByUserAndCourse(userID, courseID)
		}
		return nil, err
	}
	return progress, nil
}

// ReportVideoWatch 上报观看进度：截断到 [0,100]，按取最大值规则单调不回退，
// 达到阈值即置完成位，随后整树重算聚合百分比并在同一事务里落库
func (s *ProgressService) ReportVideoWatch(userID, courseID, lectureID, videoID uint, watchPercentage float64) (*model.CourseProgress, error) {
	if watchPercentage < 0 {
		watchPercentage = 0
	}
	if watchPercentage > 100 {
		watchPercentage = 100
	}

	progress, err := s.Progress.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.NotFoundError("course progress not found")
	}

	video := findVideoProgress(progress, lectureID, videoID)
	if video == nil {
		return nil, util.NotFoundError("video not found in course progress")
	}

	if watchPercentage > video.WatchPercentage {
		video.WatchPercentage = watchPercentage
	}
	if video.WatchPercentage >= model.VideoCompletionThreshold {
		video.IsCompleted = true
	}
	now := time.Now()
	video.LastWatchedAt = &now

	progress.Recalculate()

	if err := s.Progress.Update(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// MarkVideoComplete 直接把单个视频置为已完成，不改动已有观看百分比
// 随后整树重算聚合百分比
func (s *ProgressService) MarkVideoComplete(userID, courseID, lectureID, videoID uint) (*model.CourseProgress, error) {
	progress, err := s.Progress.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.NotFoundError("course progress not found")
	}

	video := findVideoProgress(progress, lectureID, videoID)
	if video == nil {
		return nil, util.NotFoundError("video not found in course progress")
	}

	video.IsCompleted = true
	now := time.Now()
	video.LastWatchedAt = &now

	progress.Recalculate()

	if err := s.Progress.Update(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// ForceCompleteAll 整课标记完成：全部视频 100%/已完成/现在，聚合置 100
func (s *ProgressService) ForceCompleteAll(userID, courseID uint) (*model.CourseProgress, error) {
	progress, err := s.Progress.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.NotFoundError("course progress not found")
	}

	now := time.Now()
	for li := range progress.Lectures {
		for vi := range progress.Lectures[li].Videos {
			v := &progress.Lectures[li].Videos[vi]
			v.IsCompleted = true
			v.WatchPercentage = 100
			v.LastWatchedAt = &now
		}
	}
	progress.ProgressPercentage = 100

	if err := s.Progress.Update(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// ForceIncompleteAll 整课重置：全部视频归零，聚合置 0
func (s *ProgressService) ForceIncompleteAll(userID, courseID uint) (*model.CourseProgress, error) {
	progress, err := s.Progress.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.NotFoundError("course progress not found")
	}

	for li := range progress.Lectures {
		for vi := range progress.Lectures[li].Videos {
			v := &progress.Lectures[li].Videos[vi]
			v.IsCompleted = false
			v.WatchPercentage = 0
		}
	}
	progress.ProgressPercentage = 0

	if err := s.Progress.Update(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// CheckVideoAccess 按目录顺序判定视频是否可播放，结果不缓存
func (s *ProgressService) CheckVideoAccess(userID, courseID, lectureID, videoID uint) (bool, error) {
	course, err := s.Catalog.FindWithCatalog(courseID)
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, util.NotFoundError("course not found")
	}

	progress, err := s.Progress.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return false, err
	}

	return CanAccessVideo(FlattenCatalog(course), progress, lectureID, videoID)
}

func findVideoProgress(progress *model.CourseProgress, lectureID, videoID uint) *model.VideoProgress {
	for li := range progress.Lectures {
		if progress.Lectures[li].LectureID != lectureID {
			continue
		}
		for vi := range progress.Lectures[li].Videos {
			if progress.Lectures[li].Videos[vi].VideoID == videoID {
				return &progress.Lectures[li].Videos[vi]
			}
		}
	}
	return nil
}
