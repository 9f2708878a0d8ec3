package service

import (
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
)

type CourseService struct {
	Repo *repository.CourseRepository
}

func NewCourseService(repo *repository.CourseRepository) *CourseService {
	return &CourseService{Repo: repo}
}

type VideoRequest struct {
	Title           string `json:"title" binding:"required"`
	URL             string `json:"url"`
	Order           int    `json:"order"`
	DurationSeconds int    `json:"durationSeconds"`
}

type LectureRequest struct {
	Title  string         `json:"title" binding:"required"`
	Order  int            `json:"order"`
	Videos []VideoRequest `json:"videos"`
}

type CourseRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Thumbnail   string           `json:"thumbnail"`
	IsPublished bool             `json:"isPublished"`
	Lectures    []LectureRequest `json:"lectures"`
}

// CreateCourse 建课连同章节/视频目录一并落库
func (s *CourseService) CreateCourse(instructorID uint, req CourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		Thumbnail:    req.Thumbnail,
		InstructorID: instructorID,
		IsPublished:  req.IsPublished,
	}
	for _, l := range req.Lectures {
		lecture := model.Lecture{Title: l.Title, Order: l.Order}
		for _, v := range l.Videos {
			lecture.Videos = append(lecture.Videos, model.Video{
				Title:           v.Title,
				URL:             v.URL,
				Order:           v.Order,
				DurationSeconds: v.DurationSeconds,
			})
		}
		course.Lectures = append(course.Lectures, lecture)
	}

	if err := s.Repo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	course, err := s.Repo.FindWithCatalog(id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, util.NotFoundError("course not found")
	}
	return course, nil
}

func (s *CourseService) ListCourses(page, limit int) ([]model.Course, int64, error) {
	return s.Repo.List(page, limit)
}

func (s *CourseService) ListInstructorCourses(instructorID uint) ([]model.Course, error) {
	return s.Repo.ListByInstructor(instructorID)
}
