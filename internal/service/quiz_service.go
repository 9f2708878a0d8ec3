package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"
	"learnsphere_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizStore 测验与答题记录的持久化接口
type QuizStore interface {
	Create(quiz *model.Quiz) error
	FindByID(id uint) (*model.Quiz, error)
	FindActiveByCourse(courseID uint) (*model.Quiz, error)
	Update(quiz *model.Quiz) error
	Deactivate(id uint) error
	ListByInstructor(instructorID uint) ([]model.Quiz, error)
	CountAttempts(userID, quizID uint) (int, error)
	CreateAttempt(attempt *model.QuizAttempt) error
	ListAttempts(userID, quizID uint) ([]model.QuizAttempt, error)
	HasPassed(userID, courseID uint) (bool, error)
}

// CourseStore 课程信息与归属讲师查询接口
type CourseStore interface {
	FindByID(id uint) (*model.Course, error)
	InstructorOf(courseID uint) (uint, error)
}

// UserStore 学员信息查询接口，证书快照字段用
type UserStore interface {
	FindByID(id uint) (*model.User, error)
}

// CertificateIssuer 通过测验后的证书签发接口
type CertificateIssuer interface {
	IssueIfPassed(userID, courseID uint, score int, studentName, courseName, instructorName string) (*model.Certificate, bool, error)
}

type QuizService struct {
	Quiz   QuizStore
	Course CourseStore
	User   UserStore
	Certs  CertificateIssuer
	rdb    *redis.Client
}

func NewQuizService(quiz QuizStore, course CourseStore, user UserStore, certs CertificateIssuer, rdb *redis.Client) *QuizService {
	return &QuizService{Quiz: quiz, Course: course, User: user, Certs: certs, rdb: rdb}
}

const learnerQuizCacheTTL = 10 * time.Minute

type QuizQuestionRequest struct {
	Question           string   `json:"question" binding:"required"`
	Options            []string `json:"options" binding:"required"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

type QuizRequest struct {
	CourseID         uint                  `json:"courseId" binding:"required"`
	Title            string                `json:"title" binding:"required"`
	Description      string                `json:"description"`
	PassingScore     *int                  `json:"passingScore"`
	TimeLimitMinutes *int                  `json:"timeLimitMinutes"`
	MaxAttempts      *int                  `json:"maxAttempts"`
	Questions        []QuizQuestionRequest `json:"questions" binding:"required"`
}

func validateQuizDefinition(req *QuizRequest) error {
	if len(req.Questions) < 1 {
		return util.InvalidInputError("quiz must have at least 1 question")
	}
	for i, q := range req.Questions {
		if len(q.Options) < model.MinQuizOptions || len(q.Options) > model.MaxQuizOptions {
			return util.InvalidInputError(fmt.Sprintf("question %d must have between %d and %d options", i+1, model.MinQuizOptions, model.MaxQuizOptions))
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
			return util.InvalidInputError(fmt.Sprintf("question %d has an out-of-range correct answer index", i+1))
		}
	}
	if req.PassingScore != nil && (*req.PassingScore < 0 || *req.PassingScore > 100) {
		return util.InvalidInputError("passing score must be between 0 and 100")
	}
	if req.MaxAttempts != nil && *req.MaxAttempts < 1 {
		return util.InvalidInputError("max attempts must be at least 1")
	}
	if req.TimeLimitMinutes != nil && *req.TimeLimitMinutes < 1 {
		return util.InvalidInputError("time limit must be at least 1 minute")
	}
	return nil
}

// CreateQuiz 讲师建卷：课程必须存在且归属该讲师，且该课程当前没有启用中的测验
func (s *QuizService) CreateQuiz(instructorID uint, req QuizRequest) (*model.Quiz, error) {
	if err := validateQuizDefinition(&req); err != nil {
		return nil, err
	}

	ownerID, err := s.Course.InstructorOf(req.CourseID)
	if err != nil {
		return nil, err
	}
	if ownerID == 0 {
		return nil, util.NotFoundError("course not found")
	}
	if ownerID != instructorID {
		return nil, util.ForbiddenError("you can only create quizzes for your own courses")
	}

	existing, err := s.Quiz.FindActiveByCourse(req.CourseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ConflictError("an active quiz already exists for this course")
	}

	quiz := &model.Quiz{
		CourseID:         req.CourseID,
		Title:            req.Title,
		Description:      req.Description,
		PassingScore:     model.DefaultPassingScore,
		MaxAttempts:      model.DefaultMaxAttempts,
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsActive:         true,
		CreatedBy:        instructorID,
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
	for i, q := range req.Questions {
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			Question:           q.Question,
			Options:            q.Options,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Explanation:        q.Explanation,
			Order:              i,
		})
	}

	if err := s.Quiz.Create(quiz); err != nil {
		return nil, err
	}
	s.invalidateLearnerCache(req.CourseID)
	return quiz, nil
}

// UpdateQuiz 整卷更新，归属检查针对 quiz.CreatedBy
func (s *QuizService) UpdateQuiz(instructorID, quizID uint, req QuizRequest) (*model.Quiz, error) {
	quiz, err := s.Quiz.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, util.NotFoundError("quiz not found")
	}
	if quiz.CreatedBy != instructorID {
		return nil, util.ForbiddenError("you can only update your own quizzes")
	}

	req.CourseID = quiz.CourseID
	if err := validateQuizDefinition(&req); err != nil {
		return nil, err
	}

	quiz.Title = req.Title
	quiz.Description = req.Description
	quiz.TimeLimitMinutes = req.TimeLimitMinutes
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
	quiz.Questions = nil
	for i, q := range req.Questions {
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			QuizID:             quiz.ID,
			Question:           q.Question,
			Options:            q.Options,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Explanation:        q.Explanation,
			Order:              i,
		})
	}

	if err := s.Quiz.Update(quiz); err != nil {
		return nil, err
	}
	s.invalidateLearnerCache(quiz.CourseID)
	return quiz, nil
}

// DeactivateQuiz 逻辑下线，从不物理删除
func (s *QuizService) DeactivateQuiz(instructorID, quizID uint) error {
	quiz, err := s.Quiz.FindByID(quizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		return util.NotFoundError("quiz not found")
	}
	if quiz.CreatedBy != instructorID {
		return util.ForbiddenError("you can only delete your own quizzes")
	}
	if err := s.Quiz.Deactivate(quizID); err != nil {
		return err
	}
	s.invalidateLearnerCache(quiz.CourseID)
	return nil
}

func (s *QuizService) ListInstructorQuizzes(instructorID uint) ([]model.Quiz, error) {
	return s.Quiz.ListByInstructor(instructorID)
}

// SanitizedQuizQuestion 学员视图的题目，绝不携带正确答案与解析
type SanitizedQuizQuestion struct {
	ID       uint     `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Order    int      `json:"order"`
}

// SanitizedQuiz 学员视图的测验
type SanitizedQuiz struct {
	ID               uint                    `json:"id"`
	CourseID         uint                    `json:"courseId"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	PassingScore     int                     `json:"passingScore"`
	TimeLimitMinutes *int                    `json:"timeLimitMinutes,omitempty"`
	MaxAttempts      int                     `json:"maxAttempts"`
	Questions        []SanitizedQuizQuestion `json:"questions"`
}

// GetQuizForLearner 返回脱敏后的测验，没有启用中的测验时返回 nil
// 脱敏结果走 Redis 缓存，建卷/改卷/下线时失效
func (s *QuizService) GetQuizForLearner(courseID uint) (*SanitizedQuiz, error) {
	if cached := s.learnerCacheGet(courseID); cached != nil {
		return cached, nil
	}

	quiz, err := s.Quiz.FindActiveByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, nil
	}

	sanitized := &SanitizedQuiz{
		ID:               quiz.ID,
		CourseID:         quiz.CourseID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		PassingScore:     quiz.PassingScore,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		MaxAttempts:      quiz.MaxAttempts,
		Questions:        make([]SanitizedQuizQuestion, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		sanitized.Questions[i] = SanitizedQuizQuestion{
			ID:       q.ID,
			Question: q.Question,
			Options:  q.Options,
			Order:    q.Order,
		}
	}

	s.learnerCacheSet(courseID, sanitized)
	return sanitized, nil
}

// Eligibility 当前用户对某课程测验的可考状态
type Eligibility struct {
	CanTake         bool `json:"canTake"`
	AttemptsUsed    int  `json:"attemptsUsed"`
	MaxAttempts     int  `json:"maxAttempts"`
	HasPassedBefore bool `json:"hasPassedBefore"`
}

// CheckEligibility 已通过则不可再考，次数用尽也不可再考
func (s *QuizService) CheckEligibility(userID, courseID uint) (*Eligibility, error) {
	quiz, err := s.Quiz.FindActiveByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, util.NotFoundError("no quiz found for this course")
	}

	attemptsUsed, err := s.Quiz.CountAttempts(userID, quiz.ID)
	if err != nil {
		return nil, err
	}
	hasPassed, err := s.Quiz.HasPassed(userID, courseID)
	if err != nil {
		return nil, err
	}

	return &Eligibility{
		CanTake:         attemptsUsed < quiz.MaxAttempts && !hasPassed,
		AttemptsUsed:    attemptsUsed,
		MaxAttempts:     quiz.MaxAttempts,
		HasPassedBefore: hasPassed,
	}, nil
}

type AnswerSubmission struct {
	QuestionID          uint `json:"questionId" binding:"required"`
	SelectedAnswerIndex int  `json:"selectedAnswerIndex"`
}

// SubmissionResult 一次判卷结果与证书签发标记
type SubmissionResult struct {
	Attempt           *model.QuizAttempt `json:"attempt"`
	CertificateIssued bool               `json:"certificateIssued"`
}

// SubmitAttempt 判卷并落一条不可变的答题记录
//
// 次数上限在这里复查，不信任调用方先问过 CheckEligibility。任何一个
// questionId 不属于本卷都整卷拒绝。0 分也消耗一次机会。序号冲突说明有
// 并发提交抢先，重新取计数后重试或判 LimitExceeded。
func (s *QuizService) SubmitAttempt(userID, courseID uint, answers []AnswerSubmission, timeSpentSeconds int) (*SubmissionResult, error) {
	quiz, err := s.Quiz.FindActiveByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, util.NotFoundError("no quiz found for this course")
	}

	attemptsUsed, err := s.Quiz.CountAttempts(userID, quiz.ID)
	if err != nil {
		return nil, err
	}
	if attemptsUsed >= quiz.MaxAttempts {
		return nil, util.LimitExceededError(fmt.Sprintf("maximum attempts (%d) reached for this quiz", quiz.MaxAttempts))
	}

	questions := make(map[uint]*model.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	graded := make([]model.QuizAnswer, 0, len(answers))
	correct := 0
	for _, answer := range answers {
		question, ok := questions[answer.QuestionID]
		if !ok {
			return nil, util.InvalidInputError(fmt.Sprintf("invalid question id: %d", answer.QuestionID))
		}
		isCorrect := answer.SelectedAnswerIndex == question.CorrectAnswerIndex
		if isCorrect {
			correct++
		}
		graded = append(graded, model.QuizAnswer{
			QuestionID:          answer.QuestionID,
			SelectedAnswerIndex: answer.SelectedAnswerIndex,
			IsCorrect:           isCorrect,
		})
	}

	score := int(math.Round(float64(correct) / float64(len(quiz.Questions)) * 100))
	isPassed := score >= quiz.PassingScore

	answersJSON, err := json.Marshal(graded)
	if err != nil {
		return nil, err
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	attempt := &model.QuizAttempt{
		UserID:           userID,
		CourseID:         courseID,
		QuizID:           quiz.ID,
		Answers:          answersJSON,
		Score:            score,
		IsPassed:         isPassed,
		TimeSpentSeconds: timeSpentSeconds,
		CompletedAt:      time.Now(),
	}

	// 唯一键 (user,quiz,attempt_number) 兜底：应用层的读后写检查不防并发
	for {
		attempt.AttemptNumber = attemptsUsed + 1
		err = s.Quiz.CreateAttempt(attempt)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		logger.Log.Warn("concurrent quiz submission detected, retrying attempt number",
			zap.Uint("userId", userID), zap.Uint("quizId", quiz.ID), zap.Int("lostNumber", attempt.AttemptNumber))
		attemptsUsed, err = s.Quiz.CountAttempts(userID, quiz.ID)
		if err != nil {
			return nil, err
		}
		if attemptsUsed >= quiz.MaxAttempts {
			return nil, util.LimitExceededError(fmt.Sprintf("maximum attempts (%d) reached for this quiz", quiz.MaxAttempts))
		}
	}

	if isPassed {
		monitoring.QuizSubmissionCounter.WithLabelValues("passed").Inc()
	} else {
		monitoring.QuizSubmissionCounter.WithLabelValues("failed").Inc()
	}

	result := &SubmissionResult{Attempt: attempt}

	if isPassed {
		issued, err := s.issueCertificate(userID, courseID, score)
		if err != nil {
			// 判卷已落库，签发失败不回滚答题记录
			logger.Log.Error("certificate issuance failed after passing attempt",
				zap.Uint("userId", userID), zap.Uint("courseId", courseID), zap.Error(err))
		} else {
			result.CertificateIssued = issued
		}
	}

	return result, nil
}

func (s *QuizService) issueCertificate(userID, courseID uint, score int) (bool, error) {
	user, err := s.User.FindByID(userID)
	if err != nil {
		return false, err
	}
	course, err := s.Course.FindByID(courseID)
	if err != nil {
		return false, err
	}
	if user == nil || course == nil {
		return false, util.NotFoundError("user or course not found for certificate snapshot")
	}

	instructorName := ""
	if course.Instructor != nil {
		instructorName = course.Instructor.Name
	}

	_, created, err := s.Certs.IssueIfPassed(userID, courseID, score, user.Name, course.Title, instructorName)
	return created, err
}

// ListAttempts 当前用户在某课程测验的历史答题记录
func (s *QuizService) ListAttempts(userID, courseID uint) ([]model.QuizAttempt, error) {
	quiz, err := s.Quiz.FindActiveByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return []model.QuizAttempt{}, nil
	}
	return s.Quiz.ListAttempts(userID, quiz.ID)
}

func (s *QuizService) learnerCacheKey(courseID uint) string {
	return fmt.Sprintf("quiz:learner:%d", courseID)
}

func (s *QuizService) learnerCacheGet(courseID uint) *SanitizedQuiz {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(context.Background(), s.learnerCacheKey(courseID)).Bytes()
	if err != nil {
		return nil
	}
	var sanitized SanitizedQuiz
	if err := json.Unmarshal(data, &sanitized); err != nil {
		return nil
	}
	return &sanitized
}

func (s *QuizService) learnerCacheSet(courseID uint, sanitized *SanitizedQuiz) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(sanitized)
	if err != nil {
		return
	}
	if err := s.rdb.Set(context.Background(), s.learnerCacheKey(courseID), data, learnerQuizCacheTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache learner quiz", zap.Uint("courseId", courseID), zap.Error(err))
	}
}

func (s *QuizService) invalidateLearnerCache(courseID uint) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(context.Background(), s.learnerCacheKey(courseID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate learner quiz cache", zap.Uint("courseId", courseID), zap.Error(err))
	}
}
