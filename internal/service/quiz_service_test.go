package service

import (
	"encoding/json"
	"testing"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockQuizStore struct {
	quiz          *model.Quiz
	byID          *model.Quiz
	attemptsUsed  int
	countSeq      []int // 非空时按调用顺序弹出，覆盖 attemptsUsed
	hasPassed     bool
	attempts      []model.QuizAttempt
	createErr     error
	attemptErrs   []error // 按调用顺序弹出，空后返回 nil
	created       *model.Quiz
	updated       *model.Quiz
	deactivated   []uint
	attemptCalls  int
	savedAttempts []*model.QuizAttempt
}

func (m *mockQuizStore) Create(quiz *model.Quiz) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = quiz
	return nil
}

func (m *mockQuizStore) FindByID(id uint) (*model.Quiz, error) { return m.byID, nil }

func (m *mockQuizStore) FindActiveByCourse(courseID uint) (*model.Quiz, error) {
	return m.quiz, nil
}

func (m *mockQuizStore) Update(quiz *model.Quiz) error {
	m.updated = quiz
	return nil
}

func (m *mockQuizStore) Deactivate(id uint) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockQuizStore) ListByInstructor(instructorID uint) ([]model.Quiz, error) {
	return nil, nil
}

func (m *mockQuizStore) CountAttempts(userID, quizID uint) (int, error) {
	if len(m.countSeq) > 0 {
		count := m.countSeq[0]
		m.countSeq = m.countSeq[1:]
		return count, nil
	}
	return m.attemptsUsed, nil
}

func (m *mockQuizStore) CreateAttempt(attempt *model.QuizAttempt) error {
	m.attemptCalls++
	if len(m.attemptErrs) > 0 {
		err := m.attemptErrs[0]
		m.attemptErrs = m.attemptErrs[1:]
		if err != nil {
			return err
		}
	}
	m.savedAttempts = append(m.savedAttempts, attempt)
	return nil
}

func (m *mockQuizStore) ListAttempts(userID, quizID uint) ([]model.QuizAttempt, error) {
	return m.attempts, nil
}

func (m *mockQuizStore) HasPassed(userID, courseID uint) (bool, error) {
	return m.hasPassed, nil
}

type mockCourseStore struct {
	course     *model.Course
	instructor uint
}

func (m *mockCourseStore) FindByID(id uint) (*model.Course, error) { return m.course, nil }
func (m *mockCourseStore) InstructorOf(courseID uint) (uint, error) {
	return m.instructor, nil
}

type mockUserStore struct {
	user *model.User
}

func (m *mockUserStore) FindByID(id uint) (*model.User, error) { return m.user, nil }

type mockIssuer struct {
	calls   int
	created bool
	err     error
}

func (m *mockIssuer) IssueIfPassed(userID, courseID uint, score int, studentName, courseName, instructorName string) (*model.Certificate, bool, error) {
	m.calls++
	if m.err != nil {
		return nil, false, m.err
	}
	return &model.Certificate{UserID: userID, CourseID: courseID, FinalScore: score}, m.created, nil
}

// 四题测验，正确答案都是第 1 项
func fourQuestionQuiz() *model.Quiz {
	quiz := &model.Quiz{
		BaseModel:    model.BaseModel{ID: 5},
		CourseID:     1,
		Title:        "结课测验",
		PassingScore: model.DefaultPassingScore,
		MaxAttempts:  model.DefaultMaxAttempts,
		IsActive:     true,
		CreatedBy:    2,
	}
	for i := 0; i < 4; i++ {
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			BaseModel:          model.BaseModel{ID: uint(20 + i)},
			QuizID:             5,
			Question:           "q",
			Options:            model.StringSlice{"a", "b", "c"},
			CorrectAnswerIndex: 1,
			Explanation:        "explained",
			Order:              i,
		})
	}
	return quiz
}

func validQuizRequest() QuizRequest {
	return QuizRequest{
		CourseID: 1,
		Title:    "结课测验",
		Questions: []QuizQuestionRequest{
			{Question: "q1", Options: []string{"a", "b"}, CorrectAnswerIndex: 0},
			{Question: "q2", Options: []string{"a", "b", "c"}, CorrectAnswerIndex: 2},
		},
	}
}

func newQuizService(quiz *mockQuizStore, course *mockCourseStore) (*QuizService, *mockIssuer) {
	issuer := &mockIssuer{created: true}
	user := &mockUserStore{user: &model.User{BaseModel: model.BaseModel{ID: 1}, Name: "Student"}}
	return NewQuizService(quiz, course, user, issuer, nil), issuer
}

func TestCreateQuiz_Validation(t *testing.T) {
	svc, _ := newQuizService(&mockQuizStore{}, &mockCourseStore{instructor: 2})

	tests := []struct {
		name   string
		mutate func(*QuizRequest)
	}{
		{"no questions", func(r *QuizRequest) { r.Questions = nil }},
		{"too few options", func(r *QuizRequest) { r.Questions[0].Options = []string{"a"} }},
		{"too many options", func(r *QuizRequest) {
			r.Questions[0].Options = []string{"a", "b", "c", "d", "e", "f", "g"}
		}},
		{"answer index out of range", func(r *QuizRequest) { r.Questions[0].CorrectAnswerIndex = 2 }},
		{"negative answer index", func(r *QuizRequest) { r.Questions[0].CorrectAnswerIndex = -1 }},
		{"passing score above 100", func(r *QuizRequest) { score := 101; r.PassingScore = &score }},
		{"zero max attempts", func(r *QuizRequest) { attempts := 0; r.MaxAttempts = &attempts }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validQuizRequest()
			tt.mutate(&req)
			_, err := svc.CreateQuiz(2, req)
			assert.Equal(t, util.KindInvalidInput, util.KindOf(err))
		})
	}
}

func TestCreateQuiz_OwnershipAndConflict(t *testing.T) {
	// 课程不存在
	svc, _ := newQuizService(&mockQuizStore{}, &mockCourseStore{instructor: 0})
	_, err := svc.CreateQuiz(2, validQuizRequest())
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	// 他人的课程
	svc, _ = newQuizService(&mockQuizStore{}, &mockCourseStore{instructor: 7})
	_, err = svc.CreateQuiz(2, validQuizRequest())
	assert.Equal(t, util.KindForbidden, util.KindOf(err))

	// 已有启用中的测验
	svc, _ = newQuizService(&mockQuizStore{quiz: fourQuestionQuiz()}, &mockCourseStore{instructor: 2})
	_, err = svc.CreateQuiz(2, validQuizRequest())
	assert.Equal(t, util.KindConflict, util.KindOf(err))
}

func TestCreateQuiz_AppliesDefaults(t *testing.T) {
	store := &mockQuizStore{}
	svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

	quiz, err := svc.CreateQuiz(2, validQuizRequest())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPassingScore, quiz.PassingScore)
	assert.Equal(t, model.DefaultMaxAttempts, quiz.MaxAttempts)
	assert.True(t, quiz.IsActive)
	assert.Equal(t, uint(2), quiz.CreatedBy)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, 0, quiz.Questions[0].Order)
	assert.Equal(t, 1, quiz.Questions[1].Order)
	assert.NotNil(t, store.created)
}

func TestUpdateQuiz_OwnershipAgainstCreator(t *testing.T) {
	svc, _ := newQuizService(&mockQuizStore{byID: fourQuestionQuiz()}, &mockCourseStore{instructor: 2})

	_, err := svc.UpdateQuiz(9, 5, validQuizRequest())
	assert.Equal(t, util.KindForbidden, util.KindOf(err))

	svc, _ = newQuizService(&mockQuizStore{byID: nil}, &mockCourseStore{instructor: 2})
	_, err = svc.UpdateQuiz(2, 5, validQuizRequest())
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestDeactivateQuiz(t *testing.T) {
	store := &mockQuizStore{byID: fourQuestionQuiz()}
	svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

	require.NoError(t, svc.DeactivateQuiz(2, 5))
	assert.Equal(t, []uint{5}, store.deactivated)

	err := svc.DeactivateQuiz(9, 5)
	assert.Equal(t, util.KindForbidden, util.KindOf(err))
}

// 学员视图不允许出现正确答案和解析，连 JSON 序列化后也不能有
func TestGetQuizForLearner_Sanitized(t *testing.T) {
	svc, _ := newQuizService(&mockQuizStore{quiz: fourQuestionQuiz()}, &mockCourseStore{instructor: 2})

	sanitized, err := svc.GetQuizForLearner(1)
	require.NoError(t, err)
	require.NotNil(t, sanitized)
	require.Len(t, sanitized.Questions, 4)

	payload, err := json.Marshal(sanitized)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "correctAnswerIndex")
	assert.NotContains(t, string(payload), "explanation")
	assert.NotContains(t, string(payload), "explained")
}

func TestGetQuizForLearner_NoActiveQuiz(t *testing.T) {
	svc, _ := newQuizService(&mockQuizStore{}, &mockCourseStore{instructor: 2})

	sanitized, err := svc.GetQuizForLearner(1)
	require.NoError(t, err)
	assert.Nil(t, sanitized)
}

func TestCheckEligibility(t *testing.T) {
	tests := []struct {
		name         string
		attemptsUsed int
		hasPassed    bool
		wantCanTake  bool
	}{
		{"fresh user", 0, false, true},
		{"one attempt left", 2, false, true},
		{"attempts exhausted", 3, false, false},
		{"already passed", 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockQuizStore{quiz: fourQuestionQuiz(), attemptsUsed: tt.attemptsUsed, hasPassed: tt.hasPassed}
			svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

			eligibility, err := svc.CheckEligibility(1, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCanTake, eligibility.CanTake)
			assert.Equal(t, tt.attemptsUsed, eligibility.AttemptsUsed)
			assert.Equal(t, tt.hasPassed, eligibility.HasPassedBefore)
		})
	}
}

func submission(indexes ...int) []AnswerSubmission {
	answers := make([]AnswerSubmission, len(indexes))
	for i, idx := range indexes {
		answers[i] = AnswerSubmission{QuestionID: uint(20 + i), SelectedAnswerIndex: idx}
	}
	return answers
}

func TestSubmitAttempt_GradingAndPassing(t *testing.T) {
	course := &mockCourseStore{
		instructor: 2,
		course: &model.Course{
			BaseModel:  model.BaseModel{ID: 1},
			Title:      "Go 后端入门",
			Instructor: &model.User{Name: "Teacher"},
		},
	}

	// 3/4 正确 → 75 分，默认及格线 75，刚好通过
	store := &mockQuizStore{quiz: fourQuestionQuiz()}
	svc, issuer := newQuizService(store, course)

	result, err := svc.SubmitAttempt(1, 1, submission(1, 1, 1, 0), 120)
	require.NoError(t, err)
	assert.Equal(t, 75, result.Attempt.Score)
	assert.True(t, result.Attempt.IsPassed)
	assert.True(t, result.CertificateIssued)
	assert.Equal(t, 1, issuer.calls)
	assert.Equal(t, 1, result.Attempt.AttemptNumber)

	// 2/4 正确 → 50 分，不及格，不触发签发
	store = &mockQuizStore{quiz: fourQuestionQuiz()}
	svc, issuer = newQuizService(store, course)

	result, err = svc.SubmitAttempt(1, 1, submission(1, 1, 0, 0), 120)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Attempt.Score)
	assert.False(t, result.Attempt.IsPassed)
	assert.False(t, result.CertificateIssued)
	assert.Zero(t, issuer.calls)

	// 答案里记录逐题判定
	var graded []model.QuizAnswer
	require.NoError(t, json.Unmarshal(result.Attempt.Answers, &graded))
	require.Len(t, graded, 4)
	assert.True(t, graded[0].IsCorrect)
	assert.False(t, graded[3].IsCorrect)
}

func TestSubmitAttempt_UnansweredCountsAgainstScore(t *testing.T) {
	store := &mockQuizStore{quiz: fourQuestionQuiz()}
	svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

	// 只答一题且答对：1/4 → 25 分
	result, err := svc.SubmitAttempt(1, 1, submission(1), 30)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Attempt.Score)
	assert.False(t, result.Attempt.IsPassed)
}

func TestSubmitAttempt_InvalidQuestionRejectsWholeSubmission(t *testing.T) {
	store := &mockQuizStore{quiz: fourQuestionQuiz()}
	svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

	answers := submission(1, 1, 1, 1)
	answers[2].QuestionID = 999

	_, err := svc.SubmitAttempt(1, 1, answers, 30)
	assert.Equal(t, util.KindInvalidInput, util.KindOf(err))
	assert.Zero(t, store.attemptCalls, "整卷拒绝时不应落任何答题记录")
}

func TestSubmitAttempt_AttemptCap(t *testing.T) {
	store := &mockQuizStore{quiz: fourQuestionQuiz(), attemptsUsed: 3}
	svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

	_, err := svc.SubmitAttempt(1, 1, submission(1, 1, 1, 1), 30)
	assert.Equal(t, util.KindLimitExceeded, util.KindOf(err))
}

func TestSubmitAttempt_NoActiveQuiz(t *testing.T) {
	svc, _ := newQuizService(&mockQuizStore{}, &mockCourseStore{instructor: 2})

	_, err := svc.SubmitAttempt(1, 1, submission(1), 30)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

// 并发提交撞唯一键后以新的序号重试
func TestSubmitAttempt_RetriesOnDuplicateAttemptNumber(t *testing.T) {
	store := &mockQuizStore{
		quiz:        fourQuestionQuiz(),
		attemptErrs: []error{gorm.ErrDuplicatedKey},
		countSeq:    []int{0, 1}, // 提交前 0 次，冲突后重新取到 1 次
	}
	svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

	result, err := svc.SubmitAttempt(1, 1, submission(1, 1, 0, 0), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, store.attemptCalls)
	assert.Equal(t, 2, result.Attempt.AttemptNumber)
}

// 冲突重试后发现名额已被并发提交占满
func TestSubmitAttempt_RetryHitsCap(t *testing.T) {
	store := &mockQuizStore{
		quiz:        fourQuestionQuiz(),
		attemptErrs: []error{gorm.ErrDuplicatedKey},
		countSeq:    []int{2, 3},
	}
	svc, _ := newQuizService(store, &mockCourseStore{instructor: 2})

	_, err := svc.SubmitAttempt(1, 1, submission(1, 1, 0, 0), 30)
	assert.Equal(t, util.KindLimitExceeded, util.KindOf(err))
}

func TestSubmitAttempt_CertificateFailureDoesNotFailSubmission(t *testing.T) {
	store := &mockQuizStore{quiz: fourQuestionQuiz()}
	course := &mockCourseStore{
		instructor: 2,
		course:     &model.Course{BaseModel: model.BaseModel{ID: 1}, Title: "Go 后端入门"},
	}
	user := &mockUserStore{user: &model.User{Name: "Student"}}
	issuer := &mockIssuer{err: assert.AnError}
	svc := NewQuizService(store, course, user, issuer, nil)

	result, err := svc.SubmitAttempt(1, 1, submission(1, 1, 1, 1), 30)
	require.NoError(t, err)
	assert.True(t, result.Attempt.IsPassed)
	assert.False(t, result.CertificateIssued)
}

func TestListAttempts_NoQuizReturnsEmpty(t *testing.T) {
	svc, _ := newQuizService(&mockQuizStore{}, &mockCourseStore{instructor: 2})

	attempts, err := svc.ListAttempts(1, 1)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
