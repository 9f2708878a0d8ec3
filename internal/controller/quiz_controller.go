package controller

import (
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

// @Summary 创建测验（讲师）
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizRequest true "测验定义"
// @Success 201 {object} util.Response
// @Router /instructor/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.CreateQuiz(user.UserID, req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, quiz)
}

// @Summary 更新测验（讲师）
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.QuizRequest true "测验定义"
// @Success 200 {object} util.Response
// @Router /instructor/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	quizID := util.MustParseUint(ctx.Param("id"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.UpdateQuiz(user.UserID, quizID, req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// @Summary 停用测验（讲师）
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /instructor/quizzes/{id} [delete]
func (c *QuizController) DeactivateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	quizID := util.MustParseUint(ctx.Param("id"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	if err := c.Service.DeactivateQuiz(user.UserID, quizID); err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deactivated": true})
}

// @Summary 讲师的测验列表
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /instructor/quizzes [get]
func (c *QuizController) ListInstructorQuizzes(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	quizzes, err := c.Service.ListInstructorQuizzes(user.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, quizzes)
}

// @Summary 获取课程测验（学员视图，不含答案）
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/quiz [get]
func (c *QuizController) GetQuizForLearner(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	quiz, err := c.Service.GetQuizForLearner(courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// @Summary 查询答题资格
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/quiz/eligibility [get]
func (c *QuizController) CheckEligibility(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	eligibility, err := c.Service.CheckEligibility(user.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, eligibility)
}

type AttemptRequest struct {
	Answers          []service.AnswerSubmission `json:"answers" binding:"required"`
	TimeSpentSeconds int                        `json:"timeSpentSeconds"`
}

// @Summary 提交一次答题
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body AttemptRequest true "答案列表"
// @Success 201 {object} util.Response
// @Router /courses/{courseId}/quiz/attempts [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req AttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitAttempt(user.UserID, courseID, req.Answers, req.TimeSpentSeconds)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// @Summary 我的答题历史（新到旧）
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/quiz/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	attempts, err := c.Service.ListAttempts(user.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}
