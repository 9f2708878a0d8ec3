package controller

import (
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.ProgressService
}

func NewProgressController(svc *service.ProgressService) *ProgressController {
	return &ProgressController{Service: svc}
}

// @Summary 获取课程进度（首次访问时自动初始化）
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /progress/{courseId} [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
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

	progress, err := c.Service.GetOrInitializeProgress(user.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

type WatchReportRequest struct {
	WatchPercentage *float64 `json:"watchPercentage" binding:"required"`
}

// @Summary 上报视频观看进度
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param lectureId path int true "章节ID"
// @Param videoId path int true "视频ID"
// @Param body body WatchReportRequest true "观看百分比"
// @Success 200 {object} util.Response
// @Router /progress/{courseId}/lectures/{lectureId}/videos/{videoId}/watch [post]
func (c *ProgressController) ReportVideoWatch(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	lectureID := util.MustParseUint(ctx.Param("lectureId"))
	videoID := util.MustParseUint(ctx.Param("videoId"))
	if courseID == 0 || lectureID == 0 || videoID == 0 {
		util.BadRequest(ctx, "invalid path parameters")
		return
	}

	var req WatchReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.Service.ReportVideoWatch(user.UserID, courseID, lectureID, videoID, *req.WatchPercentage)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 标记单个视频为已完成
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param lectureId path int true "章节ID"
// @Param videoId path int true "视频ID"
// @Success 200 {object} util.Response
// @Router /progress/{courseId}/lectures/{lectureId}/videos/{videoId} [post]
func (c *ProgressController) MarkVideoComplete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	lectureID := util.MustParseUint(ctx.Param("lectureId"))
	videoID := util.MustParseUint(ctx.Param("videoId"))
	if courseID == 0 || lectureID == 0 || videoID == 0 {
		util.BadRequest(ctx, "invalid path parameters")
		return
	}

	progress, err := c.Service.MarkVideoComplete(user.UserID, courseID, lectureID, videoID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 整课标记完成
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /progress/{courseId}/complete [post]
func (c *ProgressController) MarkCourseComplete(ctx *gin.Context) {
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

	progress, err := c.Service.ForceCompleteAll(user.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 整课重置为未完成
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /progress/{courseId}/incomplete [post]
func (c *ProgressController) MarkCourseIncomplete(ctx *gin.Context) {
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

	progress, err := c.Service.ForceIncompleteAll(user.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 查询某视频当前是否可播放
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param lectureId path int true "章节ID"
// @Param videoId path int true "视频ID"
// @Success 200 {object} util.Response
// @Router /progress/{courseId}/lectures/{lectureId}/videos/{videoId}/access [get]
func (c *ProgressController) CheckVideoAccess(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	lectureID := util.MustParseUint(ctx.Param("lectureId"))
	videoID := util.MustParseUint(ctx.Param("videoId"))
	if courseID == 0 || lectureID == 0 || videoID == 0 {
		util.BadRequest(ctx, "invalid path parameters")
		return
	}

	canAccess, err := c.Service.CheckVideoAccess(user.UserID, courseID, lectureID, videoID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"canAccess": canAccess})
}
