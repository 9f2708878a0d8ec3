package controller

import (
	"strconv"

	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Service *service.CourseService
	Storage *service.StorageService
}

func NewCourseController(svc *service.CourseService, storage *service.StorageService) *CourseController {
	return &CourseController{Service: svc, Storage: storage}
}

// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	courses, total, err := c.Service.ListCourses(page, limit)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

// @Summary 课程详情（含章节与视频目录）
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	course, err := c.Service.GetCourse(courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, course)
}

// @Summary 讲师建课
// @Tags 课程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response
// @Router /instructor/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.Service.CreateCourse(user.UserID, req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, course)
}

// @Summary 讲师课程列表
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /instructor/courses [get]
func (c *CourseController) ListInstructorCourses(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courses, err := c.Service.ListInstructorCourses(user.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}

// @Summary 上传章节视频文件
// @Tags 课程
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param file formData file true "视频文件"
// @Success 200 {object} util.Response
// @Router /instructor/courses/{courseId}/videos/upload [post]
func (c *CourseController) UploadVideo(ctx *gin.Context) {
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

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}

	url, err := c.Storage.UploadLectureVideo(ctx.Request.Context(), courseID, fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}
