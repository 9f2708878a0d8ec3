package controller

import (
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	Service *service.CertificateService
}

func NewCertificateController(svc *service.CertificateService) *CertificateController {
	return &CertificateController{Service: svc}
}

// @Summary 我的证书列表（仅有效）
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /certificates [get]
func (c *CertificateController) ListMyCertificates(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	certs, err := c.Service.ListUserCertificates(user.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, certs)
}

// @Summary 查看单张证书
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param certificateId path string true "证书编号"
// @Success 200 {object} util.Response
// @Router /certificates/{certificateId} [get]
func (c *CertificateController) GetCertificate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	cert, err := c.Service.GetByCertificateID(user.UserID, ctx.Param("certificateId"))
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, cert)
}

// @Summary 记录一次证书下载
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param certificateId path string true "证书编号"
// @Success 200 {object} util.Response
// @Router /certificates/{certificateId}/download [post]
func (c *CertificateController) DownloadCertificate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.RecordDownload(user.UserID, ctx.Param("certificateId"))
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 公开核验证书真伪
// @Tags 证书
// @Produce json
// @Param certificateId path string true "证书编号"
// @Success 200 {object} util.Response
// @Router /certificates/verify/{certificateId} [get]
func (c *CertificateController) VerifyCertificate(ctx *gin.Context) {
	result, err := c.Service.Verify(ctx.Param("certificateId"))
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 吊销证书（管理员）
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param certificateId path string true "证书编号"
// @Success 200 {object} util.Response
// @Router /admin/certificates/{certificateId}/revoke [post]
func (c *CertificateController) RevokeCertificate(ctx *gin.Context) {
	if err := c.Service.Revoke(ctx.Param("certificateId")); err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"revoked": true})
}
