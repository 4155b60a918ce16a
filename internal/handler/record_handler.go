package handler

import (
	"net/http"

	"medi-smart-go/internal/model"
	"medi-smart-go/internal/service"

	"github.com/gin-gonic/gin"
)

// RecordHandler 负责健康记录与租户画像的 HTTP 接口。
type RecordHandler struct {
	recordService service.RecordService
}

// NewRecordHandler 创建一个新的 RecordHandler。
func NewRecordHandler(recordService service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

type saveRecordRequest struct {
	TenantID   string `json:"tenant_id" binding:"required"`
	RecordType string `json:"record_type" binding:"required"`
	Data       string `json:"data"`
	Prediction string `json:"prediction"`
}

// SaveRecord 保存一条健康记录。
func (h *RecordHandler) SaveRecord(c *gin.Context) {
	var req saveRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数", "data": nil})
		return
	}

	record, err := h.recordService.SaveRecord(c.Request.Context(), req.TenantID, req.RecordType, req.Data, req.Prediction)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "保存记录失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": record})
}

// DeleteRecord 删除一条健康记录，同步清理长期记忆。
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	id := c.Param("id")
	if tenantID == "" || id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 tenant_id 或记录ID", "data": nil})
		return
	}

	if err := h.recordService.DeleteRecord(c.Request.Context(), tenantID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除记录失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}

// ListRecords 返回租户最近的健康记录。
func (h *RecordHandler) ListRecords(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 tenant_id", "data": nil})
		return
	}

	records, err := h.recordService.ListRecords(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询记录失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": records})
}

// GetProfile 返回租户画像。
func (h *RecordHandler) GetProfile(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 tenant_id", "data": nil})
		return
	}

	profile, err := h.recordService.GetProfile(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询画像失败", "data": nil})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "画像不存在", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": profile})
}

// SaveProfile 创建或覆盖租户画像。
func (h *RecordHandler) SaveProfile(c *gin.Context) {
	var profile model.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil || profile.TenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数", "data": nil})
		return
	}

	if err := h.recordService.SaveProfile(&profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "保存画像失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": profile})
}
