package handler

import (
	"net/http"

	"medi-smart-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 负责对话历史查询接口。
type ConversationHandler struct {
	conversationService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// GetConversations 返回租户当前会话的完整历史。
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 tenant_id", "data": nil})
		return
	}

	messages, err := h.conversationService.GetCurrentConversation(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询对话历史失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": messages})
}
