// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"medi-smart-go/internal/model"
	"medi-smart-go/internal/service"
	"medi-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理对话请求（HTTP 与 WebSocket 两种入口）。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat 处理一次同步对话请求。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数", "data": nil})
		return
	}

	resp := h.chatService.Chat(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": resp})
}

// Handle 处理一个传入的 WebSocket 连接：每条文本消息视为一个问题。
func (h *ChatHandler) Handle(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 tenant_id", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，租户: %s", tenantID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		resp := h.chatService.Chat(c.Request.Context(), model.ChatRequest{
			Message:  string(message),
			TenantID: tenantID,
		})

		chunk := map[string]string{"chunk": resp.Response}
		if resp.Error != "" {
			chunk["error"] = resp.Error
		}
		b, _ := json.Marshal(chunk)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("写入 WebSocket 消息失败: %v", err)
			break
		}
		sendCompletion(conn)
	}
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(ws *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"message":   "响应已完成",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	}
	b, _ := json.Marshal(notif)
	_ = ws.WriteMessage(websocket.TextMessage, b)
}
