// Package handler 提供 HTTP 请求处理器
// 本文件处理会话编排相关的 API 请求，供本地 UI 层驱动
package handler

import (
	"kama_gram_client/internal/dto/request"
	"kama_gram_client/internal/dto/respond"
	"kama_gram_client/internal/service/directory"
	"kama_gram_client/internal/service/dispatch"
	"kama_gram_client/internal/service/thread"
	"kama_gram_client/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// ConvoHandler 会话编排请求处理器
// 通过构造函数注入依赖，遵循依赖倒置原则
type ConvoHandler struct {
	dispatchSvc  *dispatch.Service
	directorySvc *directory.Service
	threadCache  *thread.Cache
}

// NewConvoHandler 创建会话编排处理器实例
func NewConvoHandler(dispatchSvc *dispatch.Service, directorySvc *directory.Service, threadCache *thread.Cache) *ConvoHandler {
	return &ConvoHandler{
		dispatchSvc:  dispatchSvc,
		directorySvc: directorySvc,
		threadCache:  threadCache,
	}
}

// GetConversations 获取会话目录
// GET /convo/conversations
// 响应: []respond.ConversationSummaryRespond（最近更新在前）
func (h *ConvoHandler) GetConversations(c *gin.Context) {
	summaries := h.directorySvc.Summaries()
	rsp := make([]respond.ConversationSummaryRespond, 0, len(summaries))
	for _, sum := range summaries {
		rsp = append(rsp, respond.ConversationSummaryRespond{
			ConversationId:        sum.ConversationId,
			OtherParticipantId:    sum.OtherParticipantId,
			OtherParticipantName:  sum.OtherParticipantName,
			OtherParticipantImage: sum.OtherParticipantImage,
			LastMessageBody:       sum.LastMessageBody,
			LastUpdatedDisplay:    sum.LastUpdatedDisplay,
		})
	}
	HandleSuccess(c, rsp)
}

// OpenConversation 打开目录中的既有会话
// POST /convo/open
// 请求体: request.OpenConversationRequest
func (h *ConvoHandler) OpenConversation(c *gin.Context) {
	var req request.OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.dispatchSvc.OpenConversation(c.Request.Context(), req.ConversationId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// SetReceiver 指定尚无会话记录的消息对端
// POST /convo/receiver
// 请求体: request.SetReceiverRequest
func (h *ConvoHandler) SetReceiver(c *gin.Context) {
	var req request.SetReceiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	h.dispatchSvc.SetReceiver(c.Request.Context(), dispatch.Receiver{
		Id:       req.ReceiverId,
		Name:     req.ReceiverName,
		ImageUrl: req.ReceiverImage,
	})
	HandleSuccess(c, nil)
}

// SendMessage 发送消息
// POST /convo/messages
// 请求体: request.SendMessageRequest
// 空消息体是静默无操作：返回成功但不携带数据
func (h *ConvoHandler) SendMessage(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	msg, err := h.dispatchSvc.Send(c.Request.Context(), req.Body)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeValidationRejected {
			HandleSuccess(c, nil)
			return
		}
		HandleError(c, err)
		return
	}

	HandleSuccess(c, respond.SendMessageRespond{
		MessageId:      msg.Id,
		SenderName:     msg.SenderName,
		Body:           msg.Body,
		ConversationId: h.dispatchSvc.ActiveConversationId(),
	})
}

// GetThread 获取当前打开会话的消息线程
// GET /convo/thread
// 响应: respond.ThreadRespond（最旧在前）
func (h *ConvoHandler) GetThread(c *gin.Context) {
	messages := h.threadCache.Messages()
	rsp := respond.ThreadRespond{
		ConversationId: h.threadCache.ActiveConversationId(),
		Loading:        h.threadCache.IsLoading(),
		Messages:       make([]respond.ThreadMessageRespond, 0, len(messages)),
	}
	for _, m := range messages {
		rsp.Messages = append(rsp.Messages, respond.ThreadMessageRespond{
			Id:         m.Id,
			SenderName: m.SenderName,
			Body:       m.Body,
		})
	}
	HandleSuccess(c, rsp)
}

// SearchUsers 按用户名子串搜索候选对端
// GET /convo/users/search?username=xxx
// 响应: []respond.UserRespond
func (h *ConvoHandler) SearchUsers(c *gin.Context) {
	query := c.Query("username")
	users, err := h.dispatchSvc.SearchUsers(c.Request.Context(), query)
	if err != nil {
		HandleError(c, err)
		return
	}
	rsp := make([]respond.UserRespond, 0, len(users))
	for _, u := range users {
		rsp = append(rsp, respond.UserRespond{
			Id:       u.Id,
			Name:     u.Name,
			Username: u.Username,
			ImageUrl: u.ImageUrl,
		})
	}
	HandleSuccess(c, rsp)
}

// GetGuestPeers 获取游客模式可选的演示对端
// GET /convo/users/guest
// 响应: []respond.UserRespond
func (h *ConvoHandler) GetGuestPeers(c *gin.Context) {
	users := h.dispatchSvc.GuestPeers(c.Request.Context())
	rsp := make([]respond.UserRespond, 0, len(users))
	for _, u := range users {
		rsp = append(rsp, respond.UserRespond{
			Id:       u.Id,
			Name:     u.Name,
			Username: u.Username,
			ImageUrl: u.ImageUrl,
		})
	}
	HandleSuccess(c, rsp)
}
