package request

// OpenConversationRequest 打开既有会话
type OpenConversationRequest struct {
	ConversationId string `json:"conversationId" binding:"required"` // 目录中的会话ID
}
