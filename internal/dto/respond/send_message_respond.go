package respond

// SendMessageRespond 发送结果
type SendMessageRespond struct {
	MessageId      string `json:"messageId"`
	SenderName     string `json:"senderName"`
	Body           string `json:"body"`
	ConversationId string `json:"conversationId"` // 惰性创建会话后为新会话ID
}
