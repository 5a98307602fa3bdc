package respond

// ThreadMessageRespond 线程中的一条消息
type ThreadMessageRespond struct {
	Id         string `json:"id"`
	SenderName string `json:"senderName"`
	Body       string `json:"body"`
}

// ThreadRespond 当前打开会话的消息线程
type ThreadRespond struct {
	ConversationId string                 `json:"conversationId"` // 空串表示尚无会话记录
	Loading        bool                   `json:"loading"`        // 历史消息是否仍在拉取
	Messages       []ThreadMessageRespond `json:"messages"`       // 最旧在前
}
