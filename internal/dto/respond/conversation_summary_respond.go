package respond

// ConversationSummaryRespond 会话目录条目
type ConversationSummaryRespond struct {
	ConversationId        string `json:"conversationId"`
	OtherParticipantId    string `json:"otherParticipantId"`
	OtherParticipantName  string `json:"otherParticipantName"`
	OtherParticipantImage string `json:"otherParticipantImage"`
	LastMessageBody       string `json:"lastMessageBody"`
	LastUpdatedDisplay    string `json:"lastUpdatedDisplay"` // 相对时间描述，如 "5 minutes ago"
}
