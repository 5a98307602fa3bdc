package request

// SetReceiverRequest 指定尚无会话记录的消息对端
type SetReceiverRequest struct {
	ReceiverId    string `json:"receiverId" binding:"required"` // 对端用户ID
	ReceiverName  string `json:"receiverName"`                  // 对端显示名
	ReceiverImage string `json:"receiverImage"`                 // 对端头像
}
