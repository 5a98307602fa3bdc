package request

// SendMessageRequest 发送消息
// body 为空是静默无操作而非参数错误，因此不加 required 校验
type SendMessageRequest struct {
	Body string `json:"body"` // 消息内容
}
