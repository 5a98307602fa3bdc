// Package backend 封装托管后端平台（文档库 + 实时推送）的访问
// 本文件定义核心消费的三类记录形态及其创建/更新载荷
package backend

import "time"

// UserRef 记录中内嵌的用户引用（平台侧已展开的关联文档）
type UserRef struct {
	Id       string `json:"$id"`
	Name     string `json:"name"`
	ImageUrl string `json:"imageUrl"`
}

// ConversationRecord 会话记录
// participant1/participant2 为两个参与者的用户引用
// lastMsg* 为冗余缓存的最新消息字段，供会话列表展示使用
type ConversationRecord struct {
	Id                  string    `json:"$id"`
	Participant1        UserRef   `json:"participant1"`
	Participant2        UserRef   `json:"participant2"`
	LastMsgIdString     string    `json:"lastMsgIdString"`
	LastMsgSenderName   string    `json:"lastMsgSenderName"`
	LastMsgReceiverName string    `json:"lastMsgReceiverName"`
	LastMsgBody         string    `json:"lastMsgBody"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// MessageRecord 消息记录
// senderId 为平台侧已展开的发送者用户引用
type MessageRecord struct {
	Id             string    `json:"$id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
	Sender         UserRef   `json:"senderId"`
	ConversationId string    `json:"conversationId"`
}

// UserRecord 用户记录，用于对端搜索与游客演示用户
type UserRecord struct {
	Id       string `json:"$id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	ImageUrl string `json:"imageUrl"`
}

// NewConversation 创建会话的载荷
// 参与者以 ID 引用，由平台负责展开
type NewConversation struct {
	Id             string    `json:"-"`
	Participant1Id string    `json:"participant1"`
	Participant2Id string    `json:"participant2"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// ConversationUpdate 会话冗余字段的更新载荷
type ConversationUpdate struct {
	LastMsgIdString     string    `json:"lastMsgIdString"`
	LastMsgSenderName   string    `json:"lastMsgSenderName"`
	LastMsgReceiverName string    `json:"lastMsgReceiverName"`
	LastMsgBody         string    `json:"lastMsgBody"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// NewMessage 创建消息的载荷
type NewMessage struct {
	Id             string    `json:"-"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
	SenderId       string    `json:"senderId"`
	ConversationId string    `json:"conversationId"`
}

// Event 实时推送事件
// Events 为平台事件标记列表（如 "databases.*.collections.*.documents.*.update"）
// Payload 为变更后的会话记录（会话集合与会话文档两类订阅均以会话记录为载荷）
type Event struct {
	Events  []string           `json:"events"`
	Channel string             `json:"channel"`
	Payload ConversationRecord `json:"payload"`
}

// HasCreate 判断事件是否包含文档创建标记
func (e Event) HasCreate() bool {
	return e.hasSuffix(".create")
}

// HasUpdate 判断事件是否包含文档更新标记
func (e Event) HasUpdate() bool {
	return e.hasSuffix(".update")
}

func (e Event) hasSuffix(suffix string) bool {
	for _, ev := range e.Events {
		if len(ev) >= len(suffix) && ev[len(ev)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}
