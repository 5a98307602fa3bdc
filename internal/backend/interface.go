package backend

import "context"

// Service 定义核心消费的后端平台文档操作契约
// 由 HttpClient 提供生产实现，测试中以内存假实现替换
type Service interface {
	// ListConversations 列出 actor 作为任一参与者的全部会话记录
	ListConversations(ctx context.Context, actorId string) ([]ConversationRecord, error)
	// CreateConversation 创建会话记录
	CreateConversation(ctx context.Context, conv NewConversation) (*ConversationRecord, error)
	// UpdateConversation 更新会话记录的冗余最新消息字段
	UpdateConversation(ctx context.Context, conversationId string, update ConversationUpdate) (*ConversationRecord, error)
	// ListMessages 按创建时间倒序列出会话的消息记录（最新在前）
	ListMessages(ctx context.Context, conversationId string, limit int) ([]MessageRecord, error)
	// CreateMessage 创建消息记录
	CreateMessage(ctx context.Context, msg NewMessage) (*MessageRecord, error)
	// FindUsersByUsername 按用户名子串搜索用户
	FindUsersByUsername(ctx context.Context, query string) ([]UserRecord, error)
	// ListDummyUsers 列出游客模式可用的演示用户
	ListDummyUsers(ctx context.Context) ([]UserRecord, error)
}

// Unsubscribe 取消订阅，幂等
type Unsubscribe func()

// Subscriber 定义实时变更订阅契约
// channel 为平台频道名（整个会话集合或单个会话文档）
// onEvent 在独立的读协程中被回调
type Subscriber interface {
	Subscribe(channel string, onEvent func(Event)) (Unsubscribe, error)
	// ConversationsChannel 会话集合整体的频道名
	ConversationsChannel() string
	// ConversationDocChannel 单个会话文档的频道名
	ConversationDocChannel(conversationId string) string
}
