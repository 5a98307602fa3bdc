// Package thread 维护当前打开会话的本地消息线程
// 线程在切换会话时整体替换，期间只做尾部追加，不回溯重排
package thread

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"kama_gram_client/internal/backend"
	"kama_gram_client/internal/identity"
	"kama_gram_client/pkg/constants"
)

// Message 线程中展示的一条消息
// SenderName 已完成解析：游客查看时所有发送者统一为 Anonymous
type Message struct {
	Id         string `json:"id"`
	SenderName string `json:"senderName"`
	Body       string `json:"body"`
}

// Cache 消息线程缓存
// 写入方只有两个：发送路径的本地追加与实时适配器的推送追加
// 所有追加按消息 ID 去重，本地回显与实时回声不会产生重复条目
type Cache struct {
	actor      identity.Actor
	backend    backend.Service
	fetchLimit int

	mu         sync.Mutex
	activeId   string
	generation uint64 // 每次切换会话递增，过期拉取的结果按代次丢弃
	messages   []Message
	seen       map[string]struct{}
	loading    bool
}

// NewCache 构造函数，注入身份与后端依赖
// fetchLimit 为打开会话时拉取的消息条数上限
func NewCache(actor identity.Actor, backendSvc backend.Service, fetchLimit int) *Cache {
	if fetchLimit <= 0 {
		fetchLimit = constants.MESSAGE_FETCH_MAX
	}
	return &Cache{
		actor:      actor,
		backend:    backendSvc,
		fetchLimit: fetchLimit,
		seen:       make(map[string]struct{}),
	}
}

// SetActiveConversation 切换当前打开的会话
// conversationId 为空表示关闭会话：清空线程
// 否则清空线程并异步拉取该会话的历史消息；切换时仍在途的旧拉取结果会被丢弃
func (c *Cache) SetActiveConversation(ctx context.Context, conversationId string) {
	c.mu.Lock()
	c.activeId = conversationId
	c.generation++
	gen := c.generation
	c.messages = nil
	c.seen = make(map[string]struct{})
	if conversationId == "" {
		c.loading = false
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.mu.Unlock()

	go c.fetch(ctx, conversationId, gen)
}

// BindConversation 绑定会话 ID 但不清空线程、不触发历史拉取
// 用于首条消息刚创建出的新会话：没有历史可拉，本地已追加的消息需要保留
func (c *Cache) BindConversation(conversationId string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeId == conversationId {
		return
	}
	c.activeId = conversationId
	c.generation++ // 废弃仍在途的旧拉取
	c.loading = false
}

// fetch 拉取会话历史消息，结果按代次校验后整体替换线程
func (c *Cache) fetch(ctx context.Context, conversationId string, gen uint64) {
	records, err := c.backend.ListMessages(ctx, conversationId, c.fetchLimit)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// 结果到达时会话已切换，丢弃
		zap.L().Debug("丢弃过期的消息拉取结果", zap.String("conversation_id", conversationId))
		return
	}
	c.loading = false
	if err != nil {
		// 拉取失败保留当前（空）线程，不向展示层抛错
		zap.L().Error("拉取会话消息失败",
			zap.String("conversation_id", conversationId),
			zap.Error(err),
		)
		return
	}
	c.onMessagesFetched(records)
}

// onMessagesFetched 处理拉取结果
// 后端按创建时间倒序返回（最新在前），这里反转为最旧在前的展示顺序
// 调用方必须持有 c.mu
func (c *Cache) onMessagesFetched(records []backend.MessageRecord) {
	messages := make([]Message, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		messages = append(messages, Message{
			Id:         rec.Id,
			SenderName: c.resolveSenderName(rec.Sender.Name),
			Body:       rec.Body,
		})
	}
	c.messages = messages
	c.seen = make(map[string]struct{}, len(messages))
	for _, m := range messages {
		c.seen[m.Id] = struct{}{}
	}
}

// resolveSenderName 解析消息的发送者显示名
// 游客查看时所有发送者匿名化
func (c *Cache) resolveSenderName(storedName string) string {
	if c.actor.IsGuest() {
		return constants.ANONYMOUS_NAME
	}
	return storedName
}

// AppendLocal 发送成功后立即追加本地消息
// 发送方无需等待实时回路即可看到自己的消息
func (c *Cache) AppendLocal(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.append(msg)
}

// AppendFromRealtime 处理实时推送的会话更新事件
// 事件载荷为更新后的会话记录，其冗余最新消息字段即新消息内容
// 与当前打开会话不匹配的事件直接忽略
func (c *Cache) AppendFromRealtime(rec backend.ConversationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeId == "" || rec.Id != c.activeId {
		return
	}
	c.append(Message{
		Id:         rec.LastMsgIdString,
		SenderName: c.resolveSenderName(rec.LastMsgSenderName),
		Body:       rec.LastMsgBody,
	})
}

// append 按消息 ID 去重的尾部追加，调用方必须持有 c.mu
// 去重使本地追加与同一消息的实时回声互为幂等
func (c *Cache) append(msg Message) {
	if msg.Id == "" {
		return
	}
	if _, ok := c.seen[msg.Id]; ok {
		return
	}
	c.seen[msg.Id] = struct{}{}
	c.messages = append(c.messages, msg)
}

// Messages 返回线程内容的快照副本，最旧在前
func (c *Cache) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ActiveConversationId 返回当前打开的会话 ID，未打开为空串
func (c *Cache) ActiveConversationId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeId
}

// IsLoading 返回当前会话的历史消息是否仍在拉取中
func (c *Cache) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}
