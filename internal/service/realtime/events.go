// Package realtime 把后端的订阅推送解复用为组件事件
// events.go
// 核心职责：定义适配器内部流转的类型化事件
package realtime

import "kama_gram_client/internal/backend"

// event 适配器事件的标记接口
// 两类实现：conversationCreated（目录刷新触发）、conversationUpdated（线程追加触发）
type event interface {
	isEvent()
}

// conversationCreated 会话集合出现了新建文档
// 不携带载荷：目录的刷新是整体重拉，不做增量
type conversationCreated struct{}

func (conversationCreated) isEvent() {}

// conversationUpdated 某个已订阅的会话文档发生了更新
// Record 为更新后的会话记录（冗余最新消息字段即新消息）
type conversationUpdated struct {
	Record backend.ConversationRecord
}

func (conversationUpdated) isEvent() {}
