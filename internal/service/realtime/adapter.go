// Package realtime 把后端的订阅推送解复用为组件事件
// adapter.go
// 核心职责：
// 1. 订阅会话集合整体，捕获系统范围内的会话创建事件，触发目录刷新
// 2. 按目录中的会话 ID 逐个订阅会话文档，捕获更新事件，触发线程追加
// 3. 目录 ID 集合变化时按差量重建订阅集合
package realtime

import (
	"sync"

	"go.uber.org/zap"

	"kama_gram_client/internal/backend"
	"kama_gram_client/internal/service/directory"
	"kama_gram_client/internal/service/thread"
	"kama_gram_client/pkg/constants"
)

// Adapter 实时变更适配器
// 订阅回调只负责把类型化事件投入通道，业务分发集中在 run 循环里，
// 传输细节与业务逻辑解耦，测试时可直接注入合成事件
type Adapter struct {
	source    backend.Subscriber
	directory *directory.Service
	thread    *thread.Cache

	events chan event
	done   chan struct{}

	mu              sync.Mutex
	collectionUnsub backend.Unsubscribe
	docUnsubs       map[string]backend.Unsubscribe
}

// NewAdapter 构造函数，注入订阅源、目录与线程缓存
func NewAdapter(source backend.Subscriber, dir *directory.Service, cache *thread.Cache) *Adapter {
	a := &Adapter{
		source:    source,
		directory: dir,
		thread:    cache,
		events:    make(chan event, constants.REALTIME_EVENT_BUF),
		done:      make(chan struct{}),
		docUnsubs: make(map[string]backend.Unsubscribe),
	}
	// 目录每次重建后按新的 ID 集合重建订阅
	dir.SetOnChanged(a.Rebuild)
	return a
}

// Start 建立集合级订阅并启动事件分发循环
// 集合级订阅失败不阻塞启动：会话创建感知降级缺失，文档级订阅仍可工作
func (a *Adapter) Start() {
	unsub, err := a.source.Subscribe(a.source.ConversationsChannel(), func(ev backend.Event) {
		if ev.HasCreate() {
			a.emit(conversationCreated{})
		}
	})
	if err != nil {
		zap.L().Error("订阅会话集合失败，无法感知新会话", zap.Error(err))
	} else {
		a.mu.Lock()
		a.collectionUnsub = unsub
		a.mu.Unlock()
	}

	go a.run()
}

// run 事件分发主循环
func (a *Adapter) run() {
	for {
		select {
		case ev := <-a.events:
			a.dispatch(ev)
		case <-a.done:
			return
		}
	}
}

// dispatch 把类型化事件转发给对应组件
// 每个会话创建事件只触发一次目录重拉；订阅重建经由目录的变更回调发生
func (a *Adapter) dispatch(ev event) {
	switch e := ev.(type) {
	case conversationCreated:
		zap.L().Debug("收到会话创建事件，触发目录刷新")
		a.directory.OnConversationCreated()
	case conversationUpdated:
		a.thread.AppendFromRealtime(e.Record)
	}
}

// emit 非阻塞投递事件
// 通道满时丢弃并告警：推送本身不保证可靠投递，目录可由后续事件补偿
func (a *Adapter) emit(ev event) {
	select {
	case a.events <- ev:
	default:
		zap.L().Warn("实时事件通道已满，事件被丢弃")
	}
}

// Rebuild 按目录的会话 ID 集合差量重建文档级订阅
// 不在集合中的旧订阅被撤销，新出现的 ID 建立订阅
// 未落库的新会话（空 ID 哨兵）不会出现在目录里，因此永远不会被订阅
func (a *Adapter) Rebuild(conversationIds []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	wanted := make(map[string]struct{}, len(conversationIds))
	for _, id := range conversationIds {
		if id == "" {
			continue
		}
		wanted[id] = struct{}{}
	}

	// 撤销不再需要的订阅
	for id, unsub := range a.docUnsubs {
		if _, ok := wanted[id]; !ok {
			unsub()
			delete(a.docUnsubs, id)
		}
	}

	// 建立新增的订阅
	for id := range wanted {
		if _, ok := a.docUnsubs[id]; ok {
			continue
		}
		unsub, err := a.source.Subscribe(a.source.ConversationDocChannel(id), func(ev backend.Event) {
			if ev.HasUpdate() || ev.HasCreate() {
				a.emit(conversationUpdated{Record: ev.Payload})
			}
		})
		if err != nil {
			// 失败的订阅不重试，下一次目录变化时重建
			zap.L().Error("订阅会话文档失败", zap.String("conversation_id", id), zap.Error(err))
			continue
		}
		a.docUnsubs[id] = unsub
	}

	zap.L().Debug("订阅集合已重建", zap.Int("subscriptions", len(a.docUnsubs)))
}

// Stop 停止分发循环并撤销全部订阅
func (a *Adapter) Stop() {
	close(a.done)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.collectionUnsub != nil {
		a.collectionUnsub()
		a.collectionUnsub = nil
	}
	for id, unsub := range a.docUnsubs {
		unsub()
		delete(a.docUnsubs, id)
	}
}
