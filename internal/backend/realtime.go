package backend

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"kama_gram_client/internal/config"
	"kama_gram_client/pkg/errorx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RealtimeClient 平台实时推送的 WebSocket 客户端，实现 Subscriber 接口
// 每个订阅持有一条独立连接：订阅集合规模等于目录中的会话数，量级很小，
// 连接复用带来的多路分发复杂度在这里不划算
type RealtimeClient struct {
	endpoint                string
	project                 string
	database                string
	conversationsCollection string
	dialer                  *websocket.Dialer
}

// NewRealtimeClient 根据配置创建实时推送客户端
func NewRealtimeClient(cfg *config.BackendConfig) *RealtimeClient {
	return &RealtimeClient{
		endpoint:                cfg.RealtimeEndpoint,
		project:                 cfg.Project,
		database:                cfg.Database,
		conversationsCollection: cfg.ConversationsCollection,
		dialer:                  websocket.DefaultDialer,
	}
}

// ConversationsChannel 会话集合整体的频道名
func (r *RealtimeClient) ConversationsChannel() string {
	return fmt.Sprintf("databases.%s.collections.%s.documents", r.database, r.conversationsCollection)
}

// ConversationDocChannel 单个会话文档的频道名
func (r *RealtimeClient) ConversationDocChannel(conversationId string) string {
	return r.ConversationsChannel() + "." + conversationId
}

// realtimeFrame 平台推送的消息帧
type realtimeFrame struct {
	Type string `json:"type"`
	Data struct {
		Events   []string        `json:"events"`
		Channels []string        `json:"channels"`
		Payload  json.RawMessage `json:"payload"`
	} `json:"data"`
}

// Subscribe 订阅指定频道，onEvent 在读协程中回调
// 读循环出错即终止投递，不做重连；订阅集合重建时会换新连接
func (r *RealtimeClient) Subscribe(channel string, onEvent func(Event)) (Unsubscribe, error) {
	values := url.Values{}
	values.Set("project", r.project)
	values.Add("channels[]", channel)

	conn, _, err := r.dialer.Dial(r.endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeBackendUnavailable, "建立实时推送连接失败")
	}

	go r.readLoop(conn, channel, onEvent)

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := conn.Close(); err != nil {
				zap.L().Debug("关闭实时推送连接失败", zap.Error(err))
			}
		})
	}, nil
}

// readLoop 持续读取帧并投递匹配的事件
func (r *RealtimeClient) readLoop(conn *websocket.Conn, channel string, onEvent func(Event)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// 连接被取消订阅方关闭或传输中断，停止投递
			zap.L().Debug("实时推送读循环退出", zap.String("channel", channel), zap.Error(err))
			return
		}

		var frame realtimeFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			zap.L().Warn("解析实时推送帧失败", zap.Error(err))
			continue
		}
		if frame.Type != "event" || !containsChannel(frame.Data.Channels, channel) {
			continue
		}

		event := Event{
			Events:  frame.Data.Events,
			Channel: channel,
		}
		if len(frame.Data.Payload) > 0 {
			if err := json.Unmarshal(frame.Data.Payload, &event.Payload); err != nil {
				zap.L().Warn("解析实时推送载荷失败", zap.Error(err))
				continue
			}
		}
		onEvent(event)
	}
}

func containsChannel(channels []string, channel string) bool {
	for _, c := range channels {
		if c == channel {
			return true
		}
	}
	return false
}
