// Package dispatch 实现对外的会话编排契约
// 选择会话 / 指定对端 / 发送消息，由 UI 层驱动，编排目录、线程与后端写入
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kama_gram_client/internal/backend"
	"kama_gram_client/internal/identity"
	"kama_gram_client/internal/service/directory"
	"kama_gram_client/internal/service/thread"
	"kama_gram_client/pkg/errorx"
	"kama_gram_client/pkg/util/random"
)

// Receiver 当前选定的消息对端
// 对端可以尚无对应的会话记录（首条消息发出时才惰性创建）
type Receiver struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	ImageUrl string `json:"imageUrl"`
}

// Service 会话编排业务逻辑实现
// activeConversationId 为空串是"尚无会话记录"的哨兵：
// 下一次发送会先创建会话记录（游客除外）
type Service struct {
	actor      identity.Actor
	backend    backend.Service
	directory  *directory.Service
	thread     *thread.Cache
	guestPeers []backend.UserRecord // 后端演示用户不可用时的本地兜底

	mu                   sync.Mutex
	receiver             Receiver
	activeConversationId string
	sending              bool
}

// NewService 构造函数，注入身份、后端、目录与线程依赖
func NewService(
	actor identity.Actor,
	backendSvc backend.Service,
	dir *directory.Service,
	cache *thread.Cache,
	guestPeers []backend.UserRecord,
) *Service {
	return &Service{
		actor:      actor,
		backend:    backendSvc,
		directory:  dir,
		thread:     cache,
		guestPeers: guestPeers,
	}
}

// OpenConversation 打开目录中的既有会话
// 绑定对端信息并让线程缓存拉取该会话的历史消息
func (s *Service) OpenConversation(ctx context.Context, conversationId string) error {
	var summary *directory.ConversationSummary
	for _, sum := range s.directory.Summaries() {
		if sum.ConversationId == conversationId {
			summary = &sum
			break
		}
	}
	if summary == nil {
		return errorx.Newf(errorx.CodeNotFound, "会话 %s 不在目录中", conversationId)
	}

	s.mu.Lock()
	s.activeConversationId = conversationId
	s.receiver = Receiver{
		Id:       summary.OtherParticipantId,
		Name:     summary.OtherParticipantName,
		ImageUrl: summary.OtherParticipantImage,
	}
	s.mu.Unlock()

	s.logReceiverDetails()
	s.thread.SetActiveConversation(ctx, conversationId)
	return nil
}

// SetReceiver 指定尚无会话记录的对端（如搜索结果中选中的用户）
// 会话 ID 置为空串哨兵并清空线程，首条消息发出时才创建会话记录
func (s *Service) SetReceiver(ctx context.Context, receiver Receiver) {
	s.mu.Lock()
	s.receiver = receiver
	s.activeConversationId = ""
	s.mu.Unlock()

	s.logReceiverDetails()
	s.thread.SetActiveConversation(ctx, "")
}

// logReceiverDetails 对端变更的诊断日志
func (s *Service) logReceiverDetails() {
	s.mu.Lock()
	defer s.mu.Unlock()
	zap.L().Debug("对端已变更",
		zap.String("receiver_id", s.receiver.Id),
		zap.String("receiver_name", s.receiver.Name),
		zap.String("conversation_id", s.activeConversationId),
	)
}

// Send 发送一条消息
// 流程：校验 -> （需要时）惰性创建会话 -> 创建消息 -> 回写会话冗余字段 -> 本地追加
// 游客路径不做任何后端写入，消息仅追加到本地线程
// 中途失败不回滚已完成的步骤（如会话已创建而消息创建失败），错误以可恢复形式返回
func (s *Service) Send(ctx context.Context, body string) (*thread.Message, error) {
	if body == "" {
		return nil, errorx.ErrEmptyMessageBody
	}

	s.mu.Lock()
	if s.receiver.Id == "" && !s.actor.IsGuest() {
		s.mu.Unlock()
		return nil, errorx.New(errorx.CodeInvalidParam, "尚未选择消息对端")
	}
	receiver := s.receiver
	conversationId := s.activeConversationId
	s.sending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	newConversation := conversationId == ""

	// 游客没有持久身份：不创建会话与消息记录，直接本地追加
	if s.actor.IsGuest() {
		msg := thread.Message{
			Id:         "local-" + random.GetNowAndLenRandomString(11),
			SenderName: s.actor.SenderLabel(),
			Body:       body,
		}
		s.thread.AppendLocal(msg)
		zap.L().Info("游客消息已本地追加", zap.String("message_id", msg.Id))
		return &msg, nil
	}

	now := time.Now()

	// 首条消息：先惰性创建会话记录，并把新会话 ID 绑定为当前会话
	if newConversation {
		created, err := s.backend.CreateConversation(ctx, backend.NewConversation{
			Id:             uuid.New().String(),
			Participant1Id: s.actor.Id(),
			Participant2Id: receiver.Id,
			LastUpdated:    now,
		})
		if err != nil {
			zap.L().Error("创建会话记录失败",
				zap.String("receiver_id", receiver.Id),
				zap.Error(err),
			)
			return nil, errorx.Wrap(err, errorx.CodeBackendUnavailable, "创建会话失败")
		}
		conversationId = created.Id

		s.mu.Lock()
		s.activeConversationId = conversationId
		s.mu.Unlock()
		// 新会话没有历史消息可拉取，只绑定 ID，不触发整体替换
		s.thread.BindConversation(conversationId)

		zap.L().Info("会话记录已创建",
			zap.String("conversation_id", conversationId),
			zap.String("receiver_id", receiver.Id),
		)
	}

	// 创建消息记录
	created, err := s.backend.CreateMessage(ctx, backend.NewMessage{
		Id:             uuid.New().String(),
		Body:           body,
		CreatedAt:      now,
		SenderId:       s.actor.Id(),
		ConversationId: conversationId,
	})
	if err != nil {
		zap.L().Error("创建消息记录失败",
			zap.String("conversation_id", conversationId),
			zap.Error(err),
		)
		return nil, errorx.Wrap(err, errorx.CodeBackendUnavailable, "发送消息失败")
	}

	// 回写会话的冗余最新消息字段，供目录消费方展示
	// 新建会话本次创建已携带新鲜的 lastUpdated，无需再回写
	if !newConversation {
		if _, err := s.backend.UpdateConversation(ctx, conversationId, backend.ConversationUpdate{
			LastMsgIdString:     created.Id,
			LastMsgSenderName:   s.actor.SenderLabel(),
			LastMsgReceiverName: receiver.Name,
			LastMsgBody:         body,
			LastUpdated:         now,
		}); err != nil {
			// 消息已创建成功，回写失败不回滚，只向上暴露
			zap.L().Error("回写会话冗余字段失败",
				zap.String("conversation_id", conversationId),
				zap.Error(err),
			)
			return nil, errorx.Wrap(err, errorx.CodeBackendUnavailable, "更新会话失败")
		}
	}

	// 本地立即追加，发送方看到自己的消息不等待实时回路
	msg := thread.Message{
		Id:         created.Id,
		SenderName: s.actor.SenderLabel(),
		Body:       body,
	}
	s.thread.AppendLocal(msg)

	zap.L().Info("消息发送成功",
		zap.String("conversation_id", conversationId),
		zap.String("message_id", created.Id),
	)
	return &msg, nil
}

// SearchUsers 按用户名子串搜索候选对端
func (s *Service) SearchUsers(ctx context.Context, query string) ([]backend.UserRecord, error) {
	if query == "" {
		return nil, nil
	}
	users, err := s.backend.FindUsersByUsername(ctx, query)
	if err != nil {
		zap.L().Error("搜索用户失败", zap.String("query", query), zap.Error(err))
		return nil, errorx.Wrap(err, errorx.CodeBackendUnavailable, "搜索用户失败")
	}
	return users, nil
}

// GuestPeers 返回游客模式可选的演示对端
// 后端演示用户不可用时退回配置预置的本地列表，保证游客始终有对端可选
func (s *Service) GuestPeers(ctx context.Context) []backend.UserRecord {
	users, err := s.backend.ListDummyUsers(ctx)
	if err != nil || len(users) == 0 {
		if err != nil {
			zap.L().Warn("拉取演示用户失败，使用本地预置对端", zap.Error(err))
		}
		return s.guestPeers
	}
	return users
}

// Receiver 返回当前选定的对端
func (s *Service) Receiver() Receiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiver
}

// ActiveConversationId 返回当前绑定的会话 ID，空串表示尚无会话记录
func (s *Service) ActiveConversationId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConversationId
}

// IsSending 返回是否有发送操作在途
func (s *Service) IsSending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}
