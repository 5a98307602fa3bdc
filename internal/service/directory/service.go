// Package directory 维护当前身份可见的会话目录
// 目录以权威拉取整体重建（不做增量合并），按最近更新时间倒序展示
package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"kama_gram_client/internal/backend"
	"kama_gram_client/internal/identity"
	"kama_gram_client/pkg/errorx"
	"kama_gram_client/pkg/util/taskpool"
	"kama_gram_client/pkg/util/timefmt"
)

// ConversationSummary 目录中的一条会话摘要
// OtherParticipant* 为对端参与者（两个存储参与者中不是当前身份的那个）
type ConversationSummary struct {
	ConversationId        string    `json:"conversationId"`
	OtherParticipantId    string    `json:"otherParticipantId"`
	OtherParticipantName  string    `json:"otherParticipantName"`
	OtherParticipantImage string    `json:"otherParticipantImage"`
	LastMessageBody       string    `json:"lastMessageBody"`
	LastUpdatedAt         time.Time `json:"lastUpdatedAt"`
	LastUpdatedDisplay    string    `json:"lastUpdatedDisplay"`
}

// Service 会话目录业务逻辑实现
// 目录内容只由 Load 整体替换，读取方拿到的是快照副本
type Service struct {
	actor   identity.Actor
	backend backend.Service
	pool    *taskpool.Pool

	mu        sync.RWMutex
	summaries []ConversationSummary
	onChanged func(conversationIds []string)

	now func() time.Time // 可注入时钟，便于测试相对时间格式化
}

// NewService 构造函数，注入身份、后端与任务池依赖
func NewService(actor identity.Actor, backendSvc backend.Service, pool *taskpool.Pool) *Service {
	return &Service{
		actor:   actor,
		backend: backendSvc,
		pool:    pool,
		now:     time.Now,
	}
}

// SetOnChanged 注册目录重建完成后的回调，参数为重建后的会话 ID 集合
// 实时适配器以此感知订阅集合需要重建；必须在 Load 之前注册
func (s *Service) SetOnChanged(fn func(conversationIds []string)) {
	s.onChanged = fn
}

// Load 拉取当前身份参与的全部会话并整体重建目录
// 游客没有可查询的持久身份，目录保持为空
// 拉取失败时保留上一次的有效内容（宁可过期，不可清空）
func (s *Service) Load(ctx context.Context) error {
	if s.actor.IsGuest() {
		return nil
	}

	records, err := s.backend.ListConversations(ctx, s.actor.Id())
	if err != nil {
		zap.L().Error("拉取会话目录失败，保留现有内容",
			zap.String("actor_id", s.actor.Id()),
			zap.Error(err),
		)
		return errorx.Wrap(err, errorx.CodeBackendUnavailable, "拉取会话目录失败")
	}

	s.onConversationsFetched(records)
	zap.L().Info("会话目录已刷新",
		zap.String("actor_id", s.actor.Id()),
		zap.Int("count", len(records)),
	)
	if s.onChanged != nil {
		s.onChanged(s.ConversationIds())
	}
	return nil
}

// onConversationsFetched 将原始会话记录映射为目录摘要并整体替换目录内容
func (s *Service) onConversationsFetched(records []backend.ConversationRecord) {
	now := s.now()
	summaries := make([]ConversationSummary, 0, len(records))
	for _, rec := range records {
		other := rec.Participant1
		if other.Id == s.actor.Id() {
			other = rec.Participant2
		}
		summaries = append(summaries, ConversationSummary{
			ConversationId:        rec.Id,
			OtherParticipantId:    other.Id,
			OtherParticipantName:  other.Name,
			OtherParticipantImage: other.ImageUrl,
			LastMessageBody:       rec.LastMsgBody,
			LastUpdatedAt:         rec.LastUpdated,
			LastUpdatedDisplay:    timefmt.FormatRelative(rec.LastUpdated, now),
		})
	}

	// 展示顺序：最近更新在前
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastUpdatedAt.After(summaries[j].LastUpdatedAt)
	})

	s.mu.Lock()
	s.summaries = summaries
	s.mu.Unlock()
}

// OnConversationCreated 会话集合出现创建事件时的刷新触发器
// 创建事件不带服务端过滤，任何新会话都可能涉及当前身份，保守地整体重拉一次
func (s *Service) OnConversationCreated() {
	s.pool.Submit(func() {
		if err := s.Load(context.Background()); err != nil {
			zap.L().Warn("会话创建事件触发的目录刷新失败", zap.Error(err))
		}
	})
}

// Summaries 返回目录内容的快照副本
func (s *Service) Summaries() []ConversationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConversationSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// ConversationIds 返回目录中全部会话 ID
// 实时适配器以此为输入重建订阅集合
func (s *Service) ConversationIds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.summaries))
	for _, sum := range s.summaries {
		ids = append(ids, sum.ConversationId)
	}
	return ids
}
