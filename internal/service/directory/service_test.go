package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kama_gram_client/internal/backend"
	"kama_gram_client/internal/identity"
	"kama_gram_client/pkg/errorx"
	"kama_gram_client/pkg/util/taskpool"
)

// fakeBackend 内存假后端，只记录目录关心的调用
type fakeBackend struct {
	mu                     sync.Mutex
	conversations          []backend.ConversationRecord
	listErr                error
	listConversationsCalls int
}

func (f *fakeBackend) ListConversations(ctx context.Context, actorId string) ([]backend.ConversationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listConversationsCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]backend.ConversationRecord, len(f.conversations))
	copy(out, f.conversations)
	return out, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listConversationsCalls
}

func (f *fakeBackend) CreateConversation(ctx context.Context, conv backend.NewConversation) (*backend.ConversationRecord, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) UpdateConversation(ctx context.Context, id string, update backend.ConversationUpdate) (*backend.ConversationRecord, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) ListMessages(ctx context.Context, conversationId string, limit int) ([]backend.MessageRecord, error) {
	return nil, nil
}
func (f *fakeBackend) CreateMessage(ctx context.Context, msg backend.NewMessage) (*backend.MessageRecord, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) FindUsersByUsername(ctx context.Context, query string) ([]backend.UserRecord, error) {
	return nil, nil
}
func (f *fakeBackend) ListDummyUsers(ctx context.Context) ([]backend.UserRecord, error) {
	return nil, nil
}

var fixedNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func conversationWith(id string, p1, p2 backend.UserRef, lastUpdated time.Time) backend.ConversationRecord {
	return backend.ConversationRecord{
		Id:           id,
		Participant1: p1,
		Participant2: p2,
		LastMsgBody:  "hello from " + id,
		LastUpdated:  lastUpdated,
	}
}

func newTestService(t *testing.T, actor identity.Actor, fake *fakeBackend) *Service {
	t.Helper()
	pool := taskpool.New(1, 8)
	t.Cleanup(pool.Close)
	svc := NewService(actor, fake, pool)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// waitFor 轮询等待异步条件成立
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("等待异步条件超时")
}

func TestLoadResolvesOtherParticipant(t *testing.T) {
	me := backend.UserRef{Id: "u-me", Name: "Me"}
	alice := backend.UserRef{Id: "u-alice", Name: "Alice", ImageUrl: "/a.png"}
	bob := backend.UserRef{Id: "u-bob", Name: "Bob"}

	fake := &fakeBackend{conversations: []backend.ConversationRecord{
		conversationWith("c1", me, alice, fixedNow.Add(-5*time.Minute)),
		conversationWith("c2", bob, me, fixedNow.Add(-time.Minute)),
	}}
	svc := newTestService(t, identity.NewAuthenticated("u-me", "Me", ""), fake)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	summaries := svc.Summaries()
	if len(summaries) != 2 {
		t.Fatalf("目录条目数 = %d, want 2", len(summaries))
	}
	for _, sum := range summaries {
		if sum.OtherParticipantId == "u-me" {
			t.Fatalf("会话 %s 的对端解析成了当前身份", sum.ConversationId)
		}
	}
	// 最近更新在前：c2 (1 分钟前) 先于 c1 (5 分钟前)
	if summaries[0].ConversationId != "c2" || summaries[1].ConversationId != "c1" {
		t.Fatalf("展示顺序错误: %s, %s", summaries[0].ConversationId, summaries[1].ConversationId)
	}
	if summaries[1].OtherParticipantName != "Alice" || summaries[1].OtherParticipantImage != "/a.png" {
		t.Fatalf("对端信息映射错误: %+v", summaries[1])
	}
	if summaries[1].LastUpdatedDisplay != "5 minutes ago" {
		t.Fatalf("相对时间 = %q, want %q", summaries[1].LastUpdatedDisplay, "5 minutes ago")
	}
}

func TestLoadFailureKeepsStaleContents(t *testing.T) {
	me := backend.UserRef{Id: "u-me", Name: "Me"}
	alice := backend.UserRef{Id: "u-alice", Name: "Alice"}

	fake := &fakeBackend{conversations: []backend.ConversationRecord{
		conversationWith("c1", me, alice, fixedNow.Add(-time.Hour)),
	}}
	svc := newTestService(t, identity.NewAuthenticated("u-me", "Me", ""), fake)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	fake.mu.Lock()
	fake.listErr = errors.New("network down")
	fake.mu.Unlock()

	err := svc.Load(context.Background())
	if err == nil {
		t.Fatal("拉取失败应返回错误")
	}
	if errorx.GetCode(err) != errorx.CodeBackendUnavailable {
		t.Fatalf("错误码 = %d, want %d", errorx.GetCode(err), errorx.CodeBackendUnavailable)
	}
	if len(svc.Summaries()) != 1 {
		t.Fatal("拉取失败后应保留上一次的有效目录")
	}
}

func TestGuestDirectoryStaysEmpty(t *testing.T) {
	fake := &fakeBackend{conversations: []backend.ConversationRecord{
		conversationWith("c1", backend.UserRef{Id: "x"}, backend.UserRef{Id: "y"}, fixedNow),
	}}
	svc := newTestService(t, identity.NewGuest(), fake)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fake.calls() != 0 {
		t.Fatal("游客身份不应发起目录查询")
	}
	if len(svc.Summaries()) != 0 {
		t.Fatal("游客目录应保持为空")
	}
}

func TestOnConversationCreatedRefreshesOnce(t *testing.T) {
	me := backend.UserRef{Id: "u-me", Name: "Me"}
	alice := backend.UserRef{Id: "u-alice", Name: "Alice"}

	fake := &fakeBackend{conversations: []backend.ConversationRecord{
		conversationWith("c1", me, alice, fixedNow),
	}}
	svc := newTestService(t, identity.NewAuthenticated("u-me", "Me", ""), fake)

	svc.OnConversationCreated()
	waitFor(t, func() bool { return fake.calls() == 1 })

	svc.OnConversationCreated()
	waitFor(t, func() bool { return fake.calls() == 2 })
}

func TestOnChangedReportsConversationIds(t *testing.T) {
	me := backend.UserRef{Id: "u-me", Name: "Me"}
	alice := backend.UserRef{Id: "u-alice", Name: "Alice"}

	fake := &fakeBackend{conversations: []backend.ConversationRecord{
		conversationWith("c1", me, alice, fixedNow),
	}}
	svc := newTestService(t, identity.NewAuthenticated("u-me", "Me", ""), fake)

	var mu sync.Mutex
	var got []string
	svc.SetOnChanged(func(ids []string) {
		mu.Lock()
		got = ids
		mu.Unlock()
	})

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "c1" {
		t.Fatalf("变更回调收到的 ID 集合 = %v, want [c1]", got)
	}
}
