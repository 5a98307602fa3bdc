package thread

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kama_gram_client/internal/backend"
	"kama_gram_client/internal/identity"
)

// fakeBackend 内存假后端，支持按会话阻塞消息拉取以模拟在途请求
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string][]backend.MessageRecord
	gates     map[string]chan struct{} // 有门则拉取阻塞到放行
	listErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		responses: make(map[string][]backend.MessageRecord),
		gates:     make(map[string]chan struct{}),
	}
}

func (f *fakeBackend) ListMessages(ctx context.Context, conversationId string, limit int) ([]backend.MessageRecord, error) {
	f.mu.Lock()
	gate := f.gates[conversationId]
	listErr := f.listErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if listErr != nil {
		return nil, listErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]backend.MessageRecord, len(f.responses[conversationId]))
	copy(out, f.responses[conversationId])
	return out, nil
}

func (f *fakeBackend) ListConversations(ctx context.Context, actorId string) ([]backend.ConversationRecord, error) {
	return nil, nil
}
func (f *fakeBackend) CreateConversation(ctx context.Context, conv backend.NewConversation) (*backend.ConversationRecord, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) UpdateConversation(ctx context.Context, id string, update backend.ConversationUpdate) (*backend.ConversationRecord, error) {
	return nil, errors.New("not implemented")
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

func msgRecord(id, sender, body string, at time.Time) backend.MessageRecord {
	return backend.MessageRecord{
		Id:        id,
		Body:      body,
		CreatedAt: at,
		Sender:    backend.UserRef{Id: "u-" + sender, Name: sender},
	}
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

func TestFetchReversesToOldestFirst(t *testing.T) {
	now := time.Now()
	fake := newFakeBackend()
	// 后端按创建时间倒序返回：最新在前
	fake.responses["c1"] = []backend.MessageRecord{
		msgRecord("m3", "Alice", "third", now),
		msgRecord("m2", "Me", "second", now.Add(-time.Minute)),
		msgRecord("m1", "Alice", "first", now.Add(-2*time.Minute)),
	}
	cache := NewCache(identity.NewAuthenticated("u-Me", "Me", ""), fake, 100)

	cache.SetActiveConversation(context.Background(), "c1")
	waitFor(t, func() bool { return len(cache.Messages()) == 3 })

	got := cache.Messages()
	if got[0].Id != "m1" || got[1].Id != "m2" || got[2].Id != "m3" {
		t.Fatalf("线程顺序应为最旧在前: %v", got)
	}
	if got[0].SenderName != "Alice" {
		t.Fatalf("发送者名称解析错误: %q", got[0].SenderName)
	}
}

func TestGuestViewerSeesAllSendersAnonymous(t *testing.T) {
	fake := newFakeBackend()
	fake.responses["c1"] = []backend.MessageRecord{
		msgRecord("m2", "Alice", "hi", time.Now()),
		msgRecord("m1", "Bob", "yo", time.Now().Add(-time.Minute)),
	}
	cache := NewCache(identity.NewGuest(), fake, 100)

	cache.SetActiveConversation(context.Background(), "c1")
	waitFor(t, func() bool { return len(cache.Messages()) == 2 })

	for _, m := range cache.Messages() {
		if m.SenderName != "Anonymous" {
			t.Fatalf("游客查看时发送者应为 Anonymous，实际 %q", m.SenderName)
		}
	}
}

func TestStaleFetchDiscardedAfterSwitch(t *testing.T) {
	fake := newFakeBackend()
	fake.responses["a"] = []backend.MessageRecord{msgRecord("a1", "Alice", "from a", time.Now())}
	fake.responses["b"] = []backend.MessageRecord{msgRecord("b1", "Bob", "from b", time.Now())}
	gateA := make(chan struct{})
	gateB := make(chan struct{})
	fake.gates["a"] = gateA
	fake.gates["b"] = gateB

	cache := NewCache(identity.NewAuthenticated("u-Me", "Me", ""), fake, 100)

	cache.SetActiveConversation(context.Background(), "a")
	cache.SetActiveConversation(context.Background(), "b")

	// B 先完成，线程应为 B 的内容
	close(gateB)
	waitFor(t, func() bool { return len(cache.Messages()) == 1 })

	// A 的过期结果随后到达，必须被丢弃
	close(gateA)
	time.Sleep(50 * time.Millisecond)

	got := cache.Messages()
	if len(got) != 1 || got[0].Id != "b1" {
		t.Fatalf("过期拉取结果覆盖了当前会话线程: %v", got)
	}
	if cache.ActiveConversationId() != "b" {
		t.Fatalf("当前会话 = %q, want b", cache.ActiveConversationId())
	}
}

func TestAppendLocalLabelsBySenderIdentity(t *testing.T) {
	fake := newFakeBackend()
	auth := NewCache(identity.NewAuthenticated("u-Me", "Me", ""), fake, 100)
	auth.BindConversation("c1")
	auth.AppendLocal(Message{Id: "m1", SenderName: "Me", Body: "hello"})

	got := auth.Messages()
	if len(got) != 1 || got[len(got)-1].SenderName != "Me" {
		t.Fatalf("登录身份本地追加应带本名: %v", got)
	}

	guest := NewCache(identity.NewGuest(), fake, 100)
	guest.AppendLocal(Message{Id: "g1", SenderName: "Anonymous", Body: "hi"})
	got = guest.Messages()
	if len(got) != 1 || got[len(got)-1].SenderName != "Anonymous" {
		t.Fatalf("游客本地追加应为 Anonymous: %v", got)
	}
}

func TestLocalAppendAndRealtimeEchoDeduped(t *testing.T) {
	fake := newFakeBackend()
	cache := NewCache(identity.NewAuthenticated("u-Me", "Me", ""), fake, 100)
	cache.BindConversation("c1")

	cache.AppendLocal(Message{Id: "m1", SenderName: "Me", Body: "hello"})
	// 同一条消息的实时回声：按 ID 去重，不应产生第二个条目
	cache.AppendFromRealtime(backend.ConversationRecord{
		Id:                "c1",
		LastMsgIdString:   "m1",
		LastMsgSenderName: "Me",
		LastMsgBody:       "hello",
	})

	if got := cache.Messages(); len(got) != 1 {
		t.Fatalf("本地追加与实时回声应去重为一条，实际 %d 条", len(got))
	}
}

func TestRealtimeAppendIgnoresOtherConversations(t *testing.T) {
	fake := newFakeBackend()
	cache := NewCache(identity.NewAuthenticated("u-Me", "Me", ""), fake, 100)
	cache.BindConversation("c1")

	cache.AppendFromRealtime(backend.ConversationRecord{
		Id:                "c2",
		LastMsgIdString:   "x1",
		LastMsgSenderName: "Alice",
		LastMsgBody:       "elsewhere",
	})

	if len(cache.Messages()) != 0 {
		t.Fatal("非当前会话的更新事件不应追加")
	}
}

func TestEmptyConversationIdClearsThread(t *testing.T) {
	fake := newFakeBackend()
	cache := NewCache(identity.NewAuthenticated("u-Me", "Me", ""), fake, 100)
	cache.BindConversation("c1")
	cache.AppendLocal(Message{Id: "m1", SenderName: "Me", Body: "hello"})

	cache.SetActiveConversation(context.Background(), "")

	if len(cache.Messages()) != 0 {
		t.Fatal("关闭会话应清空线程")
	}
	if cache.ActiveConversationId() != "" {
		t.Fatal("关闭会话后不应有活动会话")
	}
	if cache.IsLoading() {
		t.Fatal("关闭会话不应处于加载状态")
	}
}

func TestBindConversationKeepsLocalMessages(t *testing.T) {
	fake := newFakeBackend()
	cache := NewCache(identity.NewAuthenticated("u-Me", "Me", ""), fake, 100)

	// 新会话场景：先本地追加首条消息，再绑定惰性创建出的会话 ID
	cache.AppendLocal(Message{Id: "m1", SenderName: "Me", Body: "first"})
	cache.BindConversation("c-new")

	got := cache.Messages()
	if len(got) != 1 || got[0].Id != "m1" {
		t.Fatalf("绑定新会话不应清空已追加的消息: %v", got)
	}
	if cache.ActiveConversationId() != "c-new" {
		t.Fatalf("绑定后的会话 = %q, want c-new", cache.ActiveConversationId())
	}
}
