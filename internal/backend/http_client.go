package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"kama_gram_client/internal/config"
	"kama_gram_client/pkg/errorx"
)

const defaultTimeout = 10 * time.Second

// HttpClient 基于平台文档 REST API 的 Service 实现
type HttpClient struct {
	endpoint                string
	project                 string
	apiKey                  string
	database                string
	conversationsCollection string
	messagesCollection      string
	usersCollection         string
	httpClient              *http.Client
}

// NewHttpClient 根据配置创建后端客户端
func NewHttpClient(cfg *config.BackendConfig) *HttpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HttpClient{
		endpoint:                cfg.Endpoint,
		project:                 cfg.Project,
		apiKey:                  cfg.ApiKey,
		database:                cfg.Database,
		conversationsCollection: cfg.ConversationsCollection,
		messagesCollection:      cfg.MessagesCollection,
		usersCollection:         cfg.UsersCollection,
		httpClient:              &http.Client{Timeout: timeout},
	}
}

// documentList 平台的文档列表响应
type documentList[T any] struct {
	Total     int `json:"total"`
	Documents []T `json:"documents"`
}

// apiError 平台的错误响应体
type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// query 构造平台查询参数的 JSON 形式
// 如 {"method":"equal","attribute":"participant1","values":["U123"]}
// attribute 或 values 为空时省略对应字段（如 limit 查询只有 values）
func query(method, attribute string, values ...any) string {
	q := map[string]any{"method": method}
	if attribute != "" {
		q["attribute"] = attribute
	}
	if len(values) > 0 {
		q["values"] = values
	}
	data, _ := json.Marshal(q)
	return string(data)
}

// ListConversations 列出 actor 参与的全部会话
// 平台的等值查询只作用于单属性，分别按 participant1/participant2 查询后按 ID 合并去重
func (c *HttpClient) ListConversations(ctx context.Context, actorId string) ([]ConversationRecord, error) {
	asFirst, err := c.listConversationsBy(ctx, "participant1", actorId)
	if err != nil {
		return nil, err
	}
	asSecond, err := c.listConversationsBy(ctx, "participant2", actorId)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(asFirst)+len(asSecond))
	merged := make([]ConversationRecord, 0, len(asFirst)+len(asSecond))
	for _, rec := range append(asFirst, asSecond...) {
		if _, ok := seen[rec.Id]; ok {
			continue
		}
		seen[rec.Id] = struct{}{}
		merged = append(merged, rec)
	}
	return merged, nil
}

func (c *HttpClient) listConversationsBy(ctx context.Context, attribute, actorId string) ([]ConversationRecord, error) {
	values := url.Values{}
	values.Add("queries[]", query("equal", attribute, actorId))

	var list documentList[ConversationRecord]
	if err := c.get(ctx, c.collectionPath(c.conversationsCollection)+"?"+values.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// CreateConversation 创建会话记录
func (c *HttpClient) CreateConversation(ctx context.Context, conv NewConversation) (*ConversationRecord, error) {
	body := map[string]any{
		"documentId": conv.Id,
		"data":       conv,
	}
	var rec ConversationRecord
	if err := c.send(ctx, http.MethodPost, c.collectionPath(c.conversationsCollection), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateConversation 更新会话的冗余最新消息字段
func (c *HttpClient) UpdateConversation(ctx context.Context, conversationId string, update ConversationUpdate) (*ConversationRecord, error) {
	body := map[string]any{
		"data": update,
	}
	path := c.collectionPath(c.conversationsCollection) + "/" + url.PathEscape(conversationId)
	var rec ConversationRecord
	if err := c.send(ctx, http.MethodPatch, path, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListMessages 按创建时间倒序列出会话消息
func (c *HttpClient) ListMessages(ctx context.Context, conversationId string, limit int) ([]MessageRecord, error) {
	values := url.Values{}
	values.Add("queries[]", query("equal", "conversationId", conversationId))
	values.Add("queries[]", query("orderDesc", "createdAt"))
	values.Add("queries[]", query("limit", "", limit))

	var list documentList[MessageRecord]
	if err := c.get(ctx, c.collectionPath(c.messagesCollection)+"?"+values.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// CreateMessage 创建消息记录
func (c *HttpClient) CreateMessage(ctx context.Context, msg NewMessage) (*MessageRecord, error) {
	body := map[string]any{
		"documentId": msg.Id,
		"data":       msg,
	}
	var rec MessageRecord
	if err := c.send(ctx, http.MethodPost, c.collectionPath(c.messagesCollection), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindUsersByUsername 按用户名子串搜索用户
func (c *HttpClient) FindUsersByUsername(ctx context.Context, q string) ([]UserRecord, error) {
	values := url.Values{}
	values.Add("queries[]", query("search", "username", q))

	var list documentList[UserRecord]
	if err := c.get(ctx, c.collectionPath(c.usersCollection)+"?"+values.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// ListDummyUsers 列出游客模式的演示用户
func (c *HttpClient) ListDummyUsers(ctx context.Context) ([]UserRecord, error) {
	values := url.Values{}
	values.Add("queries[]", query("equal", "isDemo", true))

	var list documentList[UserRecord]
	if err := c.get(ctx, c.collectionPath(c.usersCollection)+"?"+values.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

func (c *HttpClient) collectionPath(collection string) string {
	return fmt.Sprintf("%s/databases/%s/collections/%s/documents", c.endpoint, c.database, collection)
}

func (c *HttpClient) get(ctx context.Context, rawURL string, out any) error {
	return c.do(ctx, http.MethodGet, rawURL, nil, out)
}

func (c *HttpClient) send(ctx context.Context, method, rawURL string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeInvalidParam, "序列化请求体失败")
	}
	return c.do(ctx, method, rawURL, bytes.NewReader(data), out)
}

// do 执行请求并解码响应
// 传输错误与非 2xx 状态码统一映射为 CodeBackendUnavailable
func (c *HttpClient) do(ctx context.Context, method, rawURL string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeInvalidParam, "构造请求失败")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", c.project)
	if c.apiKey != "" {
		req.Header.Set("X-Appwrite-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeBackendUnavailable, "后端请求失败")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeBackendUnavailable, "读取后端响应失败")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return errorx.Newf(errorx.CodeBackendUnavailable, "后端返回错误: %s (%d)", apiErr.Message, resp.StatusCode)
		}
		return errorx.Newf(errorx.CodeBackendUnavailable, "后端返回状态码 %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errorx.Wrap(err, errorx.CodeBackendUnavailable, "解析后端响应失败")
		}
	}
	return nil
}
