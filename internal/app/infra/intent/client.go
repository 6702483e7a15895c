package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fulfilment/internal/app/pkg/errorx"
)

// Client 意图解析服务 HTTP 客户端
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient 创建意图解析客户端，timeout 作用于每次调用
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// ParseRequest 单条解析请求
type ParseRequest struct {
	Text      string                 `json:"text"`
	Context   map[string]interface{} `json:"context,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

// BatchRequest 批量解析请求
type BatchRequest struct {
	Texts     []string               `json:"texts"`
	Context   map[string]interface{} `json:"context,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

// Metadata 解析附带的会话信息
type Metadata struct {
	ConversationStage string `json:"conversation_stage,omitempty"`
}

// Result 解析结果（只取用到的字段）
type Result struct {
	Intent     Intent                 `json:"intent"`
	Entities   map[string]interface{} `json:"entities,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	Metadata   Metadata               `json:"metadata"`
	Confidence float64                `json:"confidence,omitempty"`
}

// Intent 意图名称；服务端可能返回字符串或 {name, confidence}
type Intent struct {
	Name       string
	Confidence float64
}

// UnmarshalJSON 兼容两种格式
func (i *Intent) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		i.Name = name
		return nil
	}
	var obj struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode intent failed: %w", err)
	}
	i.Name, i.Confidence = obj.Name, obj.Confidence
	return nil
}

// BatchResult 批量解析结果
type BatchResult struct {
	Count   int      `json:"count"`
	Results []Result `json:"results"`
}

// SessionAck 会话删除确认
type SessionAck struct {
	Message string `json:"message"`
}

// Parse 解析单条文本
func (c *Client) Parse(ctx context.Context, req ParseRequest) (*Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/nlu/parse", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseBatch 批量解析
func (c *Client) ParseBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	var out BatchResult
	if err := c.do(ctx, http.MethodPost, "/nlu/parse/batch", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession 查询远端会话
func (c *Client) GetSession(ctx context.Context, sessionID string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := c.do(ctx, http.MethodGet, "/nlu/session/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession 删除远端会话
func (c *Client) DeleteSession(ctx context.Context, sessionID string) (*SessionAck, error) {
	var out SessionAck
	if err := c.do(ctx, http.MethodDelete, "/nlu/session/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode intent request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errorx.DependencyUnavailable("intent service %s %s: %v", method, path, err).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errorx.NotFound(errorx.CodeSessionNotFound, "intent service %s: not found", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorx.DependencyUnavailable("intent service %s %s: status=%d", method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errorx.DependencyUnavailable("intent service %s: decode response: %v", path, err).WithCause(err)
	}
	return nil
}
