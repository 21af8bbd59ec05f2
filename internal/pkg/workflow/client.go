package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qs3c/persona_go_server/config"
)

// 工作流引擎只负责接单，结果通过独立的回调请求送回来，
// 这里的投递是 fire-and-forget：只确认 trigger 收下了任务。

// InfluencerJob 建号任务
type InfluencerJob struct {
	InfluencerID   string `json:"influencer_id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	Vibe           string `json:"vibe"`
	CallbackURL    string `json:"callback_url"`
	CallbackSecret string `json:"callback_secret"`
}

// ImageJob 生图任务，携带锁定时固化的生成参数
type ImageJob struct {
	InfluencerID   string `json:"influencer_id"`
	UserID         string `json:"user_id"`
	BasePrompt     string `json:"base_prompt"`
	Seed           int64  `json:"seed"`
	Bio            string `json:"bio"`
	Vibe           string `json:"vibe"`
	Prompt         string `json:"prompt"`
	CallbackURL    string `json:"callback_url"`
	CallbackSecret string `json:"callback_secret"`
}

// ContextMessage 聊天上下文中的一条消息
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatJob 聊天回复任务，Context 是最近的消息（最旧在前）
type ChatJob struct {
	ChatID         int64            `json:"chat_id"`
	UserID         string           `json:"user_id"`
	InfluencerID   string           `json:"influencer_id"`
	Name           string           `json:"name"`
	Bio            string           `json:"bio"`
	Vibe           string           `json:"vibe"`
	Context        []ContextMessage `json:"context"`
	CallbackURL    string           `json:"callback_url"`
	CallbackSecret string           `json:"callback_secret"`
}

type Client struct {
	httpClient *http.Client
	cfg        *config.WorkflowConfig
}

func NewClient(cfg *config.WorkflowConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}
}

// CallbackURL 拼接回调地址
func (c *Client) CallbackURL(path string) string {
	return strings.TrimRight(c.cfg.CallbackBaseURL, "/") + path
}

// Secret 回调共享密钥
func (c *Client) Secret() string {
	return c.cfg.CallbackSecret
}

// TriggerInfluencerSetup 派发建号任务
func (c *Client) TriggerInfluencerSetup(ctx context.Context, job *InfluencerJob) error {
	return c.post(ctx, c.cfg.InfluencerTriggerURL, job)
}

// TriggerImage 派发生图任务
func (c *Client) TriggerImage(ctx context.Context, job *ImageJob) error {
	return c.post(ctx, c.cfg.ImageTriggerURL, job)
}

// TriggerChat 派发聊天任务
func (c *Client) TriggerChat(ctx context.Context, job *ChatJob) error {
	return c.post(ctx, c.cfg.ChatTriggerURL, job)
}

func (c *Client) post(ctx context.Context, triggerURL string, payload interface{}) error {
	if triggerURL == "" {
		return fmt.Errorf("trigger url not configured")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, triggerURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trigger delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trigger returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
