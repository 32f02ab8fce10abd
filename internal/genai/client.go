package genai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	commoncfg "overwatch-ingest/internal/common/config"
)

// Completer 生成式文本服务的窄契约：一轮 prompt 换一段文本。
// 分类器与规整器只依赖此接口，测试时用确定性桩替换
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, structured bool) (string, error)
}

// chatMessage OpenAI 兼容消息
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest OpenAI 兼容 chat completions 请求
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"` // "json_object"
}

// chatResponse OpenAI 兼容 chat completions 响应
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client 生成式文本服务客户端（OpenAI 兼容 chat completions 端点）
type Client struct {
	httpClient *resty.Client
	model      string
	maxTokens  int
	logger     *zap.Logger
}

var _ Completer = (*Client)(nil)

// NewClient 创建生成式文本服务客户端
func NewClient(cfg *commoncfg.GenAIConfig, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout). // 生成调用可能持续数秒，超时完全由配置控制
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		httpClient: client,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		logger:     logger,
	}
}

// Complete 发送单轮 prompt，返回首个 choice 的文本。
// structured 为 true 时附带 response_format=json_object 请求结构化输出。
// 空内容按失败处理，由调用方映射为所在阶段的错误
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, structured bool) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	request := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: 0,
	}
	if structured {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var response chatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post("/chat/completions")

	if err != nil {
		c.logger.Error("GenAI API call failed",
			zap.Error(err),
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", fmt.Errorf("failed to call generative text service: %w", err)
	}

	if response.Error != nil {
		c.logger.Error("GenAI API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", response.Error.Message),
		)
		return "", fmt.Errorf("generative text service error: %s", response.Error.Message)
	}

	if resp.IsError() {
		return "", fmt.Errorf("generative text service returned status %d", resp.StatusCode())
	}

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("generative text service returned empty response")
	}

	return response.Choices[0].Message.Content, nil
}
