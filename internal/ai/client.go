// Package ai 封装 OpenRouter 等兼容 OpenAI 聊天补全协议的模型后端。
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"folio/internal/logger"
)

// Client 调用 /v1/chat/completions。对 429/5xx 做有限重试。
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat 发送一组 system+user 消息并返回模型的文本输出。
func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	url := c.endpoint()

	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})
	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}

	logger.Debugf("[AI] POST %s model=%s authorization=%s", url, c.Model, maskKey(c.APIKey))
	logger.LogLLMRequest(c.Model, systemPrompt, userPrompt, string(body))

	httpc := &http.Client{Timeout: timeout}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := httpc.Do(req)
		if err != nil {
			lastErr = err
			break
		}
		if resp.StatusCode/100 == 2 {
			out, err := decodeChatResponse(resp)
			if err != nil {
				return "", err
			}
			logger.LogLLMResponse(c.Model, out)
			return out, nil
		}
		status := resp.StatusCode
		msg := decodeErrorMessage(resp)
		lastErr = fmt.Errorf("status=%d: %s", status, msg)
		if !retryableStatus(status) || attempt >= maxRetries {
			break
		}
		wait := retryAfter(resp)
		if wait == 0 {
			// 指数退避：0.8s, 1.6s, 3.2s ...
			wait = 800 * time.Millisecond << attempt
			if wait > 8*time.Second {
				wait = 8 * time.Second
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("chat completion failed: %w", lastErr)
}

// endpoint 规范化 BaseURL，容忍配置里写了完整 /chat/completions 路径。
func (c *Client) endpoint() string {
	url := strings.TrimSpace(c.BaseURL)
	if url == "" {
		url = "https://openrouter.ai/api/v1"
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func decodeChatResponse(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decoding chat response failed: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("chat response carries no choices")
	}
	return r.Choices[0].Message.Content, nil
}

func decodeErrorMessage(resp *http.Response) string {
	defer resp.Body.Close()
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&e)
	if msg := strings.TrimSpace(e.Error.Message); msg != "" {
		return msg
	}
	return resp.Status
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	secs, err := strconv.Atoi(ra)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func maskKey(key string) string {
	if key == "" {
		return "(none)"
	}
	tail := key
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "Bearer ****" + tail
}
