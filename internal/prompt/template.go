package prompt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"folio/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// defaultSystemTemplate 是内置的系统提示词：强制模型先在 <thinking>
// 写推理，再在 <json_output> 给出结构化决策。
const defaultSystemTemplate = `You are an expert trading analyst. Your task is to think step-by-step to arrive at the best trading decisions. First, you MUST write your entire analysis, thought process, and reasoning inside a <thinking> XML block. This is for your internal monologue and will be displayed to the user as your thought process. After the closing </thinking> tag, you MUST provide your final structured output inside a <json_output> XML block. This block must contain a single valid JSON object with one key: 'decisions'.
The 'decisions' key must be a list of JSON objects, one for each symbol. Each object must have:
  - 'symbol': The base coin symbol (e.g., 'BTC').
  - 'action': 'BUY', 'SELL', or 'HOLD'.
  - 'quantity': The number of coins to trade. Must be 0 for HOLD.
  - 'confidence': 'High', 'Medium', or 'Low'.
  - 'exit_plan': A brief strategy for this position (e.g., 'Sell if price drops to $65k or rises to $75k').
Example final output format:
<json_output>
{
  "decisions": [
    {"symbol": "BTC", "action": "BUY", "quantity": 0.01, "confidence": "High", "exit_plan": "Target $75,000, stop-loss at $68,000"},
    {"symbol": "ETH", "action": "HOLD", "quantity": 0, "confidence": "Medium", "exit_plan": "Monitor for breakout above $4,200"}
  ]
}
</json_output>`

// TemplateStore 管理系统提示词模板，支持从文件覆盖并热更新。
type TemplateStore struct {
	path string

	mu      sync.RWMutex
	current string
}

// NewTemplateStore 创建模板仓库。path 为空时始终使用内置模板。
func NewTemplateStore(path string) *TemplateStore {
	s := &TemplateStore{path: strings.TrimSpace(path), current: defaultSystemTemplate}
	if s.path != "" {
		s.reload()
	}
	return s
}

// System 返回当前生效的系统提示词。
func (s *TemplateStore) System() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *TemplateStore) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		logger.Warnf("system template %s unreadable, keeping previous: %v", s.path, err)
		return
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		logger.Warnf("system template %s is empty, keeping previous", s.path)
		return
	}
	s.mu.Lock()
	s.current = text
	s.mu.Unlock()
	logger.Infof("system template reloaded from %s", s.path)
}

// Watch 监听模板文件变更并热更新，直到 ctx 结束。
// 监听目录而非文件本身，以兼容编辑器的原子替换写入。
func (s *TemplateStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					s.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("template watcher error: %v", err)
			}
		}
	}()
	return nil
}
