// Package store 定义状态持久化的抽象：核心只要求
// "周期开始加载旧状态、周期结束保存新状态" 两个语义。
package store

import (
	"context"

	"folio/internal/portfolio"
)

// StateStore 在进程重启间保存模拟账户。
// Load 对不存在的状态返回 (nil, nil)，由调用方新建账户。
type StateStore interface {
	Load(ctx context.Context) (*portfolio.Portfolio, error)
	Save(ctx context.Context, p *portfolio.Portfolio) error
	Close() error
}
