// Package sqlite 用 Gorm + SQLite 持久化模拟账户状态。
// 旧库加载后会经过显式的 schema 迁移，缺失字段一律补默认值，
// 不会因为版本差异而拒绝加载。
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"folio/internal/portfolio"
	"folio/internal/store"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// schemaVersion 随持久化结构演进递增，仅作诊断用途；
// 真正的前向兼容靠加载后的默认值填充。
const schemaVersion = 2

// 单账户模拟盘固定使用一行记录。
const singletonID = 1

type portfolioModel struct {
	ID                    int64          `gorm:"column:id;primaryKey"`
	SchemaVersion         int            `gorm:"column:schema_version"`
	InitialCash           float64        `gorm:"column:initial_cash"`
	AvailableCash         float64        `gorm:"column:available_cash"`
	Positions             datatypes.JSON `gorm:"column:positions"`
	PeakValue             float64        `gorm:"column:peak_value"`
	CircuitBreakerTripped bool           `gorm:"column:circuit_breaker_tripped"`
	LastKnownPrices       datatypes.JSON `gorm:"column:last_known_prices"`
	ValueHistory          datatypes.JSON `gorm:"column:value_history"`
	TradeHistory          datatypes.JSON `gorm:"column:trade_history"`
	StartTimeUnix         int64          `gorm:"column:start_time"`
	InvocationCount       int            `gorm:"column:invocation_count"`
	UpdatedAtUnix         int64          `gorm:"column:updated_at"`
}

func (portfolioModel) TableName() string { return "portfolio_state" }

// StateStore 实现 store.StateStore。
type StateStore struct {
	db *gorm.DB
}

func NewStateStore(path string) (*StateStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("state store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	// CGO_ENABLED=0 环境下使用 modernc 纯 Go 驱动（注册名 "sqlite"），
	// DSN 的 _pragma 语法即该驱动的格式。
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&portfolioModel{}); err != nil {
		return nil, err
	}
	return &StateStore{db: db}, nil
}

var _ store.StateStore = (*StateStore)(nil)

// Load 读取已保存的账户；不存在时返回 (nil, nil)。
func (s *StateStore) Load(ctx context.Context) (*portfolio.Portfolio, error) {
	var m portfolioModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading portfolio state failed: %w", err)
	}
	p := &portfolio.Portfolio{
		InitialCash:           m.InitialCash,
		AvailableCash:         m.AvailableCash,
		PeakValue:             m.PeakValue,
		CircuitBreakerTripped: m.CircuitBreakerTripped,
		InvocationCount:       m.InvocationCount,
	}
	if m.StartTimeUnix > 0 {
		p.StartTime = time.Unix(m.StartTimeUnix, 0)
	}
	unmarshalColumn(m.Positions, &p.Positions)
	unmarshalColumn(m.LastKnownPrices, &p.LastKnownPrices)
	unmarshalColumn(m.ValueHistory, &p.ValueHistory)
	unmarshalColumn(m.TradeHistory, &p.TradeHistory)

	// 旧版记录缺失的字段在这里统一补默认值。
	p.EnsureDefaults()
	return p, nil
}

// Save 覆盖写入单行状态（upsert）。
func (s *StateStore) Save(ctx context.Context, p *portfolio.Portfolio) error {
	m := portfolioModel{
		ID:                    singletonID,
		SchemaVersion:         schemaVersion,
		InitialCash:           p.InitialCash,
		AvailableCash:         p.AvailableCash,
		Positions:             marshalColumn(p.Positions),
		PeakValue:             p.PeakValue,
		CircuitBreakerTripped: p.CircuitBreakerTripped,
		LastKnownPrices:       marshalColumn(p.LastKnownPrices),
		ValueHistory:          marshalColumn(p.ValueHistory),
		TradeHistory:          marshalColumn(p.TradeHistory),
		StartTimeUnix:         p.StartTime.Unix(),
		InvocationCount:       p.InvocationCount,
		UpdatedAtUnix:         time.Now().Unix(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("saving portfolio state failed: %w", err)
	}
	return nil
}

func (s *StateStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func marshalColumn(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

// unmarshalColumn 宽容解析 JSON 列：空值或坏数据保持目标零值，
// 由 EnsureDefaults 兜底。
func unmarshalColumn(data datatypes.JSON, target any) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, target)
}
