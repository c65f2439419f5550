package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"folio/internal/logger"
	symbolpkg "folio/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2"
)

const maxHistoryLimit = 1000

// Ticker 是单个交易对的实时行情摘要。
type Ticker struct {
	LastPrice float64
	BidPrice  float64
	AskPrice  float64
}

// Source 抽象行情数据来源，便于测试时注入假数据。
type Source interface {
	FetchTicker(ctx context.Context, pair string) (Ticker, error)
	FetchHistory(ctx context.Context, pair, interval string, limit int) ([]Candle, error)
}

// SourceConfig 描述 Binance 现货数据源。
type SourceConfig struct {
	RESTBaseURL   string
	HTTPTimeout   time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func (c SourceConfig) withDefaults() SourceConfig {
	if c.RESTBaseURL == "" {
		c.RESTBaseURL = "https://api.binance.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	return c
}

// BinanceSource 基于 go-binance SDK 实现 Source（现货，只读公共接口）。
type BinanceSource struct {
	cfg    SourceConfig
	client *binance.Client
}

func NewBinanceSource(cfg SourceConfig) *BinanceSource {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	client.BaseURL = strings.TrimRight(strings.TrimSpace(final.RESTBaseURL), "/")
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &BinanceSource{cfg: final, client: client}
}

func (s *BinanceSource) FetchTicker(ctx context.Context, pair string) (Ticker, error) {
	clean := symbolpkg.Parse(pair).Binance()
	if clean == "" {
		return Ticker{}, fmt.Errorf("invalid pair: %q", pair)
	}
	var out Ticker
	err := s.withRetry(ctx, "ticker "+pair, func() error {
		stats, err := s.client.NewListPriceChangeStatsService().Symbol(clean).Do(ctx)
		if err != nil {
			return err
		}
		if len(stats) == 0 || stats[0] == nil {
			return fmt.Errorf("empty ticker response for %s", clean)
		}
		st := stats[0]
		out = Ticker{
			LastPrice: parseFloat(st.LastPrice),
			BidPrice:  parseFloat(st.BidPrice),
			AskPrice:  parseFloat(st.AskPrice),
		}
		return nil
	})
	if err != nil {
		return Ticker{}, err
	}
	if out.LastPrice <= 0 {
		return Ticker{}, fmt.Errorf("no valid last price for %s", clean)
	}
	return out, nil
}

func (s *BinanceSource) FetchHistory(ctx context.Context, pair, interval string, limit int) ([]Candle, error) {
	clean := symbolpkg.Parse(pair).Binance()
	if clean == "" {
		return nil, fmt.Errorf("invalid pair: %q", pair)
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	var out []Candle
	err := s.withRetry(ctx, fmt.Sprintf("klines %s %s", pair, interval), func() error {
		kls, err := s.client.NewKlinesService().Symbol(clean).Interval(interval).Limit(limit).Do(ctx)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, kl := range kls {
			if kl == nil {
				continue
			}
			out = append(out, Candle{
				OpenTime:  kl.OpenTime,
				CloseTime: kl.CloseTime,
				Open:      parseFloat(kl.Open),
				High:      parseFloat(kl.High),
				Low:       parseFloat(kl.Low),
				Close:     parseFloat(kl.Close),
				Volume:    parseFloat(kl.Volume),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withRetry 对网络抖动做有限次重试；行情的暂缺由上层的
// 价格缓存兜底，这里失败后直接返回错误而不是阻塞整个周期。
func (s *BinanceSource) withRetry(ctx context.Context, what string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < s.cfg.RetryAttempts {
			logger.Warnf("fetch %s failed (attempt %d/%d): %v", what, attempt, s.cfg.RetryAttempts, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryDelay):
			}
		}
	}
	return fmt.Errorf("fetch %s failed after %d attempts: %w", what, s.cfg.RetryAttempts, lastErr)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
