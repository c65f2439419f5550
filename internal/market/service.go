package market

import (
	"context"
	"sync"

	"folio/internal/logger"
	symbolpkg "folio/internal/pkg/symbol"

	"golang.org/x/sync/errgroup"
)

// SymbolSnapshot 聚合单个交易对的行情与多周期指标。
type SymbolSnapshot struct {
	Pair            string                    `json:"pair"`
	CurrentPrice    float64                   `json:"current_price"`
	BidAskSpreadPct float64                   `json:"bid_ask_spread_percent"`
	Timeframes      []string                  `json:"-"`
	TimeframeStats  map[string]TimeframeStats `json:"timeframe_data"`
}

// ServiceConfig 控制快照抓取范围。
type ServiceConfig struct {
	Symbols          []string
	Timeframes       []string
	HistoryLimit     int
	CorrelationLimit int
}

// Service 是行情协作方的入口：产出快照、现价表与相关矩阵。
type Service struct {
	cfg    ServiceConfig
	source Source
}

func NewService(cfg ServiceConfig, source Source) *Service {
	return &Service{cfg: cfg, source: source}
}

// fetchConcurrency 限制对交易所的并发请求量。
const fetchConcurrency = 4

// SnapshotAll 并发抓取所有交易对的快照。
// 单个交易对失败只会让它从结果缺席，估值由价格缓存兜底。
func (s *Service) SnapshotAll(ctx context.Context) map[string]*SymbolSnapshot {
	var mu sync.Mutex
	out := make(map[string]*SymbolSnapshot, len(s.cfg.Symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, pair := range s.cfg.Symbols {
		pair := pair
		g.Go(func() error {
			snap, err := s.snapshotOne(gctx, pair)
			if err != nil {
				logger.Warnf("snapshot %s skipped: %v", pair, err)
				return nil
			}
			mu.Lock()
			out[pair] = snap
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) snapshotOne(ctx context.Context, pair string) (*SymbolSnapshot, error) {
	ticker, err := s.source.FetchTicker(ctx, pair)
	if err != nil {
		return nil, err
	}
	snap := &SymbolSnapshot{
		Pair:           pair,
		CurrentPrice:   ticker.LastPrice,
		TimeframeStats: make(map[string]TimeframeStats, len(s.cfg.Timeframes)),
	}
	if ticker.AskPrice > 0 {
		snap.BidAskSpreadPct = (ticker.AskPrice - ticker.BidPrice) / ticker.AskPrice * 100
	}
	for _, tf := range s.cfg.Timeframes {
		candles, err := s.source.FetchHistory(ctx, pair, tf, s.cfg.HistoryLimit)
		if err != nil {
			logger.Warnf("history %s %s skipped: %v", pair, tf, err)
			continue
		}
		stats, err := ComputeTimeframeStats(candles)
		if err != nil {
			logger.Warnf("indicators %s %s skipped: %v", pair, tf, err)
			continue
		}
		snap.Timeframes = append(snap.Timeframes, tf)
		snap.TimeframeStats[tf] = stats
	}
	if len(snap.TimeframeStats) == 0 {
		logger.Warnf("no timeframe data for %s, keeping price-only snapshot", pair)
	}
	return snap, nil
}

// CurrentPrices 从快照提取现价表（仅保留正值）。
func CurrentPrices(snaps map[string]*SymbolSnapshot) map[string]float64 {
	out := make(map[string]float64, len(snaps))
	for pair, snap := range snaps {
		if snap != nil && snap.CurrentPrice > 0 {
			out[pair] = snap.CurrentPrice
		}
	}
	return out
}

// CorrelationMatrix 抓取 4h 收益率并计算相关矩阵。
// 任一币种失败不会中断其余币种；全部失败时返回空矩阵。
func (s *Service) CorrelationMatrix(ctx context.Context) CorrelationMatrix {
	var mu sync.Mutex
	returns := make(map[string][]float64, len(s.cfg.Symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, pair := range s.cfg.Symbols {
		pair := pair
		g.Go(func() error {
			candles, err := s.source.FetchHistory(gctx, pair, "4h", s.cfg.CorrelationLimit)
			if err != nil {
				logger.Warnf("correlation history %s skipped: %v", pair, err)
				return nil
			}
			series := Returns(candles)
			if len(series) < 2 {
				return nil
			}
			mu.Lock()
			returns[symbolpkg.Base(pair)] = series
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return ComputeCorrelationMatrix(returns)
}
