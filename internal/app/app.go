// Package app 负责装配依赖并驱动交易周期。
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"folio/internal/ai"
	"folio/internal/config"
	"folio/internal/decision"
	"folio/internal/logger"
	"folio/internal/market"
	"folio/internal/portfolio"
	"folio/internal/prompt"
	"folio/internal/report"
	"folio/internal/risk"
	"folio/internal/store"
	"folio/internal/store/cyclelog"
	"folio/internal/store/sqlite"
	"folio/internal/trader"
	httpapi "folio/internal/transport/http"

	"github.com/google/uuid"
)

// App 聚合一个交易周期所需的全部协作方。
type App struct {
	cfg       *config.Config
	market    *market.Service
	client    *ai.Client
	templates *prompt.TemplateStore
	riskMgr   *risk.Manager
	executor  *trader.Executor
	state     store.StateStore
	cycles    *cyclelog.Store
	server    *httpapi.Server
}

func New(cfg *config.Config) (*App, error) {
	src := market.NewBinanceSource(market.SourceConfig{
		RESTBaseURL:   cfg.Market.RESTBaseURL,
		HTTPTimeout:   time.Duration(cfg.Market.HTTPTimeoutSeconds) * time.Second,
		RetryAttempts: cfg.Market.RetryAttempts,
		RetryDelay:    time.Duration(cfg.Market.RetryDelaySeconds) * time.Second,
	})
	mkt := market.NewService(market.ServiceConfig{
		Symbols:          cfg.Market.Symbols,
		Timeframes:       cfg.Market.Timeframes,
		HistoryLimit:     cfg.Market.HistoryLimit,
		CorrelationLimit: cfg.Market.CorrelationLimit,
	}, src)

	state, err := sqlite.NewStateStore(cfg.Store.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening state store failed: %w", err)
	}
	cycles, err := cyclelog.New(cfg.Store.CycleLogPath)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("opening cycle log failed: %w", err)
	}

	a := &App{
		cfg:    cfg,
		market: mkt,
		client: &ai.Client{
			BaseURL:     cfg.AI.APIURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
			Timeout:     time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
			MaxRetries:  cfg.AI.MaxRetries,
		},
		templates: prompt.NewTemplateStore(cfg.Prompt.SystemTemplate),
		riskMgr:   risk.NewManager(cfg.Risk.MaxDrawdown, cfg.Risk.HardStopLoss),
		executor:  trader.NewExecutor(risk.NewFilter(cfg.Risk.HighCorrelation)),
		state:     state,
		cycles:    cycles,
	}
	if cfg.App.HTTPAddr != "" {
		a.server = httpapi.NewServer(cfg.App.HTTPAddr, cycles)
	}
	return a, nil
}

func (a *App) Close() {
	if a.state != nil {
		_ = a.state.Close()
	}
	if a.cycles != nil {
		_ = a.cycles.Close()
	}
}

// Run 执行单次周期，或在配置了间隔时常驻循环。
func (a *App) Run(ctx context.Context) error {
	interval := time.Duration(a.cfg.Trading.IntervalMinutes) * time.Minute
	if interval <= 0 {
		rep, err := a.RunCycle(ctx)
		if err != nil {
			return err
		}
		return emit(rep)
	}

	if a.server != nil {
		go func() {
			if err := a.server.Run(ctx); err != nil {
				logger.Errorf("report http server stopped: %v", err)
			}
		}()
	}
	if err := a.templates.Watch(ctx); err != nil {
		logger.Warnf("template watcher unavailable: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		rep, err := a.RunCycle(ctx)
		if err != nil {
			logger.Errorf("cycle failed: %v", err)
		} else if err := emit(rep); err != nil {
			logger.Errorf("emitting report failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle 执行一个完整周期。除状态加载/保存失败之外，周期内的一切
// 故障都降级处理，保证总能产出一份可检视的报告。
func (a *App) RunCycle(ctx context.Context) (report.Report, error) {
	traceID := uuid.NewString()
	logger.Infof("[%s] cycle starting", traceID)

	p, err := a.state.Load(ctx)
	if err != nil {
		return report.Report{}, err
	}
	if p == nil {
		p = portfolio.New(a.cfg.Trading.InitialCash)
		logger.Infof("[%s] no existing portfolio found, created a new one", traceID)
	}
	p.InvocationCount++

	snaps := a.market.SnapshotAll(ctx)
	currentPrices := market.CurrentPrices(snaps)
	p.UpdateLastKnownPrices(currentPrices)
	logger.Infof("[%s] market snapshots: %d symbols, %d live prices", traceID, len(snaps), len(currentPrices))

	matrix := a.market.CorrelationMatrix(ctx)

	if safe := a.riskMgr.Check(p); !safe {
		rep := report.Build(traceID, p, "", nil, "Trading halted due to risk management checks.")
		a.finishCycle(ctx, traceID, p, rep, "", true)
		return rep, nil
	}

	userPrompt := prompt.BuildUserPrompt(prompt.Input{
		Portfolio:            p,
		Snapshots:            snaps,
		Correlation:          matrix,
		CorrelationThreshold: a.cfg.Risk.HighCorrelation,
		Timeframes:           a.cfg.Market.Timeframes,
	})

	res := a.consult(ctx, traceID, userPrompt)
	p.RecordTradeDecision(res.Reasoning, res.Decisions)

	a.executor.Execute(p, res.Decisions, currentPrices, matrix)
	p.RecordValueHistory(p.TotalValue())

	rep := report.Build(traceID, p, res.Reasoning, res.Decisions, "")
	a.finishCycle(ctx, traceID, p, rep, userPrompt, false)
	return rep, nil
}

// consult 咨询模型并解析回复。调用失败不是周期致命错误：
// 以错误文案充当推理、空决策列表继续走完周期。
func (a *App) consult(ctx context.Context, traceID, userPrompt string) decision.Result {
	raw, err := a.client.Chat(ctx, a.templates.System(), userPrompt)
	if err != nil {
		logger.Errorf("[%s] model consultation failed: %v", traceID, err)
		return decision.Result{
			Reasoning: fmt.Sprintf("Error communicating with the model API: %v", err),
		}
	}
	res := decision.Parse(raw)
	logger.Infof("[%s] parsed %d decisions", traceID, len(res.Decisions))
	return res
}

// finishCycle 保存状态、追加周期日志并发布报告。
// 保存失败只记日志：宁可输出一份没落盘的报告，也不吞掉整个周期。
func (a *App) finishCycle(ctx context.Context, traceID string, p *portfolio.Portfolio, rep report.Report, userPrompt string, halted bool) {
	if err := a.state.Save(ctx, p); err != nil {
		logger.Errorf("[%s] saving portfolio state failed: %v", traceID, err)
	}
	if err := a.cycles.Append(ctx, cyclelog.Record{
		TraceID:        traceID,
		Timestamp:      time.Now().Unix(),
		Prompt:         userPrompt,
		Reasoning:      rep.Reasoning,
		Decisions:      rep.Decisions,
		PortfolioValue: p.TotalValue(),
		Halted:         halted,
	}); err != nil {
		logger.Errorf("[%s] appending cycle log failed: %v", traceID, err)
	}
	if a.server != nil {
		a.server.SetReport(rep)
	}
	logger.Infof("[%s] cycle complete (halted=%v)", traceID, halted)
}

// emit 把报告 JSON 写到 stdout，是整个进程唯一的 stdout 输出。
func emit(rep report.Report) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(rep)
}
