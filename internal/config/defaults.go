package config

// 默认值常量
const (
	defaultLogLevel         = "info"
	defaultMarketREST       = "https://api.binance.com"
	defaultHistoryLimit     = 200
	defaultCorrelationLimit = 200
	defaultRetryAttempts    = 3
	defaultRetryDelay       = 5
	defaultHTTPTimeout      = 15
	defaultAIAPIURL         = "https://openrouter.ai/api/v1"
	defaultAIModel          = "deepseek/deepseek-chat"
	defaultAIMaxTokens      = 4096
	defaultAITemperature    = 0.5
	defaultAITimeout        = 60
	defaultAIMaxRetries     = 2
	defaultMaxDrawdown      = 0.20
	defaultHardStopLoss     = 0.10
	defaultHighCorrelation  = 0.7
	defaultInitialCash      = 10000.0
	defaultStatePath        = "data/folio.db"
	defaultCycleLogPath     = "data/cycles.db"
)

var defaultSymbols = []string{
	"BTC/USDT", "ETH/USDT", "SOL/USDT", "BNB/USDT", "XRP/USDT", "DOGE/USDT",
}

var defaultTimeframes = []string{"5m", "1h", "4h", "1d"}

// applyDefaults 为所有子配置应用默认值（零值视为未设置）。
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultLogLevel
	}
	if c.Market.RESTBaseURL == "" {
		c.Market.RESTBaseURL = defaultMarketREST
	}
	if len(c.Market.Symbols) == 0 {
		c.Market.Symbols = append([]string(nil), defaultSymbols...)
	}
	if len(c.Market.Timeframes) == 0 {
		c.Market.Timeframes = append([]string(nil), defaultTimeframes...)
	}
	if c.Market.HistoryLimit <= 0 {
		c.Market.HistoryLimit = defaultHistoryLimit
	}
	if c.Market.CorrelationLimit <= 0 {
		c.Market.CorrelationLimit = defaultCorrelationLimit
	}
	if c.Market.RetryAttempts <= 0 {
		c.Market.RetryAttempts = defaultRetryAttempts
	}
	if c.Market.RetryDelaySeconds <= 0 {
		c.Market.RetryDelaySeconds = defaultRetryDelay
	}
	if c.Market.HTTPTimeoutSeconds <= 0 {
		c.Market.HTTPTimeoutSeconds = defaultHTTPTimeout
	}
	if c.AI.APIURL == "" {
		c.AI.APIURL = defaultAIAPIURL
	}
	if c.AI.Model == "" {
		c.AI.Model = defaultAIModel
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = defaultAIMaxTokens
	}
	if c.AI.Temperature <= 0 {
		c.AI.Temperature = defaultAITemperature
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultAITimeout
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = defaultAIMaxRetries
	}
	if c.Risk.MaxDrawdown <= 0 {
		c.Risk.MaxDrawdown = defaultMaxDrawdown
	}
	if c.Risk.HardStopLoss <= 0 {
		c.Risk.HardStopLoss = defaultHardStopLoss
	}
	if c.Risk.HighCorrelation <= 0 {
		c.Risk.HighCorrelation = defaultHighCorrelation
	}
	if c.Trading.InitialCash <= 0 {
		c.Trading.InitialCash = defaultInitialCash
	}
	if c.Store.StatePath == "" {
		c.Store.StatePath = defaultStatePath
	}
	if c.Store.CycleLogPath == "" {
		c.Store.CycleLogPath = defaultCycleLogPath
	}
}
