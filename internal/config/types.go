package config

// Config 是 folio 的主配置载体。
type Config struct {
	App     AppConfig     `mapstructure:"app" yaml:"app"`
	Market  MarketConfig  `mapstructure:"market" yaml:"market"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Prompt  PromptConfig  `mapstructure:"prompt" yaml:"prompt"`
	Risk    RiskConfig    `mapstructure:"risk" yaml:"risk"`
	Trading TradingConfig `mapstructure:"trading" yaml:"trading"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogPath  string `mapstructure:"log_path" yaml:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path" yaml:"llm_log_path"`
	LLMDump  bool   `mapstructure:"llm_dump_payload" yaml:"llm_dump_payload"`
	// HTTPAddr 非空时启动报表 HTTP 服务（仅循环模式有意义）。
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`
}

type MarketConfig struct {
	RESTBaseURL        string   `mapstructure:"rest_base_url" yaml:"rest_base_url"`
	Symbols            []string `mapstructure:"symbols" yaml:"symbols"`
	Timeframes         []string `mapstructure:"timeframes" yaml:"timeframes"`
	HistoryLimit       int      `mapstructure:"history_limit" yaml:"history_limit"`
	CorrelationLimit   int      `mapstructure:"correlation_limit" yaml:"correlation_limit"`
	RetryAttempts      int      `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelaySeconds  int      `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	HTTPTimeoutSeconds int      `mapstructure:"http_timeout_seconds" yaml:"http_timeout_seconds"`
}

type AIConfig struct {
	APIURL         string  `mapstructure:"api_url" yaml:"api_url"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	Model          string  `mapstructure:"model" yaml:"model"`
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
}

type PromptConfig struct {
	// SystemTemplate 指向系统提示词模板文件；为空使用内置模板。
	SystemTemplate string `mapstructure:"system_template" yaml:"system_template"`
}

// RiskConfig 的阈值均为比例（0.10 = 10%）。
type RiskConfig struct {
	MaxDrawdown     float64 `mapstructure:"max_drawdown" yaml:"max_drawdown"`
	HardStopLoss    float64 `mapstructure:"hard_stop_loss" yaml:"hard_stop_loss"`
	HighCorrelation float64 `mapstructure:"high_correlation" yaml:"high_correlation"`
}

type TradingConfig struct {
	InitialCash float64 `mapstructure:"initial_cash" yaml:"initial_cash"`
	// IntervalMinutes > 0 时进程常驻并按该间隔循环执行周期；
	// 为 0 则单次执行后退出（配合 cron 调度）。
	IntervalMinutes int `mapstructure:"interval_minutes" yaml:"interval_minutes"`
}

type StoreConfig struct {
	StatePath    string `mapstructure:"state_path" yaml:"state_path"`
	CycleLogPath string `mapstructure:"cycle_log_path" yaml:"cycle_log_path"`
}
