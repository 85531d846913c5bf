package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Bayes struct {
		StatePath       string   `yaml:"state_path"`
		DefaultAlpha    float64  `yaml:"default_alpha"`
		DefaultBeta     float64  `yaml:"default_beta"`
		UpdateStrength  float64  `yaml:"update_strength"`
		PriorCap        float64  `yaml:"prior_cap"`
		Signals         []string `yaml:"signals"`
		PriorUpdateMode string   `yaml:"prior_update_mode"` // flat | confidence
		ConfidenceGain  float64  `yaml:"confidence_gain"`
	} `yaml:"bayes"`
	Weights struct {
		StatePath string  `yaml:"state_path"`
		Alpha     float64 `yaml:"alpha"`
		Beta      float64 `yaml:"beta"`
		MinWeight float64 `yaml:"min_weight"`
	} `yaml:"weights"`
	Policy struct {
		BaseBuy        float64 `yaml:"base_buy"`
		VolSensitivity float64 `yaml:"vol_sensitivity"`
		DriftPenalty   float64 `yaml:"drift_penalty"`
		MinTradeConf   float64 `yaml:"min_trade_conf"`
	} `yaml:"policy"`
	Regime struct {
		VolWindow      int           `yaml:"vol_window"`
		ZWindow        int           `yaml:"z_window"`
		MaxHistory     int           `yaml:"max_history"`
		DriftThreshold float64       `yaml:"drift_threshold"`
		VolExpiry      time.Duration `yaml:"vol_expiry"`
	} `yaml:"regime"`
	Stream struct {
		URL            string        `yaml:"url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		OutcomesTopic string   `yaml:"outcomes_topic"`
		UpdatesTopic  string   `yaml:"updates_topic"`
		LogsTopic     string   `yaml:"logs_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled      bool   `yaml:"enabled"`
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Password     string `yaml:"password"`
		DB           int    `yaml:"db"`
		Prefix       string `yaml:"prefix"`
		QueueEnabled bool   `yaml:"queue_enabled"`
		QueueWorkers int    `yaml:"queue_workers"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STREAM_URL"); v != "" {
		c.Stream.URL = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Stream.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_OUTCOMES_TOPIC"); v != "" {
		c.Kafka.OutcomesTopic = v
	}
	if v := os.Getenv("KAFKA_LOGS_TOPIC"); v != "" {
		c.Kafka.LogsTopic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("BAYES_STATE_PATH"); v != "" {
		c.Bayes.StatePath = v
	}
	if v := os.Getenv("WEIGHTS_STATE_PATH"); v != "" {
		c.Weights.StatePath = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Bayes.StatePath == "" {
		c.Bayes.StatePath = "data/bayes_state.json"
	}
	if c.Weights.StatePath == "" {
		c.Weights.StatePath = "data/weights_state.json"
	}
	if len(c.Bayes.Signals) == 0 {
		c.Bayes.Signals = []string{"kf_trend", "ou_revert", "stoch_momo"}
	}
	if c.Bayes.PriorUpdateMode == "" {
		c.Bayes.PriorUpdateMode = "flat"
	}
	if c.Policy.BaseBuy == 0 {
		c.Policy.BaseBuy = 0.65
	}
	if c.Policy.MinTradeConf == 0 {
		c.Policy.MinTradeConf = 0.56
	}
	if c.Regime.VolWindow == 0 {
		c.Regime.VolWindow = 50
	}
	if c.Regime.ZWindow == 0 {
		c.Regime.ZWindow = 100
	}
	if c.Regime.MaxHistory == 0 {
		c.Regime.MaxHistory = 600
	}
	if c.Regime.VolExpiry == 0 {
		c.Regime.VolExpiry = 2 * time.Minute
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = 5 * time.Second
	}
	if c.ClickHouse.Table == "" {
		c.ClickHouse.Table = "trade_outcomes"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "goldpulse"
	}
	if c.Redis.QueueWorkers <= 0 {
		c.Redis.QueueWorkers = 2
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Bayes.PriorUpdateMode != "flat" && c.Bayes.PriorUpdateMode != "confidence" {
		return fmt.Errorf("bayes.prior_update_mode must be 'flat' or 'confidence', got '%s'", c.Bayes.PriorUpdateMode)
	}
	if c.Policy.BaseBuy <= 0.5 || c.Policy.BaseBuy >= 1 {
		return fmt.Errorf("policy.base_buy must lie in (0.5, 1), got %v", c.Policy.BaseBuy)
	}
	if c.Policy.MinTradeConf <= 0.5 || c.Policy.MinTradeConf >= 1 {
		return fmt.Errorf("policy.min_trade_conf must lie in (0.5, 1), got %v", c.Policy.MinTradeConf)
	}
	if c.Stream.URL != "" && len(c.Stream.Symbols) == 0 {
		return fmt.Errorf("stream.symbols cannot be empty when stream.url is set")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.OutcomesTopic == "" {
			return fmt.Errorf("kafka.outcomes_topic is required when kafka is enabled")
		}
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	return nil
}
