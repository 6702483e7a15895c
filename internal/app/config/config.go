package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 存储/会话后端
const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lmstfy    LmstfyConfig    `mapstructure:"lmstfy"`
	Consumer  ConsumerConfig  `mapstructure:"consumer"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Ranker    RankerConfig    `mapstructure:"ranker"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Session   SessionConfig   `mapstructure:"session"`
	Intent    IntentConfig    `mapstructure:"intent"`
	Predictor PredictorConfig `mapstructure:"predictor"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	NodeID   int64  `mapstructure:"node_id"`
}

type ServerConfig struct {
	Port            string          `mapstructure:"port"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 按客户端 IP 的令牌桶限流
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// StorageConfig 订单与事件日志的存储后端（memory / mysql）
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LmstfyConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Namespace     string `mapstructure:"namespace"`
	Token         string `mapstructure:"token"`
	ShortageQueue string `mapstructure:"shortage_queue"`
	NotifyQueue   string `mapstructure:"notify_queue"`
}

// ConsumerConfig 拣货缺货事件消费配置
type ConsumerConfig struct {
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时（长轮询）
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// PolicyConfig 缺货决策策略
type PolicyConfig struct {
	AcceptThreshold float64 `mapstructure:"accept_threshold"`
	MaxReplacements int     `mapstructure:"max_replacements"`
}

// RankerConfig 候选排序
type RankerConfig struct {
	ModelPath        string        `mapstructure:"model_path"`
	CatalogPath      string        `mapstructure:"catalog_path"`
	DefaultK         int           `mapstructure:"default_k"`
	InventoryTimeout time.Duration `mapstructure:"inventory_timeout"`
	Watch            bool          `mapstructure:"watch"`
}

// BatchConfig 主动决策批处理
type BatchConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

// SessionConfig 会话存储
type SessionConfig struct {
	Backend       string        `mapstructure:"backend"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	DeleteGrace   time.Duration `mapstructure:"delete_grace"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

// IntentConfig 意图解析服务
type IntentConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PredictorConfig 缺货预测服务
type PredictorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// setDefaults 所有可调参数的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fulfilment")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.node_id", 1)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rps", 50.0)
	v.SetDefault("server.rate_limit.burst", 100)

	v.SetDefault("storage.backend", BackendMemory)

	v.SetDefault("lmstfy.port", 7777)
	v.SetDefault("lmstfy.namespace", "fulfilment")
	v.SetDefault("lmstfy.shortage_queue", "pick_shortage")
	v.SetDefault("lmstfy.notify_queue", "customer_notify")

	v.SetDefault("consumer.subscriber.threads", 2)
	v.SetDefault("consumer.subscriber.timeout", 3*time.Second)
	v.SetDefault("consumer.subscriber.ttr", 30*time.Second)
	v.SetDefault("consumer.subscriber.error_backoff", time.Second)
	v.SetDefault("consumer.processor.threads", 4)
	v.SetDefault("consumer.processor.buffer_size", 16)
	v.SetDefault("consumer.processor.timeout", 10*time.Second)

	v.SetDefault("policy.accept_threshold", 0.5)
	v.SetDefault("policy.max_replacements", 3)

	v.SetDefault("ranker.default_k", 5)
	v.SetDefault("ranker.inventory_timeout", 300*time.Millisecond)
	v.SetDefault("ranker.watch", false)

	v.SetDefault("batch.parallelism", 8)

	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.delete_grace", time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.key_prefix", "session:")

	v.SetDefault("intent.timeout", 2*time.Second)
	v.SetDefault("predictor.timeout", 2*time.Second)
}

// Load 从配置文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	return unmarshal(v)
}

// LoadDefault 加载默认配置文件路径
func LoadDefault() (*Config, error) {
	return Load("config/config.yaml")
}

// Default 仅包含默认值的配置（不读文件）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		// 默认值均为合法类型，不会失败
		panic(err)
	}
	return cfg
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置完整性
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendMySQL:
		if c.MySQL.DSN == "" {
			return fmt.Errorf("mysql.dsn is required when storage.backend is mysql")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when session.backend is redis")
		}
	default:
		return fmt.Errorf("unknown session.backend %q", c.Session.Backend)
	}

	if c.Lmstfy.Enabled {
		if c.Lmstfy.Host == "" {
			return fmt.Errorf("lmstfy.host is required")
		}
		if c.Lmstfy.Token == "" {
			return fmt.Errorf("lmstfy.token is required")
		}
	}

	if c.Policy.AcceptThreshold < 0 || c.Policy.AcceptThreshold > 1 {
		return fmt.Errorf("policy.accept_threshold must be within [0,1]")
	}
	if c.Policy.MaxReplacements < 1 {
		return fmt.Errorf("policy.max_replacements must be at least 1")
	}
	if c.Ranker.DefaultK < 1 {
		return fmt.Errorf("ranker.default_k must be at least 1")
	}
	if c.Batch.Parallelism < 1 {
		return fmt.Errorf("batch.parallelism must be at least 1")
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("session.idle_ttl must be positive")
	}
	return nil
}
