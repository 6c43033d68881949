package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Services  ServicesConfig  `mapstructure:"services"`
	Plan      PlanConfig      `mapstructure:"plan"`
	Quiz      QuizConfig      `mapstructure:"quiz"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// ServicesConfig 下游协作服务的访问配置
type ServicesConfig struct {
	Retrieval    ServiceEndpoint `mapstructure:"retrieval"`
	ContentStore ServiceEndpoint `mapstructure:"content_store"`
	QuizGen      ServiceEndpoint `mapstructure:"quiz_gen"`
	Skills       ServiceEndpoint `mapstructure:"skills"`
}

type ServiceEndpoint struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (e ServiceEndpoint) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

type PlanConfig struct {
	RetrievalTopK   int `mapstructure:"retrieval_top_k"`
	MaxConcurrency  int `mapstructure:"max_concurrency"`
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes"`
}

type QuizConfig struct {
	DefaultQuestions int `mapstructure:"default_questions"`
	PerResourceCap   int `mapstructure:"per_resource_cap"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("LEARNPATH")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// 下游服务
	viper.BindEnv("services.retrieval.base_url", "RETRIEVAL_BASE_URL")
	viper.BindEnv("services.retrieval.api_key", "RETRIEVAL_API_KEY")
	viper.BindEnv("services.content_store.base_url", "CONTENT_STORE_BASE_URL")
	viper.BindEnv("services.content_store.api_key", "CONTENT_STORE_API_KEY")
	viper.BindEnv("services.quiz_gen.base_url", "QUIZ_GEN_BASE_URL")
	viper.BindEnv("services.quiz_gen.api_key", "QUIZ_GEN_API_KEY")
	viper.BindEnv("services.skills.base_url", "SKILLS_BASE_URL")
	viper.BindEnv("services.skills.api_key", "SKILLS_API_KEY")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Plan.RetrievalTopK <= 0 {
		cfg.Plan.RetrievalTopK = 10
	}
	if cfg.Plan.MaxConcurrency <= 0 {
		cfg.Plan.MaxConcurrency = 8
	}
	if cfg.Plan.CacheTTLMinutes <= 0 {
		cfg.Plan.CacheTTLMinutes = 15
	}
	if cfg.Quiz.DefaultQuestions <= 0 {
		cfg.Quiz.DefaultQuestions = 5
	}
	if cfg.Quiz.PerResourceCap <= 0 {
		cfg.Quiz.PerResourceCap = 2
	}

	return &cfg, nil
}
