package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// プロバイダー識別子
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// ストレージドライバー
const (
	StorageMySQL  = "mysql"
	StorageSQLite = "sqlite"
)

// Config アプリケーション全体の設定
type Config struct {
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
}

// OpenAIConfig OpenAI APIの設定
type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	Endpoint  string `yaml:"endpoint"`
}

// GeminiConfig Google Gemini APIの設定
type GeminiConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
}

// AnthropicConfig Anthropic APIの設定
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	Endpoint  string `yaml:"endpoint"`
}

// AnalysisConfig デュアル解析の設定
type AnalysisConfig struct {
	// Providers 並列に呼び出すプロバイダー（2つ）
	Providers              []string `yaml:"providers"`
	ProviderTimeoutSeconds int      `yaml:"provider_timeout_seconds"`
	CacheTTLHours          int      `yaml:"cache_ttl_hours"`
}

// AuthConfig 認証トークンの設定
type AuthConfig struct {
	JWTSecret                string `yaml:"jwt_secret"`
	JWTAlgorithm             string `yaml:"jwt_algorithm"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes"`
}

// StorageConfig 解析結果ストレージの設定
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQLの設定
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	// ファイルに書かれていない項目はデフォルト値を維持する
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	// Redis/MySQLのホストはテスト環境では localhost を使用
	redisHost := "redis"
	mysqlHost := "mysql"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
		mysqlHost = "localhost"
	}

	algorithm := os.Getenv("JWT_ALGORITHM")
	if algorithm == "" {
		algorithm = "HS256"
	}

	expireMinutes := 30
	if v, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")); err == nil && v > 0 {
		expireMinutes = v
	}

	return &Config{
		OpenAI: OpenAIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     "gpt-4o-mini",
			MaxTokens: 1024,
			Endpoint:  "https://api.openai.com/v1/chat/completions",
		},
		Gemini: GeminiConfig{
			APIKey:   os.Getenv("GEMINI_API_KEY"),
			Model:    "gemini-2.0-flash",
			Endpoint: "https://generativelanguage.googleapis.com/v1beta/models",
		},
		Anthropic: AnthropicConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 1024,
			Endpoint:  "https://api.anthropic.com/v1/messages",
		},
		Analysis: AnalysisConfig{
			Providers:              []string{ProviderOpenAI, ProviderGemini},
			ProviderTimeoutSeconds: 60,
			CacheTTLHours:          24,
		},
		Auth: AuthConfig{
			JWTSecret:                os.Getenv("JWT_SECRET"),
			JWTAlgorithm:             algorithm,
			AccessTokenExpireMinutes: expireMinutes,
		},
		Storage: StorageConfig{
			Driver:     StorageMySQL,
			SQLitePath: "currency.db",
		},
		Redis: RedisConfig{
			Enabled:  true,
			Host:     redisHost,
			Port:     6379,
			Password: "",
			DB:       0,
		},
		MySQL: MySQLConfig{
			Host:     mysqlHost,
			Port:     3306,
			User:     "root",
			Password: os.Getenv("MYSQL_ROOT_PASSWORD"),
			Database: "currency_recognition",
		},
	}
}

// Validate 設定値の整合性を検証する
func (c *Config) Validate() error {
	if len(c.Analysis.Providers) != 2 {
		return fmt.Errorf("analysis.providers must list exactly 2 providers, got %d", len(c.Analysis.Providers))
	}
	if c.Analysis.Providers[0] == c.Analysis.Providers[1] {
		return fmt.Errorf("analysis.providers must be distinct: %s", c.Analysis.Providers[0])
	}
	for _, name := range c.Analysis.Providers {
		switch name {
		case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		default:
			return fmt.Errorf("unknown provider: %s", name)
		}
	}

	if c.Analysis.ProviderTimeoutSeconds <= 0 {
		return errors.New("analysis.provider_timeout_seconds must be positive")
	}

	switch c.Storage.Driver {
	case StorageMySQL:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	switch c.Auth.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported jwt algorithm: %s", c.Auth.JWTAlgorithm)
	}

	return nil
}

// ProviderTimeout プロバイダー呼び出し1回あたりのタイムアウト
func (a AnalysisConfig) ProviderTimeout() time.Duration {
	return time.Duration(a.ProviderTimeoutSeconds) * time.Second
}

// CacheTTL 構造化結果をキャッシュする期間
func (a AnalysisConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLHours) * time.Hour
}

// AccessTokenTTL アクセストークンの有効期間
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

// Save 設定をファイルに保存する
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
