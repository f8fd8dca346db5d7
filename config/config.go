package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // 容器镜像可能缺少系统时区库

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Study    StudyConfig    `mapstructure:"study"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 打卡类接口限流配置
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr              string        `mapstructure:"addr"`
	Password          string        `mapstructure:"password"`
	DB                int           `mapstructure:"db"`
	MandatoryCacheTTL time.Duration `mapstructure:"mandatory_cache_ttl"`
}

// AuthConfig JWT 认证配置（Token 由外部认证服务签发，本服务只负责校验）
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StudyConfig 自习室运营策略（学习日边界、宽限期、自动扣分）
type StudyConfig struct {
	Timezone                string        `mapstructure:"timezone"`
	DayStart                string        `mapstructure:"day_start"`   // HH:MM，学习日开始
	DayCutover              string        `mapstructure:"day_cutover"` // HH:MM，次日凌晨的切换点
	WeekStart               int           `mapstructure:"week_start"`  // 0=周日 … 6=周六
	GracePeriodMinutes      int           `mapstructure:"grace_period_minutes"`
	DefaultBufferMinutes    int           `mapstructure:"default_buffer_minutes"`
	LatePenaltyPoints       int           `mapstructure:"late_penalty_points"`
	LatePenaltyReason       string        `mapstructure:"late_penalty_reason"`
	EarlyLeavePenaltyPoints int           `mapstructure:"early_leave_penalty_points"`
	EarlyLeavePenaltyReason string        `mapstructure:"early_leave_penalty_reason"`
	TaskConcurrency         int           `mapstructure:"task_concurrency"`
	TaskTimeout             time.Duration `mapstructure:"task_timeout"`
}

// Location 解析机构所在时区
func (c *StudyConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit.limit", 20)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "study_hub")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Seoul")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.mandatory_cache_ttl", "10m")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("study.timezone", "Asia/Seoul")
	v.SetDefault("study.day_start", "07:30")
	v.SetDefault("study.day_cutover", "01:30")
	v.SetDefault("study.week_start", 1)
	v.SetDefault("study.grace_period_minutes", 10)
	v.SetDefault("study.default_buffer_minutes", 10)
	v.SetDefault("study.late_penalty_points", 1)
	v.SetDefault("study.late_penalty_reason", "지각 (자동)")
	v.SetDefault("study.early_leave_penalty_points", 1)
	v.SetDefault("study.early_leave_penalty_reason", "조퇴 (자동)")
	v.SetDefault("study.task_concurrency", 8)
	v.SetDefault("study.task_timeout", "30s")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("STUDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	return c.Study.Validate()
}

// Validate 校验学习日与扣分策略
func (c *StudyConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("配置校验失败: study.timezone 无效: %w", err)
	}
	for key, val := range map[string]string{
		"study.day_start":   c.DayStart,
		"study.day_cutover": c.DayCutover,
	} {
		if _, err := time.Parse("15:04", val); err != nil {
			return fmt.Errorf("配置校验失败: %s 必须为 HH:MM 格式", key)
		}
	}
	if c.WeekStart < 0 || c.WeekStart > 6 {
		return fmt.Errorf("配置校验失败: study.week_start 必须在 0-6 之间")
	}
	if c.GracePeriodMinutes < 0 || c.DefaultBufferMinutes < 0 {
		return fmt.Errorf("配置校验失败: 宽限期与缓冲分钟数不能为负")
	}
	if c.TaskConcurrency <= 0 {
		return fmt.Errorf("配置校验失败: study.task_concurrency 必须大于 0")
	}
	return nil
}
