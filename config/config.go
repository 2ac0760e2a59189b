package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Lock     LockConfig     `mapstructure:"lock"`
	Import   ImportConfig   `mapstructure:"import"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"` // 普通 JSON 接口请求体上限
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"` // 会话时区（IANA 名称），为空时使用数据库默认值
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
//
// 时间列为 TIMESTAMPTZ，读回的时间点与会话时区无关，由驱动转换为服务器本地时区。
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
	if c.Timezone != "" {
		dsn += " TimeZone=" + c.Timezone
	}
	return dsn
}

// RedisConfig Redis 配置（用于多实例部署下的用户级打卡锁）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig Bearer Token 校验配置
//
// Token 由外部身份提供方签发，本服务只负责校验与解析 owner 标识。
type AuthConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DevIdentity   string        `mapstructure:"dev_identity"`   // 关闭认证时使用的固定身份
	SigningMethod string        `mapstructure:"signing_method"` // HS256 | RS256
	JWTSecret     string        `mapstructure:"jwt_secret"`
	PublicKeyFile string        `mapstructure:"public_key_file"`
	Issuer        string        `mapstructure:"issuer"`
	Audience      string        `mapstructure:"audience"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"` // 仅用于本地开发签发
}

// LockConfig 用户级打卡锁配置
type LockConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Wait time.Duration `mapstructure:"wait"`
}

// ImportConfig CSV 导入限制
type ImportConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
	MaxRows     int   `mapstructure:"max_rows"`
	MaxErrors   int   `mapstructure:"max_errors"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5001", "https://localhost:5001", "http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "timeclock")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.dev_identity", "dev-user")
	v.SetDefault("auth.signing_method", "HS256")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.public_key_file", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.token_ttl", "8h")

	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("lock.wait", "3s")

	v.SetDefault("import.max_file_size", 10*1024*1024)
	v.SetDefault("import.max_rows", 10000)
	v.SetDefault("import.max_errors", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)

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
	v.SetEnvPrefix("TIMECLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
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
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Auth.Enabled {
		switch strings.ToUpper(c.Auth.SigningMethod) {
		case "HS256":
			if len(c.Auth.JWTSecret) < 16 {
				return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
			}
		case "RS256":
			if c.Auth.PublicKeyFile == "" {
				return fmt.Errorf("配置校验失败: RS256 模式下 auth.public_key_file 不能为空")
			}
		default:
			return fmt.Errorf("配置校验失败: 不支持的 auth.signing_method %q", c.Auth.SigningMethod)
		}
	} else if strings.TrimSpace(c.Auth.DevIdentity) == "" {
		return fmt.Errorf("配置校验失败: 关闭认证时 auth.dev_identity 不能为空")
	}
	if c.Import.MaxFileSize <= 0 || c.Import.MaxRows <= 0 || c.Import.MaxErrors <= 0 {
		return fmt.Errorf("配置校验失败: import 限制必须为正数")
	}
	return nil
}
