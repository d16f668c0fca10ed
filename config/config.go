package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 缓存配置
	CacheType              string `mapstructure:"cache_type"`
	CacheRedisAddr         string `mapstructure:"cache_redis_addr"`
	CacheRedisPassword     string `mapstructure:"cache_redis_password"`
	CacheRedisDB           int    `mapstructure:"cache_redis_db"`
	CacheMetaTTL           int    `mapstructure:"cache_meta_ttl"`
	CacheObjectDataTTL     int    `mapstructure:"cache_object_data_ttl"`
	CacheMaxObjectSizeKB   int64  `mapstructure:"cache_max_object_size_kb"`
	CacheEnableDataCaching bool   `mapstructure:"cache_enable_data_caching"`

	// 上传配置
	UploadMaxSizeMB int `mapstructure:"upload_max_size_mb"`

	// 限流配置
	RateLimitApiRPS      float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst    int           `mapstructure:"rate_limit_api_burst"`
	RateLimitObjectRPS   float64       `mapstructure:"rate_limit_object_rps"`
	RateLimitObjectBurst int           `mapstructure:"rate_limit_object_burst"`
	RateLimitAuthRPS     float64       `mapstructure:"rate_limit_auth_rps"`
	RateLimitAuthBurst   int           `mapstructure:"rate_limit_auth_burst"`
	RateLimitExpireTime  time.Duration `mapstructure:"rate_limit_expire_time"`

	// JWT 配置
	JwtSecret    string        `mapstructure:"jwt_secret"`
	JwtExpiresIn time.Duration `mapstructure:"jwt_expires_in"`

	// 管理员账号配置
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`

	// 对象镜像（S3 兼容存储）配置
	MirrorEndpoint  string `mapstructure:"mirror_endpoint"`
	MirrorAccessKey string `mapstructure:"mirror_access_key"`
	MirrorSecretKey string `mapstructure:"mirror_secret_key"`
	MirrorBucket    string `mapstructure:"mirror_bucket"`
	MirrorUseSSL    bool   `mapstructure:"mirror_use_ssl"`
	MirrorWorkers   int    `mapstructure:"mirror_workers"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	} else {
		fmt.Fprintln(os.Stderr, "Info: Loaded configuration from .env file")
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "folio")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	// 缓存配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_meta_ttl", 3600)
	viper.SetDefault("cache_object_data_ttl", 3600)
	viper.SetDefault("cache_max_object_size_kb", 1024)
	viper.SetDefault("cache_enable_data_caching", true)

	// 上传配置默认值（对象存储子系统的硬上限）
	viper.SetDefault("upload_max_size_mb", 5)

	// 限流配置默认值
	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_object_rps", 100.0)
	viper.SetDefault("rate_limit_object_burst", 200)
	viper.SetDefault("rate_limit_auth_rps", 0.5)
	viper.SetDefault("rate_limit_auth_burst", 5)
	viper.SetDefault("rate_limit_expire_time", "10m")

	// JWT 配置默认值
	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("jwt_expires_in", "2h")

	// 管理员账号默认值
	viper.SetDefault("admin_username", "admin")
	viper.SetDefault("admin_password", "")

	// 对象镜像默认值
	viper.SetDefault("mirror_endpoint", "")
	viper.SetDefault("mirror_access_key", "")
	viper.SetDefault("mirror_secret_key", "")
	viper.SetDefault("mirror_bucket", "folio-objects")
	viper.SetDefault("mirror_use_ssl", true)
	viper.SetDefault("mirror_workers", 4)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成对象链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return c.ServerDomain
	}
	host := c.ServerHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// MaxUploadBytes 返回单个上传负载的字节上限
func (c *Config) MaxUploadBytes() int64 {
	mb := c.UploadMaxSizeMB
	if mb <= 0 {
		mb = 5
	}
	return int64(mb) << 20
}
