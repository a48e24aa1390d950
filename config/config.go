package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件路径
const DefaultPath = "config.yaml"

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Addr string `yaml:"-"` // 不从配置文件读取，而是在加载后计算
	} `yaml:"server"`
	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Output   string `yaml:"output"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`

	// DB 实体库（Users / Restaurant 表，保存 state_id）
	DB struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Database        string `yaml:"database"`
		Charset         string `yaml:"charset"`
		ParseTime       bool   `yaml:"parse_time"`
		DSN             string `yaml:"-"`                 // 不从配置文件读取，而是在加载后计算
		MaxOpenConns    int    `yaml:"max_open_conns"`    // 最大打开连接数
		MaxIdleConns    int    `yaml:"max_idle_conns"`    // 最大空闲连接数
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 连接最大生命周期（分钟）
		UserTable       string `yaml:"user_table"`
		RestaurantTable string `yaml:"restaurant_table"`
	} `yaml:"database"`

	// Mongo 文档库（关键词画像 + 分数缓存）
	Mongo struct {
		URI                string `yaml:"-"` // 只从环境变量 MONGO_URI 读取
		Database           string `yaml:"database"`
		UserKeywords       string `yaml:"user_keywords"`
		RestaurantKeywords string `yaml:"restaurant_keywords"`
		ScoreCache         string `yaml:"score_cache"`
		ConnectTimeoutSec  int    `yaml:"connect_timeout_sec"`
		MaxPoolSize        uint64 `yaml:"max_pool_size"`
		SelectTimeoutSec   int    `yaml:"server_select_timeout_sec"`
	} `yaml:"mongo"`

	Scoring struct {
		Threshold         float64 `yaml:"threshold"`           // 关键词匹配的最低余弦相似度
		SkewBase          float64 `yaml:"skew_base"`           // 对数拉伸底数，1 表示不拉伸
		Dimension         int     `yaml:"dimension"`           // embedding 维度
		PrimeMin          int64   `yaml:"prime_min"`           // state_id 素数下界（含）
		PrimeMax          int64   `yaml:"prime_max"`           // state_id 素数上界（不含）
		MillerRabinRounds int     `yaml:"miller_rabin_rounds"` // 素性测试轮数
		BatchConcurrency  int     `yaml:"batch_concurrency"`   // 批量打分并发上限
	} `yaml:"scoring"`

	Cron struct {
		Hour        int `yaml:"hour"`        // 每天预热缓存的小时（0-23）
		Minute      int `yaml:"minute"`      // 每天预热缓存的分钟（0-59）
		Concurrency int `yaml:"concurrency"` // 预热时的用户并发数
	} `yaml:"cron"`
	Prewarm struct {
		Enabled        bool `yaml:"enabled"`
		MaxUsers       int  `yaml:"max_users"`
		MaxRestaurants int  `yaml:"max_restaurants"`
	} `yaml:"prewarm"`
	Timeouts struct {
		RequestSec  int `yaml:"request_sec"`  // 请求超时，单位：秒
		ResponseSec int `yaml:"response_sec"` // 响应超时，单位：秒
		IdleSec     int `yaml:"idle_sec"`     // 空闲超时，单位：秒
	} `yaml:"timeouts"`
	Debug struct {
		Enabled     bool `yaml:"enabled"`      // 是否启用debug模式
		IntervalSec int  `yaml:"interval_sec"` // debug模式下预热间隔，单位：秒
	} `yaml:"debug"`
	Scheduler struct {
		CheckIntervalSec int `yaml:"check_interval_sec"` // 调度器检查间隔（秒）
		DefaultHour      int `yaml:"default_hour"`       // 默认执行小时
		DefaultMinute    int `yaml:"default_minute"`     // 默认执行分钟
	} `yaml:"scheduler"`
}

// Load 读取配置文件；path 为空时使用 DefaultPath
func Load(path string) *Config {
	// 首先尝试加载.env文件中的环境变量
	_ = godotenv.Load() // 忽略错误，如果.env文件不存在，继续使用系统环境变量

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// 如果配置文件不存在，则完全从环境变量加载配置
		return loadFromEnv()
	}

	cfg, err := Parse(data)
	if err != nil {
		log.Printf("Error loading %s: %v, falling back to environment variables", path, err)
		return loadFromEnv()
	}
	log.Printf("Loading configuration from %s", path)
	return cfg
}

// Parse 解析yaml内容，叠加环境变量并补齐默认值
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// 从环境变量中加载敏感信息和用户名
	if envUsername := os.Getenv("DATABASE_USERNAME"); envUsername != "" {
		cfg.DB.Username = envUsername
	}
	if envPassword := os.Getenv("DATABASE_PASSWORD"); envPassword != "" {
		cfg.DB.Password = envPassword
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	cfg.Mongo.URI = os.Getenv("MONGO_URI")

	cfg.applyDefaults()
	return &cfg, nil
}

func loadFromEnv() *Config {
	// 当配置文件加载失败时，创建一个最小配置
	var cfg Config

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	cfg.DB.Username = os.Getenv("DATABASE_USERNAME")
	cfg.DB.Password = os.Getenv("DATABASE_PASSWORD")
	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.Mongo.URI = os.Getenv("MONGO_URI")

	cfg.applyDefaults()
	log.Println("配置从环境变量加载，部分配置可能缺失")
	return &cfg
}

// applyDefaults 为未配置的字段补默认值，并计算 Addr / DSN
func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	c.Server.Addr = fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)

	if c.DB.Charset == "" {
		c.DB.Charset = "utf8mb4"
	}
	if c.DB.UserTable == "" {
		c.DB.UserTable = "Users"
	}
	if c.DB.RestaurantTable == "" {
		c.DB.RestaurantTable = "Restaurant"
	}
	if c.DB.DSN == "" && c.DB.Host != "" {
		parseTime := ""
		if c.DB.ParseTime {
			parseTime = "&parseTime=true"
		}
		c.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s%s",
			c.DB.Username,
			c.DB.Password,
			c.DB.Host,
			c.DB.Port,
			c.DB.Database,
			c.DB.Charset,
			parseTime)
	}

	if c.Mongo.Database == "" {
		c.Mongo.Database = "customer_info"
	}
	if c.Mongo.UserKeywords == "" {
		c.Mongo.UserKeywords = "user_keywords"
	}
	if c.Mongo.RestaurantKeywords == "" {
		c.Mongo.RestaurantKeywords = "restaurant_keywords"
	}
	if c.Mongo.ScoreCache == "" {
		c.Mongo.ScoreCache = "score_cache"
	}
	if c.Mongo.ConnectTimeoutSec <= 0 {
		c.Mongo.ConnectTimeoutSec = 10
	}

	if c.Scoring.Threshold <= 0 {
		c.Scoring.Threshold = 0.5
	}
	if c.Scoring.SkewBase <= 0 {
		c.Scoring.SkewBase = 15
	}
	if c.Scoring.Dimension <= 0 {
		c.Scoring.Dimension = 1536 // text-embedding-3-small
	}
	if c.Scoring.PrimeMin <= 0 {
		c.Scoring.PrimeMin = 1000
	}
	if c.Scoring.PrimeMax <= c.Scoring.PrimeMin {
		c.Scoring.PrimeMax = 10000
	}
	if c.Scoring.MillerRabinRounds < 10 {
		c.Scoring.MillerRabinRounds = 16
	}
	if c.Scoring.BatchConcurrency <= 0 {
		c.Scoring.BatchConcurrency = 8
	}

	if c.Cron.Concurrency <= 0 {
		c.Cron.Concurrency = 4
	}
	if c.Prewarm.MaxUsers <= 0 {
		c.Prewarm.MaxUsers = 500
	}
	if c.Prewarm.MaxRestaurants <= 0 {
		c.Prewarm.MaxRestaurants = 200
	}
	if c.Timeouts.RequestSec <= 0 {
		c.Timeouts.RequestSec = 30
	}
	if c.Debug.IntervalSec <= 0 {
		c.Debug.IntervalSec = 1800
	}
	if c.Scheduler.CheckIntervalSec <= 0 {
		c.Scheduler.CheckIntervalSec = 60
	}
}

// Default 返回只包含默认值的配置，测试和 --memory 模式使用
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}
