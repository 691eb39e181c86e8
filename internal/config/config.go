package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Port            string
	DBDriver        string // sqlite 或 pgx
	DBPath          string
	DBDSN           string
	JWTSecret       string
	PollInterval    time.Duration // 快照轮询周期
	InitialZoom     int           // 地图初始缩放级别
	UpstreamURL     string        // 为空时读取本地消息库
	UpstreamTimeout time.Duration
	NetworkName     string
	RateLimit       int // 每分钟每个 IP 的请求数
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:            getString("PORT", ":8080"),
		DBDriver:        strings.ToLower(getString("DB_DRIVER", "sqlite")),
		DBPath:          getString("DB_PATH", "./data/messages.db"),
		DBDSN:           os.Getenv("DB_DSN"),
		JWTSecret:       getString("JWT_SECRET", "your-secret-key-change-in-production"),
		PollInterval:    getDuration("POLL_INTERVAL", 2*time.Second),
		InitialZoom:     getInt("INITIAL_ZOOM", 13),
		UpstreamURL:     strings.TrimSpace(os.Getenv("UPSTREAM_URL")),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 4*time.Second),
		NetworkName:     getString("NETWORK_NAME", "skAiNet"),
		RateLimit:       getInt("RATE_LIMIT", 600),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// 非法值回退到默认值
func getInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

// 支持 "2s" 这样的时长，也支持纯数字秒数
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}
