// Package eastmoney provides a MarketRepository backed by the Eastmoney
// public quote gateway, including the US instrument directory it needs
// for secid resolution.
package eastmoney

import (
	"os"
	"time"
)

const (
	// defaultKlineBaseURL はローソク足エンドポイントのベースURLです。
	defaultKlineBaseURL = "https://push2his.eastmoney.com"
	// defaultDirectoryBaseURL は銘柄ディレクトリエンドポイントのベースURLです。
	defaultDirectoryBaseURL = "https://push2.eastmoney.com"
)

// Config holds configuration for the Eastmoney gateway client.
type Config struct {
	KlineBaseURL     string        // Base URL for the kline endpoint
	DirectoryBaseURL string        // Base URL for the instrument directory endpoint
	CacheDir         string        // Directory for the US directory cache file
	Timeout          time.Duration // HTTP request timeout (the gateway is slow)
}

// LoadConfig loads Eastmoney configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		KlineBaseURL:     os.Getenv("EASTMONEY_BASE_URL"),
		DirectoryBaseURL: os.Getenv("EASTMONEY_DIRECTORY_BASE_URL"),
		CacheDir:         os.Getenv("CACHE_DIR"),
		Timeout:          60 * time.Second,
	}
	if cfg.KlineBaseURL == "" {
		cfg.KlineBaseURL = defaultKlineBaseURL
	}
	if cfg.DirectoryBaseURL == "" {
		cfg.DirectoryBaseURL = defaultDirectoryBaseURL
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "data"
	}
	return cfg
}
