// Package yahoo provides a MarketRepository backed by the public Yahoo
// Finance chart JSON endpoint.
package yahoo

import (
	"os"
	"time"
)

// defaultBaseURL は公開チャートAPIのエンドポイントです。
const defaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds configuration for the Yahoo Finance chart client.
type Config struct {
	BaseURL string        // Base URL for the API
	Timeout time.Duration // HTTP request timeout
}

// LoadConfig loads Yahoo Finance configuration from environment variables.
func LoadConfig() Config {
	base := os.Getenv("YAHOO_BASE_URL")
	if base == "" {
		base = defaultBaseURL
	}
	return Config{
		BaseURL: base,
		Timeout: 10 * time.Second,
	}
}
