// Package futugw provides a MarketRepository backed by a local streaming
// market-data gateway speaking JSON-RPC over websocket.
package futugw

import (
	"fmt"
	"os"
	"time"
)

// Config holds configuration for the gateway connection.
type Config struct {
	Host    string        // Gateway host (e.g. "127.0.0.1")
	Port    string        // Gateway port (e.g. "11111")
	Timeout time.Duration // Per-request timeout including dial
}

// LoadConfig loads gateway configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Host:    os.Getenv("FUTU_HOST"),
		Port:    os.Getenv("FUTU_PORT"),
		Timeout: 15 * time.Second,
	}
}

// Validate は必須項目が揃っているかを検証します。
// ゲートウェイはローカル常駐プロセスなので、未設定は起動時エラーにします。
func (c Config) Validate() error {
	if c.Host == "" || c.Port == "" {
		return fmt.Errorf("futugw: FUTU_HOST and FUTU_PORT are required")
	}
	return nil
}

// URL はwebsocket接続先URLを返します。
func (c Config) URL() string {
	return fmt.Sprintf("ws://%s:%s/", c.Host, c.Port)
}
