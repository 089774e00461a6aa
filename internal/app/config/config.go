// Package config はアプリケーション全体の設定を環境変数からロードします。
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はサーバープロセス全体の設定です。
// アダプタ固有の設定（接続先ホストなど）は各アダプタのLoadConfigが持ちます。
type Config struct {
	Addr       string // HTTPリッスンアドレス
	DataSource string // 上流データソースタグ ("futu" / "yahoo" / "eastmoney")

	CacheDSN    string        // ローソク足キャッシュ（"redis://..." または CSVディレクトリパス）
	CacheExpiry time.Duration // キャッシュの有効期間

	CodeList []string // インストゥルメントユニバース（"HK.00700,US.AAPL" 形式）

	EMAPeriod    int    // グローバルEMA期間
	MACDParamsDB string // MACDパラメータストアのDSN
	KDParamsDB   string // KDパラメータストアのDSN
	RSIParamsDB  string // RSIパラメータストアのDSN
}

// Load は環境変数から設定をロードします。未設定の項目にはデフォルト値を使います。
func Load() Config {
	cfg := Config{
		Addr:         getenv("ADDR", ":8080"),
		DataSource:   getenv("DATA_SOURCE", "futu"),
		CacheDSN:     getenv("CACHE_DSN", "data"),
		CacheExpiry:  24 * time.Hour,
		EMAPeriod:    240,
		MACDParamsDB: os.Getenv("MACD_PARAMS_DB"),
		KDParamsDB:   os.Getenv("KD_PARAMS_DB"),
		RSIParamsDB:  os.Getenv("RSI_PARAMS_DB"),
	}

	if v := os.Getenv("CACHE_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheExpiry = d
		}
	}
	if v := os.Getenv("EMA_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EMAPeriod = n
		}
	}
	for _, code := range strings.Split(os.Getenv("CODE_LIST"), ",") {
		if code = strings.TrimSpace(code); code != "" {
			cfg.CodeList = append(cfg.CodeList, code)
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
