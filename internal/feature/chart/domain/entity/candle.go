// Package entity defines the domain models for the chart feature.
package entity

import (
	"fmt"
	"strings"
	"time"
)

// Market is the venue tag of an instrument (e.g. "HK", "US", "SH", "SZ").
type Market string

// Supported market venues.
const (
	MarketHK Market = "HK" // Hong Kong Exchange
	MarketUS Market = "US" // US markets (NASDAQ/NYSE/AMEX)
	MarketSH Market = "SH" // Shanghai Stock Exchange
	MarketSZ Market = "SZ" // Shenzhen Stock Exchange
)

// Instrument identifies a tradable instrument by venue and venue-local code.
// It is immutable and used as the cache / parameter-lookup key.
type Instrument struct {
	Market Market // Venue tag
	Code   string // Venue-local symbol (e.g. "00700", "AAPL", "510300")
}

// Key は "HK.00700" 形式のインストゥルメントキーを返します。
// キャッシュキーおよびパラメータ検索キーとして使用されます。
func (i Instrument) Key() string {
	return string(i.Market) + "." + i.Code
}

// ParseInstrument は "HK.00700" 形式の文字列をInstrumentに変換します。
func ParseInstrument(s string) (Instrument, error) {
	market, code, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || market == "" || code == "" {
		return Instrument{}, fmt.Errorf("invalid instrument code %q", s)
	}
	switch Market(market) {
	case MarketHK, MarketUS, MarketSH, MarketSZ:
		return Instrument{Market: Market(market), Code: code}, nil
	default:
		return Instrument{}, fmt.Errorf("unsupported market %q in %q", market, s)
	}
}

// Interval はローソク足の時間足を表します。
type Interval string

// Supported candle intervals.
const (
	IntervalDay   Interval = "K_DAY"  // 日足
	IntervalWeek  Interval = "K_WEEK" // 週足
	IntervalMonth Interval = "K_MON"  // 月足
	Interval60M   Interval = "K_60M"  // 60分足
)

// Seconds は時間足1本分の秒数を返します。月足は近似値です。
func (iv Interval) Seconds() int {
	switch iv {
	case IntervalDay:
		return 24 * 60 * 60
	case IntervalWeek:
		return 7 * 24 * 60 * 60
	case IntervalMonth:
		return 30 * 24 * 60 * 60
	case Interval60M:
		return 60 * 60
	default:
		return 24 * 60 * 60
	}
}

// Candle represents one OHLCV (Open, High, Low, Close, Volume) price bar.
// Within a series timestamps are strictly increasing with no duplicates.
type Candle struct {
	Time   time.Time // Timestamp for the start of this candle period
	Open   float64   // Opening price
	High   float64   // Highest price during this period
	Low    float64   // Lowest price during this period
	Close  float64   // Closing price
	Volume int64     // Trading volume (non-negative)
}
