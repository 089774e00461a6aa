// Package entity defines the domain models for the params feature.
package entity

import "time"

// MACDParams はATR正規化MACDのチューニングパラメータです。
type MACDParams struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
}

// KDParams はストキャスティクス（KD）のチューニングパラメータです。
type KDParams struct {
	KPeriod    int
	DPeriod    int
	Oversold   float64
	Overbought float64
}

// RSIParams はRSIのチューニングパラメータです。
type RSIParams struct {
	Period     int
	Oversold   float64
	Overbought float64
}

// DefaultMACDParams はチューニング済みパラメータが無い場合のMACDデフォルト値を返します。
func DefaultMACDParams() MACDParams {
	return MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}
}

// DefaultKDParams はチューニング済みパラメータが無い場合のKDデフォルト値を返します。
func DefaultKDParams() KDParams {
	return KDParams{KPeriod: 14, DPeriod: 3, Oversold: 20, Overbought: 80}
}

// DefaultRSIParams はチューニング済みパラメータが無い場合のRSIデフォルト値を返します。
func DefaultRSIParams() RSIParams {
	return RSIParams{Period: 14, Oversold: 30, Overbought: 70}
}

// TunedParams は外部の最適化プロセスが生成した銘柄別パラメータレコードです。
// このシステムは読み取り専用で、書き込みは一切行いません。
type TunedParams struct {
	StockCode   string
	BestParams  map[string]float64 // 最適化器の出力キー（k_period, fast_period など）
	MetaInfo    map[string]any
	Performance map[string]any
	LastUpdated time.Time
	SourceFile  string
}

// intOr はBestParamsからキーを整数として取り出し、無ければフォールバック値を返します。
func (p *TunedParams) intOr(key string, fallback int) int {
	if v, ok := p.BestParams[key]; ok && v > 0 {
		return int(v)
	}
	return fallback
}

// floatOr はBestParamsからキーを取り出し、無ければフォールバック値を返します。
func (p *TunedParams) floatOr(key string, fallback float64) float64 {
	if v, ok := p.BestParams[key]; ok {
		return v
	}
	return fallback
}

// MACD はレコードからMACDParamsを組み立てます。欠けたフィールドはデフォルト値で補います。
func (p *TunedParams) MACD() MACDParams {
	d := DefaultMACDParams()
	if p == nil {
		return d
	}
	return MACDParams{
		FastPeriod:   p.intOr("fast_period", d.FastPeriod),
		SlowPeriod:   p.intOr("slow_period", d.SlowPeriod),
		SignalPeriod: p.intOr("signal_period", d.SignalPeriod),
	}
}

// KD はレコードからKDParamsを組み立てます。欠けたフィールドはデフォルト値で補います。
func (p *TunedParams) KD() KDParams {
	d := DefaultKDParams()
	if p == nil {
		return d
	}
	return KDParams{
		KPeriod:    p.intOr("k_period", d.KPeriod),
		DPeriod:    p.intOr("d_period", d.DPeriod),
		Oversold:   p.floatOr("oversold", d.Oversold),
		Overbought: p.floatOr("overbought", d.Overbought),
	}
}

// RSI はレコードからRSIParamsを組み立てます。欠けたフィールドはデフォルト値で補います。
func (p *TunedParams) RSI() RSIParams {
	d := DefaultRSIParams()
	if p == nil {
		return d
	}
	return RSIParams{
		Period:     p.intOr("rsi_period", d.Period),
		Oversold:   p.floatOr("oversold", d.Oversold),
		Overbought: p.floatOr("overbought", d.Overbought),
	}
}
