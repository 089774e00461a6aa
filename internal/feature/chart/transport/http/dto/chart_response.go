// Package dto はチャートフィーチャーのHTTPレスポンス形式を定義します。
package dto

import (
	"trend_backend/internal/feature/chart/domain/entity"
)

// timeKeyLayout はレスポンス中のタイムスタンプ形式です。
const timeKeyLayout = "2006-01-02 15:04:05"

// CandleResponse は1本のローソク足のレスポンス形式です。
type CandleResponse struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// InstrumentResponse はインストゥルメント識別子のレスポンス形式です。
type InstrumentResponse struct {
	Market string `json:"market"`
	Code   string `json:"code"`
	Key    string `json:"key"`
}

// KDResponse はKD指標のグループ形式です。
type KDResponse struct {
	K          []float64 `json:"k"`
	D          []float64 `json:"d"`
	Oversold   float64   `json:"oversold"`
	Overbought float64   `json:"overbought"`
}

// RSIResponse はRSI指標のグループ形式です。
type RSIResponse struct {
	Values     []float64 `json:"values"`
	Oversold   float64   `json:"oversold"`
	Overbought float64   `json:"overbought"`
}

// MACDResponse はMACD指標のグループ形式です。
type MACDResponse struct {
	VMACD  []float64 `json:"vmacd"`
	Signal []float64 `json:"signal"`
	Hist   []float64 `json:"hist"`
}

// IndicatorsResponse は指標群のレスポンス形式です。フラット配列と
// ネストしたグループは同じ値を2つの形で持ちます（呼び出し側の互換性のため、
// どちらか一方だけを読むクライアントが混在している）。
type IndicatorsResponse struct {
	Time   []string  `json:"time"`
	EMA    []float64 `json:"ema"`
	K      []float64 `json:"k"`
	D      []float64 `json:"d"`
	MACD   []float64 `json:"macd"`
	Signal []float64 `json:"signal"`
	RSI    []float64 `json:"rsi"`

	KD           KDResponse   `json:"kd"`
	RSIIndicator RSIResponse  `json:"rsi_indicator"`
	MACDInd      MACDResponse `json:"macd_indicator"`
}

// ChartResponse はチャートエンドポイントのトップレベルレスポンスです。
type ChartResponse struct {
	Instrument InstrumentResponse `json:"instrument"`
	Candles    []CandleResponse   `json:"candles"`
	Indicators IndicatorsResponse `json:"indicators"`
}

// StockListItem は銘柄一覧の1要素です。表示名が無い銘柄はコードを
// そのまま名前として返します。
type StockListItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCandleResponses はローソク足系列をレスポンス形式に変換します。
func NewCandleResponses(candles []entity.Candle) []CandleResponse {
	out := make([]CandleResponse, 0, len(candles))
	for _, c := range candles {
		out = append(out, CandleResponse{
			Time:   c.Time.UTC().Format(timeKeyLayout),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	return out
}

// NewIndicatorsResponse は正規モデルから指標レスポンスを組み立てます。
func NewIndicatorsResponse(data *entity.ChartData) IndicatorsResponse {
	times := make([]string, 0, len(data.Candles))
	for _, c := range data.Candles {
		times = append(times, c.Time.UTC().Format(timeKeyLayout))
	}

	hist := make([]float64, len(data.VMACD))
	for i := range data.VMACD {
		if i < len(data.MACDSignal) {
			hist[i] = data.VMACD[i] - data.MACDSignal[i]
		}
	}

	return IndicatorsResponse{
		Time:   times,
		EMA:    data.EMA,
		K:      data.K,
		D:      data.D,
		MACD:   data.VMACD,
		Signal: data.MACDSignal,
		RSI:    data.RSI,
		KD: KDResponse{
			K:          data.K,
			D:          data.D,
			Oversold:   data.KDOversold,
			Overbought: data.KDOverbought,
		},
		RSIIndicator: RSIResponse{
			Values:     data.RSI,
			Oversold:   data.RSIOversold,
			Overbought: data.RSIOverbought,
		},
		MACDInd: MACDResponse{
			VMACD:  data.VMACD,
			Signal: data.MACDSignal,
			Hist:   hist,
		},
	}
}

// NewChartResponse は正規モデルからチャートレスポンス全体を組み立てます。
func NewChartResponse(data *entity.ChartData) ChartResponse {
	return ChartResponse{
		Instrument: InstrumentResponse{
			Market: string(data.Instrument.Market),
			Code:   data.Instrument.Code,
			Key:    data.Instrument.Key(),
		},
		Candles:    NewCandleResponses(data.Candles),
		Indicators: NewIndicatorsResponse(data),
	}
}
