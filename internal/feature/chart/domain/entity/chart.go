package entity

// ChartData はチャート描画に必要なローソク足と指標値をまとめた正規モデルです。
// すべての指標配列はCandlesとインデックスで対応します（result[i]がcandle[i]を説明する）。
// ワイヤー上のフラット形式・ネスト形式はtransport層のDTOがこのモデルから導出します。
type ChartData struct {
	Instrument Instrument
	Candles    []Candle

	// EMA はグローバル設定の期間で計算した指数移動平均です（銘柄別チューニングなし）。
	EMA       []float64
	EMAPeriod int

	// VMACD / MACDSignal はATR正規化版MACDとそのシグナルラインです。
	VMACD      []float64
	MACDSignal []float64

	// K / D はストキャスティクス（KD）の%Kと%Dです。
	K            []float64
	D            []float64
	KDOversold   float64
	KDOverbought float64

	// RSI とその表示用しきい値です。
	RSI           []float64
	RSIOversold   float64
	RSIOverbought float64
}
