// Package indicator は純粋関数としてテクニカル指標を計算します。
//
// すべての関数は入力と同じ長さの配列を返します。ウォームアップ期間中も配列を
// 短くせず、各指標で定義されたプレースホルダ値を出力します。
package indicator

import "math"

// EMA は指数移動平均を計算します。
//
// 初期値は ema[0] = series[0]、乗数は 2/(period+1) で、
// ema[i] = (series[i]-ema[i-1])*multiplier + ema[i-1] の漸化式に従います。
func EMA(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	multiplier := 2.0 / (float64(period) + 1.0)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = (series[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// ATR は平均トゥルーレンジを計算します。
//
// tr[0] = high[0]-low[0]、i>0では
// tr[i] = max(high[i]-low[i], |high[i]-close[i-1]|, |low[i]-close[i-1]|)。
// 平滑化はWilder方式ではなく単純な移動平均で、i < period-1 の区間は
// それまでの全サンプル（0..i）の平均を使います。
func ATR(high, low, close []float64, period int) []float64 {
	n := len(high)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	tr := make([]float64, n)
	tr[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += tr[i]
		if i >= period {
			sum -= tr[i-period]
		}
		if i < period-1 {
			out[i] = sum / float64(i+1)
		} else {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// VMACD はATR正規化版MACDとそのシグナルラインを計算します。
//
// vmacd[i] = 100 * (EMA(close,fast)[i] - EMA(close,slow)[i]) / ATR(high,low,close,slow)[i]
// （ATRが0のときは0）、シグナルラインは EMA(vmacd, signal) です。
// 教科書的な EMA差分MACD ではない点に注意。ボラティリティで正規化することで
// 銘柄間・期間間で振幅が比較可能になります。
func VMACD(close, high, low []float64, fast, slow, signal int) (vmacd, signalLine []float64) {
	n := len(close)
	vmacd = make([]float64, n)
	if n == 0 {
		return vmacd, make([]float64, 0)
	}
	emaFast := EMA(close, fast)
	emaSlow := EMA(close, slow)
	atr := ATR(high, low, close, slow)
	for i := 0; i < n; i++ {
		if atr[i] == 0 {
			vmacd[i] = 0
			continue
		}
		vmacd[i] = 100 * (emaFast[i] - emaSlow[i]) / atr[i]
	}
	signalLine = EMA(vmacd, signal)
	return vmacd, signalLine
}

// KD はストキャスティクスの%Kと%Dを計算します。
//
// 各iについて直近kPeriod本（系列先頭でクランプ）の最高値・最安値を取り、
// %K[i] = 100*(close[i]-lowest)/(highest-lowest)。highest==lowest のときは
// レンジが潰れているため50を出力します。%Dは%KのdPeriod単純移動平均
// （ウィンドウは同様に先頭でクランプ）です。
func KD(high, low, close []float64, kPeriod, dPeriod int) (k, d []float64) {
	n := len(close)
	k = make([]float64, n)
	d = make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - kPeriod + 1
		if start < 0 {
			start = 0
		}
		highest := high[start]
		lowest := low[start]
		for j := start + 1; j <= i; j++ {
			if high[j] > highest {
				highest = high[j]
			}
			if low[j] < lowest {
				lowest = low[j]
			}
		}
		if highest == lowest {
			k[i] = 50
		} else {
			k[i] = 100 * (close[i] - lowest) / (highest - lowest)
		}
	}
	for i := 0; i < n; i++ {
		start := i - dPeriod + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		for j := start; j <= i; j++ {
			sum += k[j]
		}
		d[i] = sum / float64(i-start+1)
	}
	return k, d
}

// RSI は相対力指数を計算します。
//
// gain/lossは max(Δclose,0) / max(-Δclose,0)（gain[0]=loss[0]=0）。
// i < period-1 のウォームアップ区間は計算値ではなく固定値50を出力します。
// それ以降は直近period本の単純平均から RS = avgGain/avgLoss、
// RSI = 100 - 100/(1+RS)。avgLoss==0 の場合はRSI=100です。
func RSI(close []float64, period int) []float64 {
	n := len(close)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	gain := make([]float64, n)
	loss := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := close[i] - close[i-1]
		if delta > 0 {
			gain[i] = delta
		} else {
			loss[i] = -delta
		}
	}
	for i := 0; i < n; i++ {
		if i < period-1 {
			out[i] = 50
			continue
		}
		var sumGain, sumLoss float64
		for j := i - period + 1; j <= i; j++ {
			sumGain += gain[j]
			sumLoss += loss[j]
		}
		if sumLoss == 0 {
			out[i] = 100
			continue
		}
		rs := sumGain / sumLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
