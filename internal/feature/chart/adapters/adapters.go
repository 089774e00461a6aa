// Package adapters は上流プロバイダアダプタ共通の正規化処理を提供します。
//
// 各アダプタは取得したローソク足をここで昇順ソート・重複除去・件数切り詰め
// してからusecase層へ返します。取得期間の計算も共通です。
package adapters

import (
	"sort"
	"time"

	"trend_backend/internal/feature/chart/domain/entity"
)

// Normalize はローソク足系列を時刻昇順に整列し、同一タイムスタンプの重複を
// 除去（後勝ち）したうえで直近count本に切り詰めます。
func Normalize(candles []entity.Candle, count int) []entity.Candle {
	if len(candles) == 0 {
		return candles
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Time.Equal(c.Time) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	if count > 0 && len(out) > count {
		out = out[len(out)-count:]
	}
	return out
}

// tradingSecondsPerDay は1営業日あたりのおおよその取引時間（5時間）です。
const tradingSecondsPerDay = 5 * 60 * 60

// SpanStart は直近count本を確実に含むリクエスト開始時刻を返します。
// 休場日を吸収するため必要セッション数に7/5の暦日係数とマージンを掛けて
// さかのぼります。日中足は取引時間が1日約5時間しかないため、まずバー数を
// 営業日数に換算します。
func SpanStart(end time.Time, interval entity.Interval, count int) time.Time {
	if count <= 0 {
		count = 1
	}
	unit := interval.Seconds()
	sessions := count
	if unit < 24*60*60 {
		sessions = count*unit/tradingSecondsPerDay + 1
		unit = 24 * 60 * 60
	}
	spans := sessions*7/5 + 10
	return end.Add(-time.Duration(spans) * time.Duration(unit) * time.Second)
}
