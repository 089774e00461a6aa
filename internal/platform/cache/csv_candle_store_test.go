package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trend_backend/internal/feature/chart/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInstrument = entity.Instrument{Market: entity.MarketHK, Code: "00700"}

// sampleCandles はテスト用のローソク足系列を返します。
func sampleCandles() []entity.Candle {
	return []entity.Candle{
		{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Open: 300, High: 310, Low: 295, Close: 305, Volume: 1200000},
		{Time: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Open: 305, High: 312, Low: 301, Close: 308, Volume: 900000},
		{Time: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Open: 308, High: 315, Low: 306, Close: 314, Volume: 1500000},
	}
}

// TestCSVCandleStore_RoundTrip はPut直後のGetが元の系列をフィールド単位で
// 同値・同順で返すことを検証します。
func TestCSVCandleStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewCSVCandleStore(t.TempDir(), time.Hour)
	ctx := context.Background()
	candles := sampleCandles()

	require.NoError(t, store.Put(ctx, testInstrument, entity.IntervalDay, candles))

	got, fresh, err := store.Get(ctx, testInstrument, entity.IntervalDay)
	require.NoError(t, err)
	require.True(t, fresh)
	assert.Equal(t, candles, got)
}

// TestCSVCandleStore_MissingIsAbsent はファイルが無い場合にfalseを返すことを検証します。
func TestCSVCandleStore_MissingIsAbsent(t *testing.T) {
	t.Parallel()

	store := NewCSVCandleStore(t.TempDir(), time.Hour)

	got, fresh, err := store.Get(context.Background(), testInstrument, entity.IntervalDay)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Nil(t, got)
}

// TestCSVCandleStore_StaleIsAbsent は有効期間を過ぎた成果物が内容に関わらず
// 「無し」として扱われることを検証します。
func TestCSVCandleStore_StaleIsAbsent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewCSVCandleStore(dir, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testInstrument, entity.IntervalDay, sampleCandles()))

	// 最終書き込み時刻を有効期間より過去に偽装
	p := filepath.Join(dir, "data_HK_00700_K_DAY.csv")
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(p, old, old))

	got, fresh, err := store.Get(ctx, testInstrument, entity.IntervalDay)
	require.NoError(t, err)
	assert.False(t, fresh, "stale artifact must be treated as absent")
	assert.Nil(t, got)
}

// TestCSVCandleStore_OverwriteReplacesWholeFile は再Putが以前の内容を
// 完全に置き換えることを検証します。
func TestCSVCandleStore_OverwriteReplacesWholeFile(t *testing.T) {
	t.Parallel()

	store := NewCSVCandleStore(t.TempDir(), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testInstrument, entity.IntervalDay, sampleCandles()))

	replacement := sampleCandles()[:1]
	require.NoError(t, store.Put(ctx, testInstrument, entity.IntervalDay, replacement))

	got, fresh, err := store.Get(ctx, testInstrument, entity.IntervalDay)
	require.NoError(t, err)
	require.True(t, fresh)
	assert.Equal(t, replacement, got)
}

// TestCSVCandleStore_SkipsMalformedRows は壊れた行が読み飛ばされ、
// 残りの行でGetが成功することを検証します。
func TestCSVCandleStore_SkipsMalformedRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewCSVCandleStore(dir, time.Hour)

	content := "time_key,open,high,low,close,volume\n" +
		"2024-03-01 00:00:00,300,310,295,305,1200000\n" +
		"not-a-time,x,y,z,w,v\n" +
		"2024-03-04 00:00:00,305,312,301,308,900000\n"
	p := filepath.Join(dir, "data_HK_00700_K_DAY.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	got, fresh, err := store.Get(context.Background(), testInstrument, entity.IntervalDay)
	require.NoError(t, err)
	require.True(t, fresh)
	require.Len(t, got, 2)
	assert.Equal(t, 305.0, got[0].Close)
	assert.Equal(t, 308.0, got[1].Close)
}

// TestCSVCandleStore_DateOnlyTimeKey は日付のみのtime_keyも読めることを検証します。
func TestCSVCandleStore_DateOnlyTimeKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewCSVCandleStore(dir, time.Hour)

	content := "time_key,open,high,low,close,volume\n" +
		"2024-03-01,300,310,295,305,1200000\n"
	p := filepath.Join(dir, "data_HK_00700_K_DAY.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	got, fresh, err := store.Get(context.Background(), testInstrument, entity.IntervalDay)
	require.NoError(t, err)
	require.True(t, fresh)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got[0].Time)
}
