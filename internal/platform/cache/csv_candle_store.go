// Package cache provides candle cache implementations for the chart feature.
package cache

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/usecase"
)

// DefaultExpiry はキャッシュ成果物のデフォルト有効期間です。
const DefaultExpiry = 24 * time.Hour

// timeKeyLayout はキャッシュファイル内のタイムスタンプ形式です。
const timeKeyLayout = "2006-01-02 15:04:05"

// CSVCandleStore は(銘柄, 時間足)ごとに1つのCSVファイルへローソク足を保存する
// CandleStoreの実装です。鮮度はファイルの最終書き込み時刻と有効期間の比較で
// 判定します。書き込みは一時ファイルへの全量書き出し + renameで、読み手に
// 部分的なレコードが見えることはありません。
type CSVCandleStore struct {
	dir    string
	expiry time.Duration
}

// CSVCandleStoreがCandleStoreを実装していることをコンパイル時に検証します。
var _ usecase.CandleStore = (*CSVCandleStore)(nil)

// NewCSVCandleStore は指定されたディレクトリ配下にキャッシュするストアを生成します。
// expiryが0以下の場合は24時間を使用します。
func NewCSVCandleStore(dir string, expiry time.Duration) *CSVCandleStore {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &CSVCandleStore{dir: dir, expiry: expiry}
}

// path はキャッシュファイルのパスを返します（例: data_HK_00700_K_DAY.csv）。
func (s *CSVCandleStore) path(inst entity.Instrument, interval entity.Interval) string {
	name := fmt.Sprintf("data_%s_%s.csv",
		strings.ReplaceAll(inst.Key(), ".", "_"), string(interval))
	return filepath.Join(s.dir, name)
}

// Get はキャッシュされたローソク足を返します。第2戻り値はフレッシュヒットか
// どうかで、ファイルが存在しない場合と有効期間を過ぎている場合はどちらも
// falseです。壊れた行は読み飛ばします。
func (s *CSVCandleStore) Get(_ context.Context, inst entity.Instrument, interval entity.Interval) ([]entity.Candle, bool, error) {
	p := s.path(inst, interval)
	fi, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if time.Since(fi.ModTime()) > s.expiry {
		// 期限切れは「無し」と同じ扱い。中身は見ない。
		return nil, false, nil
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close cache file", "path", p, "error", err)
		}
	}()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("read cache %s: %w", p, err)
	}

	candles := make([]entity.Candle, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		c, ok := parseRow(row)
		if !ok {
			slog.Warn("skipping malformed cache row", "path", p, "line", i+1)
			continue
		}
		candles = append(candles, c)
	}
	return candles, true, nil
}

// Put はローソク足を全量書き換えで保存します。
func (s *CSVCandleStore) Put(_ context.Context, inst entity.Instrument, interval entity.Interval, candles []entity.Candle) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	p := s.path(inst, interval)

	tmp, err := os.CreateTemp(s.dir, filepath.Base(p)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name()) // rename成功後はENOENTになるだけ
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"time_key", "open", "high", "low", "close", "volume"}); err != nil {
		_ = tmp.Close()
		return err
	}
	for _, c := range candles {
		row := []string{
			c.Time.Format(timeKeyLayout),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatInt(c.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// parseRow はCSVの1行をCandleに変換します。
func parseRow(row []string) (entity.Candle, bool) {
	if len(row) < 6 {
		return entity.Candle{}, false
	}
	tm, err := time.Parse(timeKeyLayout, row[0])
	if err != nil {
		tm, err = time.Parse("2006-01-02", row[0])
		if err != nil {
			return entity.Candle{}, false
		}
	}
	o, err1 := strconv.ParseFloat(row[1], 64)
	h, err2 := strconv.ParseFloat(row[2], 64)
	l, err3 := strconv.ParseFloat(row[3], 64)
	c, err4 := strconv.ParseFloat(row[4], 64)
	v, err5 := strconv.ParseInt(row[5], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return entity.Candle{}, false
	}
	return entity.Candle{Time: tm, Open: o, High: h, Low: l, Close: c, Volume: v}, true
}
