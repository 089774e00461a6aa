package eastmoney

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	// directoryFileName はディレクトリキャッシュのファイル名です。
	directoryFileName = "us_directory.csv"
	// directoryExpiry はディレクトリキャッシュの有効期間です。
	// 上場銘柄の一覧はほとんど変わらないため長めに取ります。
	directoryExpiry = 30 * 24 * time.Hour
)

// Directory は米国株ティッカーからsecidを引くためのディレクトリです。
// 一覧はゲートウェイのリストAPIから取得し、CSVファイルにキャッシュします
// （有効期間30日、メモリ上のマップはプロセス生存中再利用）。
type Directory struct {
	baseURL string
	client  *http.Client

	mu      sync.Mutex
	path    string
	entries map[string]string // ticker -> secid ("105.SOHO")
}

// NewDirectory は指定された設定でDirectoryの新しいインスタンスを生成します。
func NewDirectory(baseURL, cacheDir string, client *http.Client) *Directory {
	return &Directory{
		baseURL: baseURL,
		client:  client,
		path:    filepath.Join(cacheDir, directoryFileName),
	}
}

// SecID はティッカーに対応するsecidを返します。ディレクトリに無い銘柄は
// エラーです。
func (d *Directory) SecID(ctx context.Context, ticker string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.entries == nil {
		if err := d.load(ctx); err != nil {
			return "", err
		}
	}
	secid, ok := d.entries[ticker]
	if !ok {
		return "", fmt.Errorf("eastmoney: ticker %q not in US directory", ticker)
	}
	return secid, nil
}

// Reset はメモリ上のディレクトリを破棄します。次回の参照でファイルまたは
// 上流から再ロードされます。
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = nil
}

// load はキャッシュファイルが新鮮ならそこから、そうでなければ上流から
// ディレクトリをロードします。呼び出し側がロックを保持します。
func (d *Directory) load(ctx context.Context) error {
	if entries, err := d.readFile(); err == nil {
		d.entries = entries
		return nil
	}

	entries, err := d.fetch(ctx)
	if err != nil {
		return err
	}
	d.entries = entries
	if err := d.writeFile(entries); err != nil {
		slog.Warn("failed to persist US directory cache", "path", d.path, "error", err)
	}
	return nil
}

// readFile はCSVキャッシュを読みます。無い・期限切れ・壊れている場合はエラーです。
func (d *Directory) readFile() (map[string]string, error) {
	info, err := os.Stat(d.path)
	if err != nil {
		return nil, err
	}
	if time.Since(info.ModTime()) > directoryExpiry {
		return nil, fmt.Errorf("directory cache expired")
	}

	f, err := os.Open(d.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	entries := make(map[string]string, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 2 { // header / malformed
			continue
		}
		entries[row[0]] = row[1]
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("directory cache empty")
	}
	return entries, nil
}

// writeFile はディレクトリをCSVへアトミックに書き出します。
func (d *Directory) writeFile(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".directory-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"ticker", "secid"}); err != nil {
		_ = tmp.Close()
		return err
	}
	for ticker, secid := range entries {
		if err := w.Write([]string{ticker, secid}); err != nil {
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
	return os.Rename(tmp.Name(), d.path)
}

// directoryResponse はリストAPIのレスポンスです。f12がティッカー、
// f13が市場プレフィックスです。
type directoryResponse struct {
	Data struct {
		Diff []struct {
			Ticker string `json:"f12"`
			Prefix int    `json:"f13"`
		} `json:"diff"`
	} `json:"data"`
}

// fetch は上流のリストAPIから米国株ディレクトリ全体を取得します。
func (d *Directory) fetch(ctx context.Context) (map[string]string, error) {
	// m:105=NASDAQ, m:106=NYSE, m:107=AMEX
	u := fmt.Sprintf("%s/api/qt/clist/get?pn=1&pz=20000&fs=m:105,m:106,m:107&fields=f12,f13", d.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch US directory: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("eastmoney directory http %d", res.StatusCode)
	}

	var body directoryResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Data.Diff) == 0 {
		return nil, fmt.Errorf("eastmoney directory returned no instruments")
	}

	entries := make(map[string]string, len(body.Data.Diff))
	for _, row := range body.Data.Diff {
		if row.Ticker == "" {
			continue
		}
		entries[row.Ticker] = strconv.Itoa(row.Prefix) + "." + row.Ticker
	}
	return entries, nil
}
