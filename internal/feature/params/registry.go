// Package params は銘柄別チューニング済み指標パラメータの読み取りを提供します。
//
// パラメータレコードは外部の最適化プロセスが生成し、このシステムは読み取り
// 専用です。バックエンドはDSNのスキームで選択され（mongodb:// はリモートの
// ドキュメントコレクション、それ以外は組み込みSQLiteファイル）、接続は初回
// 利用時に遅延確立されRegistryの生存期間中再利用されます。
package params

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"trend_backend/internal/feature/params/domain/entity"
)

// backend は単一のパラメータストア接続を抽象化します。
// Getは見つからない場合に(nil, nil)を返します。
type backend interface {
	Get(ctx context.Context, stockCode string) (*entity.TunedParams, error)
	Close(ctx context.Context) error
}

// Registry はDSNごとのバックエンド接続を保持・再利用するレジストリです。
// プロセス全体で明示的に1つ生成して注入します（隠れたグローバル状態を持たない）。
// 同一DSNに対する並行した初回利用でも接続は1つしか作られません。
type Registry struct {
	mu       sync.Mutex
	backends map[string]backend

	// newBackend はテストで差し替え可能なバックエンド生成関数です。
	newBackend func(dsn string) (backend, error)
}

// NewRegistry は空のRegistryを生成します。
func NewRegistry() *Registry {
	return &Registry{
		backends:   make(map[string]backend),
		newBackend: openBackend,
	}
}

// openBackend はDSNのスキームからバックエンド実装を選択して開きます。
func openBackend(dsn string) (backend, error) {
	if strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://") {
		return newMongoBackend(dsn)
	}
	return newSQLiteBackend(dsn)
}

// backendFor は指定DSNのバックエンドを返します。未接続なら接続を確立して
// キャッシュします。確立失敗時はキャッシュせず、次回の利用で再試行します。
func (r *Registry) backendFor(dsn string) (backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.backends[dsn]; ok {
		return b, nil
	}
	b, err := r.newBackend(dsn)
	if err != nil {
		return nil, err
	}
	r.backends[dsn] = b
	return b, nil
}

// Lookup は銘柄コードのチューニング済みパラメータを検索します。
//
// レコードが無い場合・DSNが空の場合・接続やクエリに失敗した場合はいずれも
// nil（＝パラメータなし）を返します。呼び出し側は常にデフォルト値へ
// フォールバックできるため、ここでの失敗は致命的エラーとして扱いません。
func (r *Registry) Lookup(ctx context.Context, dsn, stockCode string) *entity.TunedParams {
	if dsn == "" {
		return nil
	}
	b, err := r.backendFor(dsn)
	if err != nil {
		slog.Warn("params store unavailable, falling back to defaults",
			"dsn", dsn, "stock_code", stockCode, "error", err)
		return nil
	}
	rec, err := b.Get(ctx, stockCode)
	if err != nil {
		slog.Warn("params lookup failed, falling back to defaults",
			"dsn", dsn, "stock_code", stockCode, "error", err)
		return nil
	}
	return rec
}

// Reset はすべての接続を閉じてレジストリを空に戻します。
// テストや設定再読込の際の明示的な無効化手段です。
func (r *Registry) Reset(ctx context.Context) error {
	return r.closeAll(ctx)
}

// Close はすべてのバックエンド接続を閉じます。プロセス終了時に一度だけ
// 呼び出します（リクエスト単位では呼びません）。
func (r *Registry) Close(ctx context.Context) error {
	return r.closeAll(ctx)
}

func (r *Registry) closeAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for dsn, b := range r.backends {
		if err := b.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		delete(r.backends, dsn)
	}
	return errors.Join(errs...)
}
