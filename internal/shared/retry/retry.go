// Package retry は一時的な失敗に対する指数バックオフ付きリトライを提供します。
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do はopを指数バックオフ付きで最大maxRetries+1回試行します。
// コンテキストのキャンセルで打ち切られます。
func Do(ctx context.Context, maxRetries uint64, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		slog.Warn("operation failed, retrying", "wait", wait, "error", err)
	})
}
