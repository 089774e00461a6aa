package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/usecase"
)

// RedisCandleStore はRedisをバックエンドにするCandleStoreの実装です。
// CSVストアと同じ契約を持ち、鮮度はキーのTTLで表現します（期限切れキーは
// Redis側で消えるため、「無し」と「期限切れ」は自然に同じ見え方になります）。
type RedisCandleStore struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.CandleStore = (*RedisCandleStore)(nil)

// NewRedisCandleStore は指定されたクライアントとTTLでストアを生成します。
// ttlが0以下の場合は24時間、namespaceが空の場合は"candles"を使用します。
func NewRedisCandleStore(rdb *redis.Client, ttl time.Duration, namespace string) *RedisCandleStore {
	if ttl <= 0 {
		ttl = DefaultExpiry
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &RedisCandleStore{rdb: rdb, ttl: ttl, namespace: namespace}
}

// key はキャッシュキーを生成します（例: candles:HK_00700:K_DAY）。
func (s *RedisCandleStore) key(inst entity.Instrument, interval entity.Interval) string {
	return fmt.Sprintf("%s:%s:%s", s.namespace, safe(inst.Key()), safe(string(interval)))
}

// Get はキャッシュされたローソク足を返します。キーが無ければ(nil, false, nil)です。
func (s *RedisCandleStore) Get(ctx context.Context, inst entity.Instrument, interval entity.Interval) ([]entity.Candle, bool, error) {
	b, err := s.rdb.Get(ctx, s.key(inst, interval)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var out []entity.Candle
	if err := json.Unmarshal(b, &out); err != nil {
		// 壊れたエントリは消して「無し」扱い
		_ = s.rdb.Del(ctx, s.key(inst, interval)).Err()
		return nil, false, nil
	}
	return out, true, nil
}

// Put はローソク足をJSONで保存し、TTLを再設定します。
func (s *RedisCandleStore) Put(ctx context.Context, inst entity.Instrument, interval entity.Interval, candles []entity.Candle) error {
	b, err := json.Marshal(candles)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(inst, interval), b, s.ttl).Err()
}

// safe はRedisキーで問題になる文字をエスケープします。
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
