package params

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupParamsDB はテスト用のSQLiteパラメータDBを作成し、ファイルパスを返します。
// スキーマと行の形は外部最適化プロセスの出力に合わせています。
func setupParamsDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kd_params.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err, "failed to create test params db")

	err = db.Exec(`CREATE TABLE stock_params (
		stock_code TEXT PRIMARY KEY,
		best_params JSON NOT NULL,
		meta_info JSON NOT NULL,
		performance JSON NOT NULL,
		last_updated TIMESTAMP NOT NULL,
		source_file TEXT NOT NULL
	)`).Error
	require.NoError(t, err, "failed to create table")

	err = db.Exec(`INSERT INTO stock_params
		(stock_code, best_params, meta_info, performance, last_updated, source_file)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"HK.00700",
		`{"k_period": 9, "d_period": 5, "oversold": 25, "overbought": 75}`,
		`{"look_ahead": 10, "target_multiplier": 1.2, "atr_period": 20}`,
		`{"support_win_rate": 0.61}`,
		"2025-03-17T00:00:00",
		"analysis_params_20250317.json",
	).Error
	require.NoError(t, err, "failed to seed params")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	return path
}

// TestRegistry_Lookup_SQLiteHit はSQLiteバックエンドからレコードを読み取り、
// JSONカラムがデコードされることを検証します。
func TestRegistry_Lookup_SQLiteHit(t *testing.T) {
	t.Parallel()

	path := setupParamsDB(t)
	r := NewRegistry()
	defer func() { _ = r.Close(context.Background()) }()

	rec := r.Lookup(context.Background(), path, "HK.00700")

	require.NotNil(t, rec)
	assert.Equal(t, "HK.00700", rec.StockCode)
	assert.Equal(t, 9.0, rec.BestParams["k_period"])
	assert.Equal(t, 25.0, rec.BestParams["oversold"])
	assert.Equal(t, 10.0, rec.MetaInfo["look_ahead"])
	assert.Equal(t, "analysis_params_20250317.json", rec.SourceFile)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), rec.LastUpdated)

	kd := rec.KD()
	assert.Equal(t, 9, kd.KPeriod)
	assert.Equal(t, 5, kd.DPeriod)
	assert.Equal(t, 25.0, kd.Oversold)
	assert.Equal(t, 75.0, kd.Overbought)
}

// TestRegistry_Lookup_MissingRecord は未知の銘柄コードがAbsent（nil）になることを検証します。
func TestRegistry_Lookup_MissingRecord(t *testing.T) {
	t.Parallel()

	path := setupParamsDB(t)
	r := NewRegistry()
	defer func() { _ = r.Close(context.Background()) }()

	rec := r.Lookup(context.Background(), path, "UNKNOWN")
	assert.Nil(t, rec, "missing record is a normal, non-error outcome")
}

// TestRegistry_Lookup_EmptyDSN は空のDSNで検索を行わずnilを返すことを検証します。
func TestRegistry_Lookup_EmptyDSN(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Nil(t, r.Lookup(context.Background(), "", "HK.00700"))
}

// TestRegistry_Lookup_ConnectionFailureIsAbsent は接続失敗がAbsentとして
// 扱われ、エラーとして伝搬しないことを検証します。
func TestRegistry_Lookup_ConnectionFailureIsAbsent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.newBackend = func(dsn string) (backend, error) {
		return nil, errors.New("dial failed")
	}

	rec := r.Lookup(context.Background(), "broken.db", "HK.00700")
	assert.Nil(t, rec)
}

// TestRegistry_ReusesConnection は同一DSNへの繰り返し検索が接続を再利用する
// ことを検証します。
func TestRegistry_ReusesConnection(t *testing.T) {
	t.Parallel()

	opens := 0
	r := NewRegistry()
	orig := r.newBackend
	r.newBackend = func(dsn string) (backend, error) {
		opens++
		return orig(dsn)
	}

	path := setupParamsDB(t)
	defer func() { _ = r.Close(context.Background()) }()

	for i := 0; i < 3; i++ {
		require.NotNil(t, r.Lookup(context.Background(), path, "HK.00700"))
	}
	assert.Equal(t, 1, opens, "same DSN must reuse the live connection")
}

// TestRegistry_Reset はResetが接続を破棄し、次の利用で再接続することを検証します。
func TestRegistry_Reset(t *testing.T) {
	t.Parallel()

	opens := 0
	r := NewRegistry()
	orig := r.newBackend
	r.newBackend = func(dsn string) (backend, error) {
		opens++
		return orig(dsn)
	}

	path := setupParamsDB(t)
	defer func() { _ = r.Close(context.Background()) }()

	require.NotNil(t, r.Lookup(context.Background(), path, "HK.00700"))
	require.NoError(t, r.Reset(context.Background()))
	require.NotNil(t, r.Lookup(context.Background(), path, "HK.00700"))

	assert.Equal(t, 2, opens, "Reset must drop cached connections")
}

// TestDatabaseFromDSN はMongoDB DSNからのデータベース名抽出を検証します。
func TestDatabaseFromDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{name: "with database", dsn: "mongodb://localhost:27017/quant", want: "quant"},
		{name: "without database", dsn: "mongodb://localhost:27017", want: defaultMongoDatabase},
		{name: "trailing slash only", dsn: "mongodb://localhost:27017/", want: defaultMongoDatabase},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, databaseFromDSN(tt.dsn))
		})
	}
}
