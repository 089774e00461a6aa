package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trend_backend/internal/feature/params/domain/entity"
)

// sqliteBackend は組み込みSQLiteファイルを読み取るbackend実装です。
// stock_paramsテーブルは銘柄ごとに1行で、ネストしたフィールドはJSONテキスト
// として格納されています。このシステムからは読み取り専用です。
type sqliteBackend struct {
	db *gorm.DB
}

var _ backend = (*sqliteBackend)(nil)

// newSQLiteBackend は指定パスのSQLiteファイルを開きます。
func newSQLiteBackend(path string) (*sqliteBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open params db %s: %w", path, err)
	}
	return &sqliteBackend{db: db}, nil
}

// stockParamsRow はstock_paramsテーブルの1行に対応します。
type stockParamsRow struct {
	BestParams  string `gorm:"column:best_params"`
	MetaInfo    string `gorm:"column:meta_info"`
	Performance string `gorm:"column:performance"`
	LastUpdated string `gorm:"column:last_updated"`
	SourceFile  string `gorm:"column:source_file"`
}

// Get は銘柄コードに一致するレコードを返します。見つからなければ(nil, nil)です。
func (b *sqliteBackend) Get(ctx context.Context, stockCode string) (*entity.TunedParams, error) {
	var row stockParamsRow
	err := b.db.WithContext(ctx).
		Table("stock_params").
		Select("best_params", "meta_info", "performance", "last_updated", "source_file").
		Where("stock_code = ?", stockCode).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rec := &entity.TunedParams{
		StockCode:   stockCode,
		LastUpdated: parseTimestamp(row.LastUpdated),
		SourceFile:  row.SourceFile,
	}
	if err := json.Unmarshal([]byte(row.BestParams), &rec.BestParams); err != nil {
		return nil, fmt.Errorf("decode best_params for %s: %w", stockCode, err)
	}
	// meta_info / performance は表示用の付帯情報。壊れていても本体は返す。
	_ = json.Unmarshal([]byte(row.MetaInfo), &rec.MetaInfo)
	_ = json.Unmarshal([]byte(row.Performance), &rec.Performance)
	return rec, nil
}

// Close はDB接続を閉じます。
func (b *sqliteBackend) Close(context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// parseTimestamp はストアごとに揺れるタイムスタンプ表現をパースします。
// パースできない場合はゼロ値を返します（このフィールドは表示用でしかない）。
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
