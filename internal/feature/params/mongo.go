package params

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"trend_backend/internal/feature/params/domain/entity"
)

const (
	// paramsCollection はパラメータレコードを保持するコレクション名です。
	paramsCollection = "strategy_params"
	// defaultMongoDatabase はDSNにデータベース名が無い場合のフォールバックです。
	defaultMongoDatabase = "trends"
)

// mongoBackend はリモートのMongoDBコレクションを読み取るbackend実装です。
// 銘柄ごとに1ドキュメントで、stock_codeの完全一致で検索します。
type mongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ backend = (*mongoBackend)(nil)

// newMongoBackend はDSNでクライアントを生成します。実際のダイヤルは
// ドライバが初回オペレーション時に行うため、ここではブロックしません。
func newMongoBackend(dsn string) (*mongoBackend, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect params store: %w", err)
	}
	dbName := databaseFromDSN(dsn)
	return &mongoBackend{
		client: client,
		coll:   client.Database(dbName).Collection(paramsCollection),
	}, nil
}

// databaseFromDSN はDSNのパス部分からデータベース名を取り出します。
func databaseFromDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return defaultMongoDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return defaultMongoDatabase
	}
	return name
}

// strategyParamsDoc はstrategy_paramsコレクションの1ドキュメントに対応します。
type strategyParamsDoc struct {
	StockCode   string             `bson:"stock_code"`
	BestParams  map[string]float64 `bson:"best_params"`
	MetaInfo    map[string]any     `bson:"meta_info,omitempty"`
	Performance map[string]any     `bson:"performance,omitempty"`
	LastUpdated time.Time          `bson:"last_updated,omitempty"`
	SourceFile  string             `bson:"source_file,omitempty"`
}

// Get は銘柄コードに完全一致するドキュメントを返します。無ければ(nil, nil)です。
func (b *mongoBackend) Get(ctx context.Context, stockCode string) (*entity.TunedParams, error) {
	var doc strategyParamsDoc
	err := b.coll.FindOne(ctx, bson.M{"stock_code": stockCode}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.TunedParams{
		StockCode:   doc.StockCode,
		BestParams:  doc.BestParams,
		MetaInfo:    doc.MetaInfo,
		Performance: doc.Performance,
		LastUpdated: doc.LastUpdated,
		SourceFile:  doc.SourceFile,
	}, nil
}

// Close はクライアントを切断します。
func (b *mongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
