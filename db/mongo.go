package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"taste_match/config"
)

// OpenMongo 连接文档库并返回配置中的数据库句柄
func OpenMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Mongo.URI == "" {
		return nil, nil, errors.New("db: MONGO_URI is empty")
	}

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(time.Duration(cfg.Mongo.ConnectTimeoutSec) * time.Second)
	if cfg.Mongo.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.Mongo.MaxPoolSize)
	}
	if cfg.Mongo.SelectTimeoutSec > 0 {
		opts.SetServerSelectionTimeout(time.Duration(cfg.Mongo.SelectTimeoutSec) * time.Second)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Mongo.ConnectTimeoutSec)*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(cfg.Mongo.Database), nil
}
