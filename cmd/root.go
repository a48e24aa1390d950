package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taste_match/config"
	"taste_match/db"
	"taste_match/logger"
	"taste_match/repository"
	"taste_match/services"
)

var (
	configPath string
	memoryMode bool
	seedPath   string
)

var rootCmd = &cobra.Command{
	Use:          "taste_match",
	Short:        "taste_match: 关键词画像匹配打分",
	Long:         "计算用户口味关键词与餐厅或其他用户的匹配度，分数按状态版本缓存。",
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&memoryMode, "memory", false, "使用内存存储，不连接 MySQL / MongoDB")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "内存模式下加载的 yaml 种子数据")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(bumpCmd)
	rootCmd.AddCommand(prewarmCmd)
}

// app 命令运行时依赖
type app struct {
	cfg      *config.Config
	entities repository.EntityStore
	versions *services.VersionService
	scores   *services.ScoreService
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setup 加载配置、初始化日志并打开存储
func setup(ctx context.Context) (*app, error) {
	cfg := config.Load(configPath)
	if err := logger.Init(cfg); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg}
	var (
		profiles repository.ProfileStore
		cache    repository.ScoreCache
	)

	if memoryMode {
		entities := repository.NewMemoryEntityStore()
		memProfiles := repository.NewMemoryProfileStore()
		if seedPath != "" {
			if err := loadSeed(seedPath, entities, memProfiles); err != nil {
				return nil, err
			}
		}
		a.entities, profiles, cache = entities, memProfiles, repository.NewMemoryScoreCache()
		logger.Info("使用内存存储", "seed", seedPath)
	} else {
		conn, err := db.OpenMySQL(cfg)
		if err != nil {
			return nil, fmt.Errorf("init mysql: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		logger.Info("MySQL连接成功",
			"max_open_conns", cfg.DB.MaxOpenConns,
			"max_idle_conns", cfg.DB.MaxIdleConns,
			"conn_max_lifetime", cfg.DB.ConnMaxLifetime)

		client, database, err := db.OpenMongo(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init mongo: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		logger.Info("MongoDB连接成功", "database", cfg.Mongo.Database)

		entities, err := repository.NewSQLEntityStore(conn, cfg.DB.UserTable, cfg.DB.RestaurantTable)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.entities = entities
		profiles = repository.NewMongoProfileStore(
			database.Collection(cfg.Mongo.UserKeywords),
			database.Collection(cfg.Mongo.RestaurantKeywords))
		cache = repository.NewMongoScoreCache(database.Collection(cfg.Mongo.ScoreCache))
	}

	a.versions = services.NewVersionService(cfg, a.entities)
	a.scores = services.NewScoreService(cfg, a.versions, profiles, cache)
	return a, nil
}
