package db

import (
	"database/sql"
	"errors"
	"time"

	"taste_match/config"

	_ "github.com/go-sql-driver/mysql"
)

// OpenMySQL 使用配置初始化实体库连接池；调用方负责 Close
func OpenMySQL(cfg *config.Config) (*sql.DB, error) {
	if cfg.DB.DSN == "" {
		return nil, errors.New("db: mysql dsn is empty")
	}
	conn, err := sql.Open("mysql", cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	// 从配置读取连接池参数，提供默认值保护
	maxOpenConns := cfg.DB.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 50
	}

	maxIdleConns := cfg.DB.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}

	connMaxLifetime := cfg.DB.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60 // 分钟
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
