package utils

import (
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsSQLNoRowsError 检查错误是否为SQL无结果错误
func IsSQLNoRowsError(err error) bool {
	return err != nil && errors.Is(err, sql.ErrNoRows)
}

// IsMongoNoDocuments 检查错误是否为文档库无结果错误
func IsMongoNoDocuments(err error) bool {
	return err != nil && errors.Is(err, mongo.ErrNoDocuments)
}

// IsStoreError 检查错误是否来自 MySQL / MongoDB 本身（服务端报错、连接断开、超时）。
// 无结果错误已在 repository 层转换，不在此列
func IsStoreError(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return true
	}
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return true
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	return errors.Is(err, mongo.ErrClientDisconnected) || mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
