// Package db はtaskboardのSQLiteデータベースに対するクエリを提供する。
//
// sqlcの生成コードと同じ形（DBTX, Queries, WithTx）を手書きで保っている。
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// FoldFunc はUnicode対応の小文字化を行うSQL関数名。
// SQLite組み込みのlower()はASCIIしか変換しないため、検索ではこちらを使う。
const FoldFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldScalar)
}

// foldScalar はFoldFuncの実装。TEXT以外の値はそのまま返す。
func foldScalar(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return v, nil
	}
}

// Fold は検索用に文字列を小文字化する。FoldFuncと同じ規則で変換する。
func Fold(s string) string {
	return strings.ToLower(s)
}

// DBTX は*sql.DBと*sql.Txの共通インターフェース。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New はクエリ実行オブジェクトを生成する。
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries はクエリ実行オブジェクト。
type Queries struct {
	db DBTX
}

// WithTx はトランザクション内でクエリを実行するオブジェクトを返す。
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// IsUniqueViolation はerrがUNIQUE制約違反かどうかを返す。
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsNotFound はerrが該当行なしを表すかどうかを返す。
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
