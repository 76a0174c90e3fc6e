package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"currency-recognition-app/internal/config"
)

// MemoryPath SQLiteをメモリ上で使う場合のパス
const MemoryPath = ":memory:"

var memorySeq atomic.Int64

// Open 設定のドライバーでデータベースに接続
func Open(cfg *config.Config) (*bun.DB, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		return OpenSQLite(cfg.Storage.SQLitePath)
	case config.StorageMySQL, "":
		return OpenMySQL(&cfg.MySQL)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// OpenMySQL MySQLに接続
func OpenMySQL(cfg *config.MySQLConfig) (*bun.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return ping(bun.NewDB(sqldb, mysqldialect.New()))
}

// OpenSQLite SQLiteに接続
// ":memory:" の場合は接続ごとに独立したメモリDBを使う
func OpenSQLite(path string) (*bun.DB, error) {
	dsn := path
	if path == MemoryPath {
		dsn = fmt.Sprintf("file:currency-%d?mode=memory&cache=shared", memorySeq.Add(1))
	}
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLiteは単一接続で書き込みを直列化する
	sqldb.SetMaxOpenConns(1)

	return ping(bun.NewDB(sqldb, sqlitedialect.New()))
}

func ping(db *bun.DB) (*bun.DB, error) {
	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema テーブルとインデックスを作成
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Analysis)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	query := db.NewCreateIndex().
		Model((*Analysis)(nil)).
		Index("idx_analyses_owner_created").
		Column("owner_id", "created_at")
	// MySQLはCREATE INDEX IF NOT EXISTSに対応していない
	if db.Dialect().Name() != dialect.MySQL {
		query = query.IfNotExists()
	}
	if _, err := query.Exec(ctx); err != nil && !isDuplicateIndex(err) {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}
