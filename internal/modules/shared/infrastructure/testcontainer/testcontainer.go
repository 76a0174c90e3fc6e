package testcontainer

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"currency-recognition-app/internal/config"
)

// RedisContainer Redisコンテナのラッパー
type RedisContainer struct {
	Container *rediscontainer.RedisContainer
	Host      string
	Port      string
}

// MySQLContainer MySQLコンテナのラッパー
type MySQLContainer struct {
	Container *mysql.MySQLContainer
	Host      string
	Port      string
	Database  string
	User      string
	Password  string
}

// RequireDocker 短縮モードやDockerが使えない環境ではテストをスキップ
func RequireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// StartRedis Redisコンテナを起動（テスト終了時に停止）
func StartRedis(ctx context.Context, t *testing.T) (*RedisContainer, error) {
	t.Helper()
	RequireDocker(t)

	container, err := rediscontainer.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis host: %w", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis port: %w", err)
	}

	rc := &RedisContainer{
		Container: container,
		Host:      host,
		Port:      port.Port(),
	}
	t.Cleanup(func() { _ = rc.Close(context.Background()) })
	return rc, nil
}

// StartMySQL MySQLコンテナを起動（テスト終了時に停止）
func StartMySQL(ctx context.Context, t *testing.T) (*MySQLContainer, error) {
	t.Helper()
	RequireDocker(t)

	const (
		database = "currency_test"
		user     = "currency"
		password = "currency"
	)

	container, err := mysql.Run(ctx,
		"mysql:8.0",
		mysql.WithDatabase(database),
		mysql.WithUsername(user),
		mysql.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mysql host: %w", err)
	}

	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mysql port: %w", err)
	}

	mc := &MySQLContainer{
		Container: container,
		Host:      host,
		Port:      port.Port(),
		Database:  database,
		User:      user,
		Password:  password,
	}
	t.Cleanup(func() { _ = mc.Close(context.Background()) })
	return mc, nil
}

// Close Redisコンテナを停止
func (r *RedisContainer) Close(ctx context.Context) error {
	if r.Container != nil {
		return r.Container.Terminate(ctx)
	}
	return nil
}

// Close MySQLコンテナを停止
func (m *MySQLContainer) Close(ctx context.Context) error {
	if m.Container != nil {
		return m.Container.Terminate(ctx)
	}
	return nil
}

// Config アプリケーションのRedis設定に変換
func (r *RedisContainer) Config() config.RedisConfig {
	port, _ := strconv.Atoi(r.Port)
	return config.RedisConfig{
		Enabled: true,
		Host:    r.Host,
		Port:    port,
	}
}

// Config アプリケーションのMySQL設定に変換
func (m *MySQLContainer) Config() config.MySQLConfig {
	port, _ := strconv.Atoi(m.Port)
	return config.MySQLConfig{
		Host:     m.Host,
		Port:     port,
		User:     m.User,
		Password: m.Password,
		Database: m.Database,
	}
}
