package di

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-crud-service/internal/config"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Logger: config.LoggerConfig{ServiceName: "user-crud-service"},
	}
}

func TestBuild_WithoutRateLimit(t *testing.T) {
	c, err := build(context.Background(), testConfig(), zaptest.NewLogger(t), openTestDB(t))
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.RateLimiter)
	require.NotNil(t, c.Handler)

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestBuild_WithRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 10, BurstCapacity: 20}
	cfg.Redis = config.RedisConfig{Host: host, Port: port, PoolSize: 2}

	c, err := build(context.Background(), cfg, zaptest.NewLogger(t), openTestDB(t))
	require.NoError(t, err)

	assert.NotNil(t, c.RedisClient)
	assert.NotNil(t, c.RateLimiter)
	assert.NoError(t, c.Close())
}

func TestBuild_RedisUnavailableClosesDB(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	mr.Close()

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 10, BurstCapacity: 20}
	cfg.Redis = config.RedisConfig{Host: host, Port: port}

	db := openTestDB(t)
	c, err := build(context.Background(), cfg, zaptest.NewLogger(t), db)

	assert.Nil(t, c)
	assert.ErrorContains(t, err, "failed to initialize Redis")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "database must be closed after a failed build")
}
