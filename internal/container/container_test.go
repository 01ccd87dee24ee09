package container

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nhankey2000/auto-post/internal/config"
	"github.com/nhankey2000/auto-post/internal/database"
	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type nopDoer struct{}

func (nopDoer) Execute(context.Context, *graph.Request) (*graph.Response, error) {
	return nil, errors.New("offline")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Storage:   config.StorageConfig{Driver: "local", Dir: t.TempDir(), BaseURL: "http://localhost/storage"},
		Analytics: config.AnalyticsConfig{DefaultDays: 7},
	}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestBuildWiresServices(t *testing.T) {
	db := testDB(t)
	c, err := Build(context.Background(), testConfig(t), WithDB(db), WithGraph(nopDoer{}))
	require.NoError(t, err)
	defer c.Cleanup(context.Background())

	assert.Same(t, db, c.DB())
	assert.NotNil(t, c.Store())
	assert.NotNil(t, c.Metrics())
	assert.Nil(t, c.Cache(), "no redis configured")

	account := &models.PlatformAccount{Name: "p", PageID: "1", AccessToken: "t"}
	require.NoError(t, c.Accounts().Add(context.Background(), account))
	got, err := c.Accounts().Get(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.PageID)
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()

	c, err := Build(context.Background(), cfg, WithDB(testDB(t)), WithGraph(nopDoer{}))
	require.NoError(t, err)
	require.NotNil(t, c.Cache())

	c.Cleanup(context.Background())
	assert.Error(t, c.Cache().Ping(context.Background()), "cleanup closes the client")
}

func TestBuildRedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"

	c, err := Build(context.Background(), cfg, WithDB(testDB(t)), WithGraph(nopDoer{}))
	require.NoError(t, err)
	assert.Nil(t, c.Cache())
}

func TestBuildOpensDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"}

	c, err := Build(context.Background(), cfg, WithGraph(nopDoer{}))
	require.NoError(t, err)
	require.NoError(t, database.Health(c.DB()))

	c.Cleanup(context.Background())
	assert.Error(t, database.Health(c.DB()))
}

func TestCleanupOrder(t *testing.T) {
	c := &Container{}
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		c.OnCleanup(func(context.Context) error {
			order = append(order, i)
			if i == 2 {
				return errors.New("fails")
			}
			return nil
		})
	}

	c.Cleanup(context.Background())
	assert.Equal(t, []int{3, 2, 1}, order)

	c.Cleanup(context.Background())
	assert.Len(t, order, 3, "functions run once")
}

func TestValidate(t *testing.T) {
	err := (&Container{}).Validate()
	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, []string{"database", "attachment store", "services"}, initErr.Causes)
	assert.Contains(t, err.Error(), "Missing required dependencies: database")
}
