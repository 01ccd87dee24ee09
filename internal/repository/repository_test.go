package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/nhankey2000/auto-post/internal/database"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createAccount(t *testing.T, repo AccountRepository) *models.PlatformAccount {
	t.Helper()
	account := &models.PlatformAccount{
		Name:        gofakeit.Company(),
		Platform:    "facebook",
		PageID:      gofakeit.Numerify("10##########"),
		AccessToken: gofakeit.UUID(),
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), account))
	return account
}

func TestAccountRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(setupTestDB(t))

	account := createAccount(t, repo)
	require.NotZero(t, account.ID)

	got, err := repo.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.PageID, got.PageID)
	assert.Equal(t, account.AccessToken, got.AccessToken)

	got.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, repo.Delete(ctx, account.ID))
	_, err = repo.Get(ctx, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, account.ID), ErrAccountNotFound)
}

func TestAccountRepository_CreateRequiresPageID(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))
	assert.ErrorIs(t, repo.Create(context.Background(), &models.PlatformAccount{Name: "x"}), ErrInvalidInput)
}

func TestAccountRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewAccountRepository(db)

	active := createAccount(t, repo)
	inactive := createAccount(t, repo)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)
}

func TestAccountRepository_RecordCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(setupTestDB(t))
	account := createAccount(t, repo)

	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	checked := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordCheck(ctx, account.ID, true, &expiry, checked))
	got, err := repo.Get(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expiry.Equal(*got.ExpiresAt))
	assert.True(t, got.LastCheckOK)

	// a failed check keeps the known expiry
	require.NoError(t, repo.RecordCheck(ctx, account.ID, false, nil, checked.Add(time.Hour)))
	got, err = repo.Get(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiresAt)
	assert.False(t, got.LastCheckOK)

	// a valid non-expiring token clears it
	require.NoError(t, repo.RecordCheck(ctx, account.ID, true, nil, checked.Add(2*time.Hour)))
	got, err = repo.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ExpiresAt)

	assert.ErrorIs(t, repo.RecordCheck(ctx, 9999, true, nil, checked), ErrAccountNotFound)
}

func TestPostRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	accounts := NewAccountRepository(db)
	posts := NewPostRepository(db)
	account := createAccount(t, accounts)

	post := &models.Post{
		PlatformAccountID: account.ID,
		Title:             gofakeit.Word(),
		Content:           gofakeit.HipsterSentence(),
		Hashtags:          []string{"#go", "#graph"},
		Media:             []string{"/tmp/a.mp4", "/tmp/b.mp4"},
	}
	require.NoError(t, posts.Create(ctx, post))
	assert.Equal(t, models.PostStatusDraft, post.Status)

	got, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PlatformAccount)
	assert.Equal(t, account.PageID, got.PlatformAccount.PageID)
	assert.Equal(t, []string{"#go", "#graph"}, got.Hashtags)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, posts.MarkPublished(ctx, post.ID, []string{"v1", "v2"}, at))
	got, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, got.Status)
	assert.Equal(t, []string{"v1", "v2"}, got.RemoteIDs())
	require.NotNil(t, got.PublishedAt)

	require.NoError(t, posts.MarkRemoteDeleted(ctx, post.ID))
	got, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, got.Status)
	assert.Empty(t, got.RemoteIDs())
	assert.Nil(t, got.PublishedAt)

	require.NoError(t, posts.MarkFailed(ctx, post.ID, "token expired", nil))
	got, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, got.Status)
	assert.Equal(t, "token expired", got.LastError)
	assert.Empty(t, got.RemoteIDs())

	// a video that went live before the failure stays on record
	require.NoError(t, posts.MarkFailed(ctx, post.ID, "upload failed", []string{"v9"}))
	got, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, got.Status)
	assert.Equal(t, []string{"v9"}, got.RemoteIDs())

	require.NoError(t, posts.SetRemoteIDs(ctx, post.ID, []string{"v9", "v10"}))
	got, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, got.Status, "status is left alone")
	assert.Equal(t, []string{"v9", "v10"}, got.RemoteIDs())

	require.NoError(t, posts.SetRemoteIDs(ctx, post.ID, nil))
	got, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RemoteIDs())

	_, err = posts.Get(ctx, 424242)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, posts.MarkFailed(ctx, 424242, "x", nil), ErrPostNotFound)
	assert.ErrorIs(t, posts.SetRemoteIDs(ctx, 424242, []string{"v1"}), ErrPostNotFound)
	assert.ErrorIs(t, posts.MarkPublished(ctx, post.ID, nil, at), ErrInvalidInput)
}

func TestPostRepository_ListFilter(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	accounts := NewAccountRepository(db)
	posts := NewPostRepository(db)
	a := createAccount(t, accounts)
	b := createAccount(t, accounts)

	for i := 0; i < 3; i++ {
		require.NoError(t, posts.Create(ctx, &models.Post{PlatformAccountID: a.ID, Title: gofakeit.Word()}))
	}
	published := &models.Post{PlatformAccountID: b.ID, Title: "live"}
	require.NoError(t, posts.Create(ctx, published))
	require.NoError(t, posts.MarkPublished(ctx, published.ID, []string{"p1"}, time.Now()))

	tests := []struct {
		name   string
		filter PostFilter
		want   int
	}{
		{"all", PostFilter{}, 4},
		{"by account", PostFilter{AccountID: a.ID}, 3},
		{"by status", PostFilter{Status: models.PostStatusPublished}, 1},
		{"limited", PostFilter{Limit: 2}, 2},
		{"no match", PostFilter{AccountID: b.ID, Status: models.PostStatusDraft}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := posts.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestMetricRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	account := createAccount(t, NewAccountRepository(db))
	repo := NewMetricRepository(db)

	followers := int64(1200)
	require.NoError(t, repo.UpsertMetricPoints(ctx, account.ID, []analytics.MetricPoint{
		{Date: "2026-03-01", Impressions: 10, Engagements: 2, Reach: 8, LinkClicks: 1, FollowersCount: &followers},
		{Date: "2026-03-02", Impressions: 20},
	}))

	// second run rewrites the metrics without touching followers
	require.NoError(t, repo.UpsertMetricPoints(ctx, account.ID, []analytics.MetricPoint{
		{Date: "2026-03-01", Impressions: 15, Engagements: 3, Reach: 9, LinkClicks: 0},
	}))

	points, err := repo.ListRange(ctx, account.ID, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2026-03-01", points[0].Date)
	assert.Equal(t, int64(15), points[0].Impressions)
	assert.Equal(t, int64(3), points[0].Engagements)
	assert.Equal(t, int64(0), points[0].LinkClicks)
	assert.Equal(t, int64(1200), points[0].FollowersCount)
	assert.Equal(t, int64(20), points[1].Impressions)

	var count int64
	require.NoError(t, db.Model(&models.MetricPoint{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestMetricRepository_ListRangeBounds(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	account := createAccount(t, NewAccountRepository(db))
	repo := NewMetricRepository(db)

	require.NoError(t, repo.UpsertMetricPoints(ctx, account.ID, []analytics.MetricPoint{
		{Date: "2026-02-28"}, {Date: "2026-03-01"}, {Date: "2026-03-07"}, {Date: "2026-03-08"},
	}))
	require.NoError(t, repo.UpsertMetricPoints(ctx, account.ID, nil))

	points, err := repo.ListRange(ctx, account.ID, "2026-03-01", "2026-03-07")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-03-07", points[1].Date)

	other, err := repo.ListRange(ctx, account.ID+1, "2026-01-01", "2026-12-31")
	require.NoError(t, err)
	assert.Empty(t, other)
}
