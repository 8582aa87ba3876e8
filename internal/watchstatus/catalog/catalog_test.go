package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/test/testutil"
)

// MockCatalog is a mock for the content catalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetShow(ctx context.Context, showID int64) (catalog.ShowInfo, error) {
	args := m.Called(ctx, showID)
	return args.Get(0).(catalog.ShowInfo), args.Error(1)
}

func (m *MockCatalog) ListSeasons(ctx context.Context, showID int64) ([]catalog.SeasonInfo, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.SeasonInfo), args.Error(1)
}

func (m *MockCatalog) ListEpisodes(ctx context.Context, seasonID int64) ([]catalog.EpisodeInfo, error) {
	args := m.Called(ctx, seasonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.EpisodeInfo), args.Error(1)
}

func (m *MockCatalog) GetEpisode(ctx context.Context, episodeID int64) (catalog.EpisodeInfo, error) {
	args := m.Called(ctx, episodeID)
	return args.Get(0).(catalog.EpisodeInfo), args.Error(1)
}

func TestGormCatalog_LoadShowTree(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.SeedShow(t, db, testutil.ScenarioShow(1))
	ctx := context.Background()

	tree, err := catalog.LoadShowTree(ctx, catalog.NewGormCatalog(db), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), tree.Show.ID)
	assert.True(t, tree.Show.InProduction)
	assert.Equal(t, []int64{101, 102}, tree.SeasonIDs())
	assert.Equal(t, []int64{1001, 1002, 1003, 1004, 1005}, tree.EpisodeIDs())
	require.Len(t, tree.Seasons[1].Episodes, 2)
	assert.Equal(t, 2, tree.Seasons[1].Episodes[1].EpisodeNumber)
}

func TestGormCatalog_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	c := catalog.NewGormCatalog(db)
	ctx := context.Background()

	_, err := c.GetShow(ctx, 42)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = c.GetEpisode(ctx, 42)
	assert.True(t, pkgerrors.IsNotFound(err))

	seasons, err := c.ListSeasons(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, seasons)
}

func TestCachedCatalog_ReadThroughAndForget(t *testing.T) {
	ctx := context.Background()
	next := new(MockCatalog)
	seasons := []catalog.SeasonInfo{{ID: 11, ShowID: 1, SeasonNumber: 1}}
	episodes := []catalog.EpisodeInfo{{ID: 111, ShowID: 1, SeasonID: 11, EpisodeNumber: 1}}

	next.On("GetShow", ctx, int64(1)).Return(catalog.ShowInfo{ID: 1}, nil).Twice()
	next.On("ListSeasons", ctx, int64(1)).Return(seasons, nil).Twice()
	next.On("ListEpisodes", ctx, int64(11)).Return(episodes, nil).Twice()
	next.On("GetEpisode", ctx, int64(111)).Return(episodes[0], nil).Twice()

	c := catalog.NewCachedCatalog(next, time.Minute)
	for i := 0; i < 3; i++ {
		_, err := catalog.LoadShowTree(ctx, c, 1)
		require.NoError(t, err)
		_, err = c.GetEpisode(ctx, 111)
		require.NoError(t, err)
	}

	c.Forget(1)

	tree, err := catalog.LoadShowTree(ctx, c, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{111}, tree.EpisodeIDs())
	_, err = c.GetEpisode(ctx, 111)
	require.NoError(t, err)

	next.AssertExpectations(t)
}

func TestCachedCatalog_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := new(MockCatalog)
	next.On("GetShow", ctx, int64(7)).Return(catalog.ShowInfo{}, pkgerrors.NotFound("show 7 not found")).Once()
	next.On("GetShow", ctx, int64(7)).Return(catalog.ShowInfo{ID: 7}, nil).Once()

	c := catalog.NewCachedCatalog(next, time.Minute)
	_, err := c.GetShow(ctx, 7)
	assert.True(t, pkgerrors.IsNotFound(err))

	show, err := c.GetShow(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), show.ID)
	next.AssertExpectations(t)
}

func TestRetryingCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("retries transient failures", func(t *testing.T) {
		next := new(MockCatalog)
		next.On("ListSeasons", ctx, int64(1)).Return(nil, errors.New("connection reset")).Twice()
		next.On("ListSeasons", ctx, int64(1)).Return([]catalog.SeasonInfo{{ID: 11}}, nil).Once()

		c := catalog.NewRetryingCatalog(next, 3, time.Millisecond)
		seasons, err := c.ListSeasons(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, seasons, 1)
		next.AssertExpectations(t)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		next := new(MockCatalog)
		next.On("GetEpisode", ctx, int64(5)).Return(catalog.EpisodeInfo{}, errors.New("timeout")).Times(2)

		c := catalog.NewRetryingCatalog(next, 2, time.Millisecond)
		_, err := c.GetEpisode(ctx, 5)
		assert.EqualError(t, err, "timeout")
		next.AssertExpectations(t)
	})

	t.Run("does not retry not found", func(t *testing.T) {
		next := new(MockCatalog)
		next.On("GetShow", ctx, int64(9)).Return(catalog.ShowInfo{}, pkgerrors.NotFound("show 9 not found")).Once()

		c := catalog.NewRetryingCatalog(next, 5, time.Millisecond)
		_, err := c.GetShow(ctx, 9)
		assert.True(t, pkgerrors.IsNotFound(err))
		next.AssertNumberOfCalls(t, "GetShow", 1)
	})
}
