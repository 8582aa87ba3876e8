package service_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/metrics"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/service"
	"github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/pkg/logger"
)

// newMockDb creates a GORM DB instance backed by go-sqlmock
func newMockDb(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db, mock
}

// staticCatalog serves one fixed show.
type staticCatalog struct {
	tree catalog.ShowTree
}

func (c staticCatalog) GetShow(_ context.Context, showID int64) (catalog.ShowInfo, error) {
	if showID != c.tree.Show.ID {
		return catalog.ShowInfo{}, errors.NotFound("show not found")
	}
	return c.tree.Show, nil
}

func (c staticCatalog) ListSeasons(_ context.Context, showID int64) ([]catalog.SeasonInfo, error) {
	var seasons []catalog.SeasonInfo
	for _, s := range c.tree.Seasons {
		if s.Season.ShowID == showID {
			seasons = append(seasons, s.Season)
		}
	}
	return seasons, nil
}

func (c staticCatalog) ListEpisodes(_ context.Context, seasonID int64) ([]catalog.EpisodeInfo, error) {
	for _, s := range c.tree.Seasons {
		if s.Season.ID == seasonID {
			return s.Episodes, nil
		}
	}
	return nil, nil
}

func (c staticCatalog) GetEpisode(_ context.Context, episodeID int64) (catalog.EpisodeInfo, error) {
	for _, s := range c.tree.Seasons {
		for _, e := range s.Episodes {
			if e.ID == episodeID {
				return e, nil
			}
		}
	}
	return catalog.EpisodeInfo{}, errors.NotFound("episode not found")
}

func newMockService(t *testing.T) (*service.Service, sqlmock.Sqlmock, *recordingPublisher) {
	svc, mock, publisher, _ := newMockServiceWithMetrics(t)
	return svc, mock, publisher
}

func newMockServiceWithMetrics(t *testing.T) (*service.Service, sqlmock.Sqlmock, *recordingPublisher, *metrics.Metrics) {
	db, mock := newMockDb(t)
	cat := staticCatalog{tree: catalog.ShowTree{
		Show: catalog.ShowInfo{ID: 1},
		Seasons: []catalog.SeasonTree{{
			Season:   catalog.SeasonInfo{ID: 11, ShowID: 1, SeasonNumber: 1},
			Episodes: []catalog.EpisodeInfo{{ID: 111, ShowID: 1, SeasonID: 11, EpisodeNumber: 1}},
		}},
	}}
	publisher := &recordingPublisher{}
	m := metrics.NewNop()
	svc := service.New(
		repository.NewUnitOfWork(db, 0),
		repository.NewStatusStore(db, 0),
		repository.NewNextUpReader(db),
		cat,
		publisher,
		logger.NewNoop(),
		m,
		service.Options{},
	)
	return svc, mock, publisher, m
}

func TestSetAndCascade_InfrastructureError(t *testing.T) {
	svc, mock, publisher := newMockService(t)
	dbErr := stderrors.New("connection refused")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "show_watch_status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "season_watch_status"`).WillReturnError(dbErr)
	mock.ExpectRollback()

	_, err := svc.SetAndCascade(context.Background(), uuid.New(), 1, domain.StatusWatched)
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	assert.False(t, errors.IsNotFound(err))
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, publisher.operations())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavorite_BeginFails(t *testing.T) {
	svc, mock, _ := newMockService(t)
	mock.ExpectBegin().WillReturnError(stderrors.New("too many connections"))

	_, err := svc.AddFavorite(context.Background(), uuid.New(), 1, true)
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWatchStatus_InfrastructureError(t *testing.T) {
	svc, mock, _ := newMockService(t)
	mock.ExpectQuery(`SELECT "status" FROM "show_watch_status"`).WillReturnError(stderrors.New("i/o timeout"))

	_, err := svc.GetWatchStatus(context.Background(), uuid.New(), domain.KindShow, 1)
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEpisodeStatus_CommitFails(t *testing.T) {
	svc, mock, publisher := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "episode_watch_status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(stderrors.New("could not serialize access"))

	_, err := svc.SetEpisodeStatus(context.Background(), uuid.New(), 111, domain.StatusWatched)
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	assert.Empty(t, publisher.operations())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAndCascade_SeededRowsNotCountedOnRollback(t *testing.T) {
	svc, mock, publisher, m := newMockServiceWithMetrics(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "show_watch_status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "season_watch_status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "episode_watch_status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	// The catalog gained a child the profile has no row for yet.
	mock.ExpectQuery(`INSERT INTO "season_watch_status"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "episode_watch_status"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`UPDATE "season_watch_status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "episode_watch_status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(stderrors.New("could not serialize access"))

	_, err := svc.SetAndCascade(context.Background(), uuid.New(), 1, domain.StatusWatched)
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	assert.Zero(t, testutil.ToFloat64(m.RowsSeeded.WithLabelValues("season")))
	assert.Zero(t, testutil.ToFloat64(m.RowsSeeded.WithLabelValues("episode")))
	assert.Empty(t, publisher.operations())
	assert.NoError(t, mock.ExpectationsWereMet())
}
