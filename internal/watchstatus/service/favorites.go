package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/narwhalmedia/watchstate/internal/metrics"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

// FavoriteLifecycleManager creates and destroys the status subtree of a
// favorited show.
type FavoriteLifecycleManager struct {
	tx      txRunner
	catalog catalog.ContentCatalog
	logger  interfaces.Logger
	metrics *metrics.Metrics
}

// NewFavoriteLifecycleManager creates a new favorite lifecycle manager
func NewFavoriteLifecycleManager(uow repository.UnitOfWork, c catalog.ContentCatalog, logger interfaces.Logger, m *metrics.Metrics, opts Options) *FavoriteLifecycleManager {
	opts = opts.withDefaults()
	return &FavoriteLifecycleManager{
		tx:      txRunner{uow: uow, timeout: opts.TransactionTimeout},
		catalog: c,
		logger:  logger,
		metrics: m,
	}
}

// AddFavorite inserts the show row and, with seedChildren, one NOT_WATCHED
// row per known season and episode. Rows that already exist keep their
// status, so adding twice changes nothing.
func (f *FavoriteLifecycleManager) AddFavorite(ctx context.Context, profileID uuid.UUID, showID int64, seedChildren bool) (domain.Result, error) {
	var tree *catalog.ShowTree
	if seedChildren {
		var err error
		tree, err = catalog.LoadShowTree(ctx, f.catalog, showID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				return domain.NotFound(), nil
			}
			return domain.Result{}, internalError("failed to load show from catalog", err)
		}
	}

	var shows, seasons, episodes int64
	err := f.tx.run(ctx, func(ctx context.Context, store repository.StatusStore) (bool, error) {
		var err error
		if shows, err = store.InsertShowStatus(ctx, profileID, showID); err != nil {
			return false, err
		}
		if tree != nil {
			if seasons, err = store.InsertSeasonStatuses(ctx, profileID, showID, tree.SeasonIDs()); err != nil {
				return false, err
			}
			if episodes, err = store.InsertEpisodeStatuses(ctx, profileID, showID, tree.EpisodeIDs()); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return domain.Result{}, internalError("failed to add favorite", err)
	}

	f.metrics.RowsSeeded.WithLabelValues(string(domain.KindShow)).Add(float64(shows))
	f.metrics.RowsSeeded.WithLabelValues(string(domain.KindSeason)).Add(float64(seasons))
	f.metrics.RowsSeeded.WithLabelValues(string(domain.KindEpisode)).Add(float64(episodes))

	if shows+seasons+episodes == 0 {
		return domain.Unchanged(), nil
	}

	f.logger.Info("Favorite added",
		interfaces.Stringer("profile_id", profileID),
		interfaces.Int64("show_id", showID),
		interfaces.Int64("seasons", seasons),
		interfaces.Int64("episodes", episodes))
	return domain.Applied(domain.ShowKey{ProfileID: profileID, ShowID: showID}), nil
}

// RemoveFavorite deletes episode rows, then season rows, then the show row.
// Rows are matched by the show id stored on them, so children the catalog
// has since dropped are removed as well.
func (f *FavoriteLifecycleManager) RemoveFavorite(ctx context.Context, profileID uuid.UUID, showID int64) (domain.Result, error) {
	found := false
	err := f.tx.run(ctx, func(ctx context.Context, store repository.StatusStore) (bool, error) {
		if _, err := store.DeleteEpisodeStatuses(ctx, profileID, showID); err != nil {
			return false, err
		}
		if _, err := store.DeleteSeasonStatuses(ctx, profileID, showID); err != nil {
			return false, err
		}
		rows, err := store.DeleteShowStatus(ctx, profileID, showID)
		if err != nil {
			return false, err
		}
		found = rows > 0
		return found, nil
	})
	if err != nil {
		return domain.Result{}, internalError("failed to remove favorite", err)
	}
	if !found {
		return domain.NotFound(), nil
	}

	f.logger.Info("Favorite removed",
		interfaces.Stringer("profile_id", profileID),
		interfaces.Int64("show_id", showID))
	return domain.Applied(domain.ShowKey{ProfileID: profileID, ShowID: showID}), nil
}
