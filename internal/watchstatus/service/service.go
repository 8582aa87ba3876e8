// Package service implements the watch status engine: per-episode writes,
// top-down and bottom-up cascades, favorite lifecycle and the
// continue-watching query.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/watchstate/internal/metrics"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/invalidation"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

// Operation names used for metrics and invalidation messages.
const (
	OpSetAndCascade                = "set_and_cascade"
	OpSetEpisodeStatus             = "set_episode_status"
	OpSetEpisodeStatusAndRecompute = "set_episode_status_and_recompute"
	OpRecompute                    = "recompute"
	OpAddFavorite                  = "add_favorite"
	OpRemoveFavorite               = "remove_favorite"
	OpNextUnwatched                = "next_unwatched"
)

// Service is the engine's entry point. Every mutating call returns the
// (profile, show) pairs it changed and publishes them once committed.
type Service struct {
	Episodes  *EpisodeStatusResolver
	Cascade   *CascadeCoordinator
	Favorites *FavoriteLifecycleManager
	NextUp    *NextUnwatchedFinder

	tx        txRunner
	statuses  repository.StatusStore
	catalog   catalog.ContentCatalog
	publisher invalidation.Publisher
	logger    interfaces.Logger
	metrics   *metrics.Metrics
}

// New creates the engine
func New(
	uow repository.UnitOfWork,
	statuses repository.StatusStore,
	reader repository.NextUpReader,
	c catalog.ContentCatalog,
	publisher invalidation.Publisher,
	logger interfaces.Logger,
	m *metrics.Metrics,
	opts Options,
) *Service {
	opts = opts.withDefaults()
	return &Service{
		Episodes:  NewEpisodeStatusResolver(uow, c, logger, opts),
		Cascade:   NewCascadeCoordinator(uow, c, logger, m, opts),
		Favorites: NewFavoriteLifecycleManager(uow, c, logger, m, opts),
		NextUp:    NewNextUnwatchedFinder(reader, logger, opts),
		tx:        txRunner{uow: uow, timeout: opts.TransactionTimeout},
		statuses:  statuses,
		catalog:   c,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// SetAndCascade sets a show and its whole subtree to status.
func (s *Service) SetAndCascade(ctx context.Context, profileID uuid.UUID, showID int64, status domain.Status) (domain.Result, error) {
	started := time.Now()
	res, err := s.Cascade.SetAndCascade(ctx, profileID, showID, status)
	return s.finish(ctx, OpSetAndCascade, started, res, err)
}

// SetEpisodeStatus sets one episode without aggregating. Call Recompute
// afterwards to bring the season and show up to date.
func (s *Service) SetEpisodeStatus(ctx context.Context, profileID uuid.UUID, episodeID int64, status domain.Status) (domain.Result, error) {
	started := time.Now()
	res, err := s.Episodes.SetEpisodeStatus(ctx, profileID, episodeID, status)
	return s.finish(ctx, OpSetEpisodeStatus, started, res, err)
}

// SetEpisodeStatusAndRecompute sets one episode and re-aggregates its show
// in the same transaction.
func (s *Service) SetEpisodeStatusAndRecompute(ctx context.Context, profileID uuid.UUID, episodeID int64, status domain.Status) (domain.Result, error) {
	started := time.Now()
	res, err := s.setEpisodeAndRecompute(ctx, profileID, episodeID, status)
	return s.finish(ctx, OpSetEpisodeStatusAndRecompute, started, res, err)
}

func (s *Service) setEpisodeAndRecompute(ctx context.Context, profileID uuid.UUID, episodeID int64, status domain.Status) (domain.Result, error) {
	episode, early, err := s.Episodes.resolve(ctx, episodeID, status)
	if err != nil || early != nil {
		return derefResult(early), err
	}
	tree, err := loadTree(ctx, s.catalog, episode.ShowID)
	if err != nil {
		return domain.Result{}, err
	}
	key := domain.ShowKey{ProfileID: profileID, ShowID: episode.ShowID}

	var r recomputation
	err = s.tx.run(ctx, func(ctx context.Context, store repository.StatusStore) (bool, error) {
		rows, err := store.UpdateEpisodeStatuses(ctx, profileID, []int64{episodeID}, status)
		if err != nil || rows == 0 {
			return false, err
		}
		r, err = s.Cascade.recompute(ctx, store, key, tree)
		return r.found, err
	})
	if err != nil {
		return domain.Result{}, internalError("failed to set episode status", err)
	}
	if !r.found {
		return domain.NotFound(), nil
	}
	r.seeded.record(s.metrics)
	return domain.Applied(key), nil
}

// Recompute re-derives the season and show statuses of one favorite.
func (s *Service) Recompute(ctx context.Context, profileID uuid.UUID, showID int64) (domain.Result, error) {
	started := time.Now()
	res, err := s.Cascade.Recompute(ctx, profileID, showID)
	return s.finish(ctx, OpRecompute, started, res, err)
}

// RecomputeShow recomputes the show for every profile that favorites it.
// Content ingestion calls it after a show's seasons or episodes change.
// Profiles are independent; one failing does not stop the others.
func (s *Service) RecomputeShow(ctx context.Context, showID int64) (domain.Result, error) {
	profiles, err := s.statuses.ProfilesFavoriting(ctx, showID)
	if err != nil {
		return domain.Result{}, internalError("failed to list profiles favoriting show", err)
	}

	combined := domain.Unchanged()
	var firstErr error
	for _, profileID := range profiles {
		res, err := s.Recompute(ctx, profileID, showID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if res.Outcome == domain.OutcomeApplied {
			combined.Outcome = domain.OutcomeApplied
			combined.Affected = append(combined.Affected, res.Affected...)
		}
	}
	return combined, firstErr
}

// AddFavorite seeds the status rows of a newly favorited show.
func (s *Service) AddFavorite(ctx context.Context, profileID uuid.UUID, showID int64, seedChildren bool) (domain.Result, error) {
	started := time.Now()
	res, err := s.Favorites.AddFavorite(ctx, profileID, showID, seedChildren)
	return s.finish(ctx, OpAddFavorite, started, res, err)
}

// RemoveFavorite tears down the status rows of a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, profileID uuid.UUID, showID int64) (domain.Result, error) {
	started := time.Now()
	res, err := s.Favorites.RemoveFavorite(ctx, profileID, showID)
	return s.finish(ctx, OpRemoveFavorite, started, res, err)
}

// GetWatchStatus returns the persisted status of a show, season or episode,
// or a NotFound error when the profile has no row for it.
func (s *Service) GetWatchStatus(ctx context.Context, profileID uuid.UUID, kind domain.Kind, id int64) (domain.Status, error) {
	status, err := s.statuses.GetStatus(ctx, profileID, kind, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) || pkgerrors.IsBadRequest(err) {
			return "", err
		}
		return "", internalError("failed to read watch status", err)
	}
	return status, nil
}

// NextUnwatched returns the profile's continue-watching list.
func (s *Service) NextUnwatched(ctx context.Context, profileID uuid.UUID) ([]domain.NextUpShow, error) {
	started := time.Now()
	shows, err := s.NextUp.NextUnwatched(ctx, profileID)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveOperation(OpNextUnwatched, outcome, started)
	return shows, err
}

// finish records the call and, after a committed change, publishes the
// affected pairs. Publishing failures are logged, never returned: the
// change is already durable.
func (s *Service) finish(ctx context.Context, op string, started time.Time, res domain.Result, err error) (domain.Result, error) {
	if err != nil {
		s.metrics.ObserveOperation(op, "error", started)
		if pkgerrors.IsInternal(err) {
			s.logger.Error("Watch status operation failed",
				interfaces.String("operation", op),
				interfaces.String("reason", err.Error()),
				interfaces.Error(pkgerrors.Cause(err)))
		}
		return res, err
	}
	s.metrics.ObserveOperation(op, string(res.Outcome), started)

	if res.Outcome == domain.OutcomeApplied && len(res.Affected) > 0 {
		if perr := s.publisher.Publish(ctx, op, res.Affected); perr != nil {
			s.metrics.InvalidationFailures.WithLabelValues(op).Inc()
			s.logger.Warn("Failed to publish invalidation",
				interfaces.String("operation", op),
				interfaces.Int("affected", len(res.Affected)),
				interfaces.Error(perr))
		}
	}
	return res, nil
}
