package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/watchstate/internal/metrics"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

// CascadeCoordinator keeps the three status tiers of one (profile, show)
// consistent. Every call is a single unit of work.
type CascadeCoordinator struct {
	tx        txRunner
	catalog   catalog.ContentCatalog
	logger    interfaces.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	reconcile bool
}

// NewCascadeCoordinator creates a new cascade coordinator
func NewCascadeCoordinator(uow repository.UnitOfWork, c catalog.ContentCatalog, logger interfaces.Logger, m *metrics.Metrics, opts Options) *CascadeCoordinator {
	opts = opts.withDefaults()
	return &CascadeCoordinator{
		tx:        txRunner{uow: uow, timeout: opts.TransactionTimeout},
		catalog:   c,
		logger:    logger,
		metrics:   m,
		now:       opts.Now,
		reconcile: opts.ReconcileAfterCascade,
	}
}

// SetAndCascade sets the show, every season and every episode of the show
// to status, collapsing it to WATCHED/NOT_WATCHED for episodes. Any step
// that matches no rows rolls back everything. Children the catalog gained
// after the favorite was added get rows carrying the new status.
func (c *CascadeCoordinator) SetAndCascade(ctx context.Context, profileID uuid.UUID, showID int64, status domain.Status) (domain.Result, error) {
	if !status.Valid() {
		return domain.Result{}, pkgerrors.BadRequest(fmt.Sprintf("invalid watch status %q", status))
	}

	tree, err := loadTree(ctx, c.catalog, showID)
	if err != nil {
		return domain.Result{}, err
	}
	key := domain.ShowKey{ProfileID: profileID, ShowID: showID}
	log := c.logger.WithFields(
		interfaces.Stringer("profile_id", profileID),
		interfaces.Int64("show_id", showID),
		interfaces.String("status", status.String()))

	res := domain.Applied(key)
	var seeded seedCounts
	err = c.tx.run(ctx, func(ctx context.Context, store repository.StatusStore) (bool, error) {
		rows, err := store.UpdateShowStatus(ctx, profileID, showID, status)
		if err != nil {
			return false, err
		}
		if rows == 0 {
			res = domain.NotFound()
			return false, nil
		}

		missing, err := c.cascadeChildren(ctx, store, profileID, tree, status)
		if err != nil {
			return false, err
		}
		if missing != "" {
			log.Warn("Cascade aborted: no rows matched", interfaces.String("tier", string(missing)))
			res = domain.Aborted()
			return false, nil
		}

		if seeded, err = c.seedChildren(ctx, store, profileID, tree); err != nil {
			return false, err
		}
		if seeded.total() > 0 {
			if _, err := c.cascadeChildren(ctx, store, profileID, tree, status); err != nil {
				return false, err
			}
		}

		if c.reconcile {
			r, err := c.recompute(ctx, store, key, tree)
			if err != nil {
				return false, err
			}
			seeded = seeded.add(r.seeded)
		}
		return true, nil
	})
	if err != nil {
		log.Error("Cascade failed", interfaces.Error(err))
		return domain.Result{}, internalError("failed to cascade watch status", err)
	}

	if res.Outcome == domain.OutcomeApplied {
		seeded.record(c.metrics)
		log.Info("Watch status cascaded", interfaces.Int64("seeded", seeded.total()))
	}
	return res, nil
}

// cascadeChildren writes status to every season row and its episode
// collapse to every episode row. It names the tier that matched no rows.
func (c *CascadeCoordinator) cascadeChildren(ctx context.Context, store repository.StatusStore, profileID uuid.UUID, tree *catalog.ShowTree, status domain.Status) (domain.Kind, error) {
	rows, err := store.UpdateSeasonStatuses(ctx, profileID, tree.SeasonIDs(), status)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		return domain.KindSeason, nil
	}
	rows, err = store.UpdateEpisodeStatuses(ctx, profileID, tree.EpisodeIDs(), domain.EpisodeStatusFor(status))
	if err != nil {
		return "", err
	}
	if rows == 0 {
		return domain.KindEpisode, nil
	}
	return "", nil
}

// Recompute re-derives season and show statuses from the episodes, seeding
// rows for children the catalog gained since the favorite was added.
// Catalog data is read before the transaction begins.
func (c *CascadeCoordinator) Recompute(ctx context.Context, profileID uuid.UUID, showID int64) (domain.Result, error) {
	tree, err := loadTree(ctx, c.catalog, showID)
	if err != nil {
		return domain.Result{}, err
	}
	key := domain.ShowKey{ProfileID: profileID, ShowID: showID}

	var r recomputation
	err = c.tx.run(ctx, func(ctx context.Context, store repository.StatusStore) (bool, error) {
		var err error
		r, err = c.recompute(ctx, store, key, tree)
		return r.found && r.changed, err
	})
	if err != nil {
		return domain.Result{}, internalError("failed to recompute watch status", err)
	}
	if r.found && r.changed {
		r.seeded.record(c.metrics)
	}
	return r.result(key), nil
}

// recomputation reports what recompute did inside its transaction.
type recomputation struct {
	found   bool
	changed bool
	seeded  seedCounts
}

func (r recomputation) result(key domain.ShowKey) domain.Result {
	switch {
	case !r.found:
		return domain.NotFound()
	case r.changed:
		return domain.Applied(key)
	default:
		return domain.Unchanged()
	}
}

// recompute runs the bottom-up aggregation inside an open transaction.
func (c *CascadeCoordinator) recompute(ctx context.Context, store repository.StatusStore, key domain.ShowKey, tree *catalog.ShowTree) (recomputation, error) {
	var r recomputation
	current, err := store.GetStatus(ctx, key.ProfileID, domain.KindShow, key.ShowID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return r, nil
		}
		return r, err
	}
	r.found = true

	if r.seeded, err = c.seedChildren(ctx, store, key.ProfileID, tree); err != nil {
		return r, err
	}
	r.changed = r.seeded.total() > 0

	episodeStatuses, err := store.EpisodeStatuses(ctx, key.ProfileID, tree.EpisodeIDs())
	if err != nil {
		return r, err
	}
	seasonStatuses, err := store.SeasonStatuses(ctx, key.ProfileID, tree.SeasonIDs())
	if err != nil {
		return r, err
	}

	now := c.now()
	derived := make([]domain.Status, 0, len(tree.Seasons))
	updates := make(map[domain.Status][]int64)
	for _, season := range tree.Seasons {
		if len(season.Episodes) == 0 {
			c.anomaly(domain.KindSeason, key, season.Season.ID)
		}

		states := make([]domain.EpisodeState, len(season.Episodes))
		for i, e := range season.Episodes {
			status, ok := episodeStatuses[e.ID]
			if !ok {
				status = domain.StatusNotWatched
			}
			states[i] = domain.EpisodeState{AirDate: e.AirDate, Status: status}
		}

		status := domain.SeasonStatus(states, now)
		derived = append(derived, status)
		if seasonStatuses[season.Season.ID] != status {
			updates[status] = append(updates[status], season.Season.ID)
		}
	}

	for status, ids := range updates {
		if _, err := store.UpdateSeasonStatuses(ctx, key.ProfileID, ids, status); err != nil {
			return r, err
		}
		r.changed = true
	}

	if len(tree.Seasons) == 0 {
		c.anomaly(domain.KindShow, key, key.ShowID)
	}
	if status := domain.ShowStatus(derived); status != current {
		if _, err := store.UpdateShowStatus(ctx, key.ProfileID, key.ShowID, status); err != nil {
			return r, err
		}
		r.changed = true
	}
	return r, nil
}

// seedCounts holds the rows seedChildren created. They reach the metrics
// only once the transaction has committed.
type seedCounts struct {
	seasons  int64
	episodes int64
}

func (n seedCounts) total() int64 { return n.seasons + n.episodes }

func (n seedCounts) add(o seedCounts) seedCounts {
	return seedCounts{seasons: n.seasons + o.seasons, episodes: n.episodes + o.episodes}
}

func (n seedCounts) record(m *metrics.Metrics) {
	m.RowsSeeded.WithLabelValues(string(domain.KindSeason)).Add(float64(n.seasons))
	m.RowsSeeded.WithLabelValues(string(domain.KindEpisode)).Add(float64(n.episodes))
}

// seedChildren creates NOT_WATCHED rows for every known season and episode
// that has none yet. Existing rows are left untouched.
func (c *CascadeCoordinator) seedChildren(ctx context.Context, store repository.StatusStore, profileID uuid.UUID, tree *catalog.ShowTree) (seedCounts, error) {
	var n seedCounts
	var err error
	if n.seasons, err = store.InsertSeasonStatuses(ctx, profileID, tree.Show.ID, tree.SeasonIDs()); err != nil {
		return seedCounts{}, err
	}
	if n.episodes, err = store.InsertEpisodeStatuses(ctx, profileID, tree.Show.ID, tree.EpisodeIDs()); err != nil {
		return seedCounts{}, err
	}
	return n, nil
}

func (c *CascadeCoordinator) anomaly(kind domain.Kind, key domain.ShowKey, id int64) {
	c.metrics.AggregationAnomalies.WithLabelValues(string(kind)).Inc()
	c.logger.Warn("Aggregating without known children, treating as not watched",
		interfaces.String("tier", string(kind)),
		interfaces.Int64("id", id),
		interfaces.Stringer("profile_id", key.ProfileID),
		interfaces.Int64("show_id", key.ShowID))
}
