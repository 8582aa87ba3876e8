package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

// EpisodeStatusResolver writes the binary status of a single episode. It
// never aggregates; callers that need consistent seasons and shows follow
// up with CascadeCoordinator.Recompute.
type EpisodeStatusResolver struct {
	tx      txRunner
	catalog catalog.ContentCatalog
	logger  interfaces.Logger
}

// NewEpisodeStatusResolver creates a new episode status resolver
func NewEpisodeStatusResolver(uow repository.UnitOfWork, c catalog.ContentCatalog, logger interfaces.Logger, opts Options) *EpisodeStatusResolver {
	opts = opts.withDefaults()
	return &EpisodeStatusResolver{
		tx:      txRunner{uow: uow, timeout: opts.TransactionTimeout},
		catalog: c,
		logger:  logger,
	}
}

// SetEpisodeStatus sets exactly one episode row. The outcome is NotFound when
// the profile has no row for the episode.
func (r *EpisodeStatusResolver) SetEpisodeStatus(ctx context.Context, profileID uuid.UUID, episodeID int64, status domain.Status) (domain.Result, error) {
	episode, res, err := r.resolve(ctx, episodeID, status)
	if err != nil || res != nil {
		return derefResult(res), err
	}
	key := domain.ShowKey{ProfileID: profileID, ShowID: episode.ShowID}

	found := false
	err = r.tx.run(ctx, func(ctx context.Context, store repository.StatusStore) (bool, error) {
		rows, err := store.UpdateEpisodeStatuses(ctx, profileID, []int64{episodeID}, status)
		if err != nil {
			return false, err
		}
		found = rows > 0
		return found, nil
	})
	if err != nil {
		return domain.Result{}, internalError("failed to set episode status", err)
	}
	if !found {
		return domain.NotFound(), nil
	}

	r.logger.Debug("Episode status set",
		interfaces.Stringer("profile_id", profileID),
		interfaces.Int64("episode_id", episodeID),
		interfaces.String("status", status.String()))
	return domain.Applied(key), nil
}

// resolve validates the status and finds the episode's show. A non-nil
// result ends the call early.
func (r *EpisodeStatusResolver) resolve(ctx context.Context, episodeID int64, status domain.Status) (catalog.EpisodeInfo, *domain.Result, error) {
	if !status.ValidForEpisode() {
		return catalog.EpisodeInfo{}, nil, pkgerrors.BadRequest(fmt.Sprintf("invalid episode status %q", status))
	}

	episode, err := r.catalog.GetEpisode(ctx, episodeID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			res := domain.NotFound()
			return catalog.EpisodeInfo{}, &res, nil
		}
		return catalog.EpisodeInfo{}, nil, internalError("failed to load episode from catalog", err)
	}
	return episode, nil, nil
}

func derefResult(res *domain.Result) domain.Result {
	if res == nil {
		return domain.Result{}
	}
	return *res
}
