package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

// NextUnwatchedFinder builds a profile's continue-watching list.
type NextUnwatchedFinder struct {
	reader       repository.NextUpReader
	logger       interfaces.Logger
	now          func() time.Time
	showLimit    int
	episodeLimit int
}

// NewNextUnwatchedFinder creates a new next unwatched finder
func NewNextUnwatchedFinder(reader repository.NextUpReader, logger interfaces.Logger, opts Options) *NextUnwatchedFinder {
	opts = opts.withDefaults()
	return &NextUnwatchedFinder{
		reader:       reader,
		logger:       logger,
		now:          opts.Now,
		showLimit:    opts.NextUpShowLimit,
		episodeLimit: opts.NextUpEpisodeLimit,
	}
}

// NextUnwatched returns up to the show limit of in-progress shows, most
// recently watched first, each with up to the episode limit of aired
// unwatched episodes in airing order.
func (f *NextUnwatchedFinder) NextUnwatched(ctx context.Context, profileID uuid.UUID) ([]domain.NextUpShow, error) {
	now := f.now()
	inProgress, err := f.reader.InProgressShows(ctx, profileID, now, f.showLimit)
	if err != nil {
		return nil, internalError("failed to find in-progress shows", err)
	}
	if len(inProgress) == 0 {
		return []domain.NextUpShow{}, nil
	}

	shows := make([]domain.NextUpShow, len(inProgress))
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(len(inProgress))
	for i, show := range inProgress {
		p.Go(func(ctx context.Context) error {
			episodes, err := f.reader.NextEpisodes(ctx, profileID, show.ShowID, now, f.episodeLimit)
			if err != nil {
				return err
			}
			shows[i] = domain.NextUpShow{ShowID: show.ShowID, LastWatchedAt: show.LastWatchedAt, Episodes: episodes}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, internalError("failed to find next episodes", err)
	}

	result := shows[:0]
	for _, show := range shows {
		if len(show.Episodes) > 0 {
			result = append(result, show)
		}
	}

	f.logger.Debug("Next unwatched computed",
		interfaces.Stringer("profile_id", profileID),
		interfaces.Int("shows", len(result)))
	return result, nil
}
