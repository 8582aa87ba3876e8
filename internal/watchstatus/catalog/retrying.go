package catalog

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
)

// RetryingCatalog retries transient catalog failures. Lookups of unknown
// ids are answered immediately.
type RetryingCatalog struct {
	next     ContentCatalog
	attempts uint
	delay    time.Duration
}

// NewRetryingCatalog wraps next.
func NewRetryingCatalog(next ContentCatalog, attempts uint, delay time.Duration) *RetryingCatalog {
	if attempts == 0 {
		attempts = 1
	}
	return &RetryingCatalog{next: next, attempts: attempts, delay: delay}
}

func (c *RetryingCatalog) options(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !pkgerrors.IsNotFound(err) && !pkgerrors.IsBadRequest(err)
		}),
	}
}

// GetShow implements ContentCatalog.
func (c *RetryingCatalog) GetShow(ctx context.Context, showID int64) (ShowInfo, error) {
	return retry.DoWithData(func() (ShowInfo, error) {
		return c.next.GetShow(ctx, showID)
	}, c.options(ctx)...)
}

// ListSeasons implements ContentCatalog.
func (c *RetryingCatalog) ListSeasons(ctx context.Context, showID int64) ([]SeasonInfo, error) {
	return retry.DoWithData(func() ([]SeasonInfo, error) {
		return c.next.ListSeasons(ctx, showID)
	}, c.options(ctx)...)
}

// ListEpisodes implements ContentCatalog.
func (c *RetryingCatalog) ListEpisodes(ctx context.Context, seasonID int64) ([]EpisodeInfo, error) {
	return retry.DoWithData(func() ([]EpisodeInfo, error) {
		return c.next.ListEpisodes(ctx, seasonID)
	}, c.options(ctx)...)
}

// GetEpisode implements ContentCatalog.
func (c *RetryingCatalog) GetEpisode(ctx context.Context, episodeID int64) (EpisodeInfo, error) {
	return retry.DoWithData(func() (EpisodeInfo, error) {
		return c.next.GetEpisode(ctx, episodeID)
	}, c.options(ctx)...)
}
