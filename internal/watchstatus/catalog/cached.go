package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedCatalog is a read-through cache in front of another catalog.
// Ingestion calls Forget when a show's metadata changes.
type CachedCatalog struct {
	next  ContentCatalog
	cache *cache.Cache
}

// NewCachedCatalog wraps next with a cache whose entries expire after ttl.
func NewCachedCatalog(next ContentCatalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func showKey(id int64) string     { return fmt.Sprintf("show:%d", id) }
func seasonsKey(id int64) string  { return fmt.Sprintf("seasons:%d", id) }
func episodesKey(id int64) string { return fmt.Sprintf("episodes:%d", id) }
func episodeKey(id int64) string  { return fmt.Sprintf("episode:%d", id) }

// GetShow implements ContentCatalog.
func (c *CachedCatalog) GetShow(ctx context.Context, showID int64) (ShowInfo, error) {
	if cached, found := c.cache.Get(showKey(showID)); found {
		return cached.(ShowInfo), nil
	}
	show, err := c.next.GetShow(ctx, showID)
	if err != nil {
		return ShowInfo{}, err
	}
	c.cache.Set(showKey(showID), show, cache.DefaultExpiration)
	return show, nil
}

// ListSeasons implements ContentCatalog.
func (c *CachedCatalog) ListSeasons(ctx context.Context, showID int64) ([]SeasonInfo, error) {
	if cached, found := c.cache.Get(seasonsKey(showID)); found {
		return cached.([]SeasonInfo), nil
	}
	seasons, err := c.next.ListSeasons(ctx, showID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(seasonsKey(showID), seasons, cache.DefaultExpiration)
	return seasons, nil
}

// ListEpisodes implements ContentCatalog.
func (c *CachedCatalog) ListEpisodes(ctx context.Context, seasonID int64) ([]EpisodeInfo, error) {
	if cached, found := c.cache.Get(episodesKey(seasonID)); found {
		return cached.([]EpisodeInfo), nil
	}
	episodes, err := c.next.ListEpisodes(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(episodesKey(seasonID), episodes, cache.DefaultExpiration)
	return episodes, nil
}

// GetEpisode implements ContentCatalog.
func (c *CachedCatalog) GetEpisode(ctx context.Context, episodeID int64) (EpisodeInfo, error) {
	if cached, found := c.cache.Get(episodeKey(episodeID)); found {
		return cached.(EpisodeInfo), nil
	}
	episode, err := c.next.GetEpisode(ctx, episodeID)
	if err != nil {
		return EpisodeInfo{}, err
	}
	c.cache.Set(episodeKey(episodeID), episode, cache.DefaultExpiration)
	return episode, nil
}

// Forget drops every cached entry belonging to the show.
func (c *CachedCatalog) Forget(showID int64) {
	if cached, found := c.cache.Get(seasonsKey(showID)); found {
		for _, season := range cached.([]SeasonInfo) {
			c.cache.Delete(episodesKey(season.ID))
		}
	}
	c.cache.Delete(showKey(showID))
	c.cache.Delete(seasonsKey(showID))

	for key, item := range c.cache.Items() {
		switch v := item.Object.(type) {
		case EpisodeInfo:
			if v.ShowID == showID && strings.HasPrefix(key, "episode:") {
				c.cache.Delete(key)
			}
		case []EpisodeInfo:
			if len(v) > 0 && v[0].ShowID == showID {
				c.cache.Delete(key)
			}
		}
	}
}

// Flush empties the cache.
func (c *CachedCatalog) Flush() {
	c.cache.Flush()
}
