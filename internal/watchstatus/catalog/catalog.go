// Package catalog reads the show/season/episode metadata owned by content
// ingestion. The engine never writes through it.
package catalog

import (
	"context"
	"time"
)

// ShowInfo is catalog metadata for a show.
type ShowInfo struct {
	ID           int64
	Title        string
	InProduction bool
	AirDate      *time.Time
}

// SeasonInfo is catalog metadata for a season.
type SeasonInfo struct {
	ID           int64
	ShowID       int64
	SeasonNumber int
	AirDate      *time.Time
}

// EpisodeInfo is catalog metadata for an episode.
type EpisodeInfo struct {
	ID            int64
	ShowID        int64
	SeasonID      int64
	SeasonNumber  int
	EpisodeNumber int
	AirDate       *time.Time
}

// ContentCatalog is the read-only metadata collaborator. GetShow and
// GetEpisode return a NotFound error for unknown ids; list calls return an
// empty slice.
type ContentCatalog interface {
	GetShow(ctx context.Context, showID int64) (ShowInfo, error)
	ListSeasons(ctx context.Context, showID int64) ([]SeasonInfo, error)
	ListEpisodes(ctx context.Context, seasonID int64) ([]EpisodeInfo, error)
	GetEpisode(ctx context.Context, episodeID int64) (EpisodeInfo, error)
}

// SeasonTree is a season with its episodes.
type SeasonTree struct {
	Season   SeasonInfo
	Episodes []EpisodeInfo
}

// ShowTree is everything the engine needs to know about one show. It is
// loaded before a transaction starts so no catalog call happens while rows
// are locked.
type ShowTree struct {
	Show    ShowInfo
	Seasons []SeasonTree
}

// LoadShowTree fetches a show with all known seasons and episodes.
func LoadShowTree(ctx context.Context, c ContentCatalog, showID int64) (*ShowTree, error) {
	show, err := c.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	seasons, err := c.ListSeasons(ctx, showID)
	if err != nil {
		return nil, err
	}

	tree := &ShowTree{Show: show, Seasons: make([]SeasonTree, 0, len(seasons))}
	for _, season := range seasons {
		episodes, err := c.ListEpisodes(ctx, season.ID)
		if err != nil {
			return nil, err
		}
		tree.Seasons = append(tree.Seasons, SeasonTree{Season: season, Episodes: episodes})
	}
	return tree, nil
}

// SeasonIDs lists the ids of every season in the tree.
func (t *ShowTree) SeasonIDs() []int64 {
	ids := make([]int64, 0, len(t.Seasons))
	for _, s := range t.Seasons {
		ids = append(ids, s.Season.ID)
	}
	return ids
}

// EpisodeIDs lists the ids of every episode in the tree.
func (t *ShowTree) EpisodeIDs() []int64 {
	var ids []int64
	for _, s := range t.Seasons {
		for _, e := range s.Episodes {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
