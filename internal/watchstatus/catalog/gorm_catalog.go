package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	pkgrepo "github.com/narwhalmedia/watchstate/pkg/repository"
)

// GormCatalog reads the catalog tables written by ingestion.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog reader on db.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// GetShow implements ContentCatalog.
func (c *GormCatalog) GetShow(ctx context.Context, showID int64) (ShowInfo, error) {
	show, err := pkgrepo.FindOneBy[repository.Show](ctx, c.db, "id = ?", showID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return ShowInfo{}, pkgerrors.NotFound(fmt.Sprintf("show %d not found", showID))
		}
		return ShowInfo{}, err
	}
	return ShowInfo{
		ID:           show.ID,
		Title:        show.Title,
		InProduction: show.InProduction,
		AirDate:      show.AirDate,
	}, nil
}

// ListSeasons implements ContentCatalog.
func (c *GormCatalog) ListSeasons(ctx context.Context, showID int64) ([]SeasonInfo, error) {
	seasons, err := pkgrepo.FindAllBy[repository.Season](ctx, c.db, "season_number, id", "show_id = ?", showID)
	if err != nil {
		return nil, err
	}

	infos := make([]SeasonInfo, len(seasons))
	for i, s := range seasons {
		infos[i] = SeasonInfo{
			ID:           s.ID,
			ShowID:       s.ShowID,
			SeasonNumber: s.SeasonNumber,
			AirDate:      s.AirDate,
		}
	}
	return infos, nil
}

// ListEpisodes implements ContentCatalog.
func (c *GormCatalog) ListEpisodes(ctx context.Context, seasonID int64) ([]EpisodeInfo, error) {
	episodes, err := pkgrepo.FindAllBy[repository.Episode](ctx, c.db, "episode_number, id", "season_id = ?", seasonID)
	if err != nil {
		return nil, err
	}

	infos := make([]EpisodeInfo, len(episodes))
	for i, e := range episodes {
		infos[i] = episodeInfo(e)
	}
	return infos, nil
}

// GetEpisode implements ContentCatalog.
func (c *GormCatalog) GetEpisode(ctx context.Context, episodeID int64) (EpisodeInfo, error) {
	episode, err := pkgrepo.FindOneBy[repository.Episode](ctx, c.db, "id = ?", episodeID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return EpisodeInfo{}, pkgerrors.NotFound(fmt.Sprintf("episode %d not found", episodeID))
		}
		return EpisodeInfo{}, err
	}
	return episodeInfo(*episode), nil
}

func episodeInfo(e repository.Episode) EpisodeInfo {
	return EpisodeInfo{
		ID:            e.ID,
		ShowID:        e.ShowID,
		SeasonID:      e.SeasonID,
		SeasonNumber:  e.SeasonNumber,
		EpisodeNumber: e.EpisodeNumber,
		AirDate:       e.AirDate,
	}
}
