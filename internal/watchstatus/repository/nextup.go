package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
)

// NextUpReader runs the bounded continue-watching queries. Every query
// carries its own LIMIT so no full result set is ever materialized.
type NextUpReader interface {
	// InProgressShows returns up to limit shows with at least one aired
	// watched and one aired unwatched episode, most recently watched first.
	InProgressShows(ctx context.Context, profileID uuid.UUID, now time.Time, limit int) ([]InProgressShow, error)
	// NextEpisodes returns up to limit aired unwatched episodes in airing order.
	NextEpisodes(ctx context.Context, profileID uuid.UUID, showID int64, now time.Time, limit int) ([]domain.NextUpEpisode, error)
}

// InProgressShow is a started show and when the profile last watched one
// of its aired episodes.
type InProgressShow struct {
	ShowID        int64
	LastWatchedAt time.Time
}

// GormNextUpReader implements NextUpReader using GORM
type GormNextUpReader struct {
	db *gorm.DB
}

// NewNextUpReader creates a new next-up reader
func NewNextUpReader(db *gorm.DB) *GormNextUpReader {
	return &GormNextUpReader{db: db}
}

// profileEpisodes narrows the episode status table to one profile before it
// is joined with the catalog.
func (r *GormNextUpReader) profileEpisodes(ctx context.Context, profileID uuid.UUID, status domain.Status) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&EpisodeWatchStatus{}).
		Select("episode_id", "updated_at").
		Where("profile_id = ? AND status = ?", profileID, string(status))
}

func (r *GormNextUpReader) airedProgress(ctx context.Context, profileID uuid.UUID, status domain.Status, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("(?) AS w", r.profileEpisodes(ctx, profileID, status)).
		Joins("JOIN episodes AS e ON e.id = w.episode_id").
		Where("e.air_date IS NOT NULL AND e.air_date <= ?", now)
}

// airedShowEpisodes scopes one show. Columns are read straight from the
// tables so drivers can type them.
func (r *GormNextUpReader) airedShowEpisodes(ctx context.Context, profileID uuid.UUID, showID int64, status domain.Status, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("episode_watch_status AS w").
		Joins("JOIN episodes AS e ON e.id = w.episode_id").
		Where("w.profile_id = ? AND w.status = ?", profileID, string(status)).
		Where("e.show_id = ?", showID).
		Where("e.air_date IS NOT NULL AND e.air_date <= ?", now)
}

// InProgressShows implements NextUpReader.
func (r *GormNextUpReader) InProgressShows(ctx context.Context, profileID uuid.UUID, now time.Time, limit int) ([]InProgressShow, error) {
	unwatched := r.airedProgress(ctx, profileID, domain.StatusNotWatched, now).
		Distinct("e.show_id")

	// MAX loses the column type on sqlite, so the timestamp is read as text.
	var rows []struct {
		ShowID        int64
		LastWatchedAt string
	}
	err := r.airedProgress(ctx, profileID, domain.StatusWatched, now).
		Select("e.show_id AS show_id", "MAX(w.updated_at) AS last_watched_at").
		Where("e.show_id IN (?)", unwatched).
		Group("e.show_id").
		Order("last_watched_at DESC, e.show_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	shows := make([]InProgressShow, len(rows))
	for i, row := range rows {
		last, err := parseTimestamp(row.LastWatchedAt)
		if err != nil {
			return nil, fmt.Errorf("show %d: %w", row.ShowID, err)
		}
		shows[i] = InProgressShow{ShowID: row.ShowID, LastWatchedAt: last}
	}
	return shows, nil
}

// timestampLayouts covers database/sql's rendering of driver time values and
// the text form sqlite stores.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// NextEpisodes implements NextUpReader.
func (r *GormNextUpReader) NextEpisodes(ctx context.Context, profileID uuid.UUID, showID int64, now time.Time, limit int) ([]domain.NextUpEpisode, error) {
	var rows []struct {
		ID            int64
		SeasonID      int64
		SeasonNumber  int
		EpisodeNumber int
		AirDate       time.Time
	}
	err := r.airedShowEpisodes(ctx, profileID, showID, domain.StatusNotWatched, now).
		Select("e.id AS id", "e.season_id AS season_id", "e.season_number AS season_number",
			"e.episode_number AS episode_number", "e.air_date AS air_date").
		Order("e.season_number ASC, e.episode_number ASC, e.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	episodes := make([]domain.NextUpEpisode, len(rows))
	for i, row := range rows {
		episodes[i] = domain.NextUpEpisode{
			EpisodeID:     row.ID,
			SeasonID:      row.SeasonID,
			SeasonNumber:  row.SeasonNumber,
			EpisodeNumber: row.EpisodeNumber,
			AirDate:       row.AirDate.UTC(),
		}
	}
	return episodes, nil
}
