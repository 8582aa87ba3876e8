package repository

import (
	"time"

	"github.com/google/uuid"
)

// ShowWatchStatus is a profile's status row for a favorited show.
type ShowWatchStatus struct {
	ID        uint      `gorm:"primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_show_watch_status,priority:1"`
	ShowID    int64     `gorm:"not null;uniqueIndex:uq_show_watch_status,priority:2"`
	Status    string    `gorm:"type:varchar(16);not null;default:'NOT_WATCHED'"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name
func (ShowWatchStatus) TableName() string {
	return "show_watch_status"
}

// SeasonWatchStatus is a profile's status row for one season.
type SeasonWatchStatus struct {
	ID        uint      `gorm:"primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_season_watch_status,priority:1;index:idx_season_watch_status_profile_show,priority:1"`
	SeasonID  int64     `gorm:"not null;uniqueIndex:uq_season_watch_status,priority:2"`
	ShowID    int64     `gorm:"not null;index:idx_season_watch_status_profile_show,priority:2"`
	Status    string    `gorm:"type:varchar(16);not null;default:'NOT_WATCHED'"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name
func (SeasonWatchStatus) TableName() string {
	return "season_watch_status"
}

// EpisodeWatchStatus is a profile's status row for one episode.
type EpisodeWatchStatus struct {
	ID        uint      `gorm:"primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_episode_watch_status,priority:1;index:idx_episode_watch_status_profile_status,priority:1;index:idx_episode_watch_status_profile_show,priority:1"`
	EpisodeID int64     `gorm:"not null;uniqueIndex:uq_episode_watch_status,priority:2"`
	ShowID    int64     `gorm:"not null;index:idx_episode_watch_status_profile_show,priority:2"`
	Status    string    `gorm:"type:varchar(16);not null;default:'NOT_WATCHED';index:idx_episode_watch_status_profile_status,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index:idx_episode_watch_status_profile_status,priority:3"`
}

// TableName returns the table name
func (EpisodeWatchStatus) TableName() string {
	return "episode_watch_status"
}

// Show is catalog metadata owned by ingestion. Read only here.
type Show struct {
	ID           int64 `gorm:"primaryKey;autoIncrement:false"`
	Title        string
	InProduction bool `gorm:"not null;default:false"`
	AirDate      *time.Time
}

// Season is catalog metadata owned by ingestion. Read only here.
type Season struct {
	ID           int64 `gorm:"primaryKey;autoIncrement:false"`
	ShowID       int64 `gorm:"not null;index"`
	SeasonNumber int   `gorm:"not null"`
	AirDate      *time.Time
}

// Episode is catalog metadata owned by ingestion. Read only here.
type Episode struct {
	ID            int64 `gorm:"primaryKey;autoIncrement:false"`
	ShowID        int64 `gorm:"not null;index;index:idx_episodes_order,priority:1"`
	SeasonID      int64 `gorm:"not null;index"`
	SeasonNumber  int   `gorm:"not null;index:idx_episodes_order,priority:2"`
	EpisodeNumber int   `gorm:"not null;index:idx_episodes_order,priority:3"`
	AirDate       *time.Time
}

// Models lists every model for auto-migration.
func Models() []interface{} {
	return []interface{}{
		&Show{},
		&Season{},
		&Episode{},
		&ShowWatchStatus{},
		&SeasonWatchStatus{},
		&EpisodeWatchStatus{},
	}
}
