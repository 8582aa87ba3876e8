package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
)

// Reference is the fixed "now" used by catalog fixtures.
var Reference = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

var (
	clockMu sync.Mutex
	clock   = Reference
)

// Now is a strictly increasing UTC clock for row timestamps, so ordering by
// updated_at is deterministic in tests.
func Now() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	clock = clock.Add(time.Millisecond)
	return clock
}

// Aired returns an air date days before Reference.
func Aired(days int) *time.Time {
	t := Reference.AddDate(0, 0, -days)
	return &t
}

// Unaired returns an air date days after Reference.
func Unaired(days int) *time.Time {
	t := Reference.AddDate(0, 0, days)
	return &t
}

// EpisodeFixture describes one catalog episode.
type EpisodeFixture struct {
	ID      int64
	AirDate *time.Time
}

// SeasonFixture describes one catalog season and its episodes.
type SeasonFixture struct {
	ID       int64
	Number   int
	Episodes []EpisodeFixture
}

// ShowFixture describes one catalog show.
type ShowFixture struct {
	ID           int64
	Title        string
	InProduction bool
	Seasons      []SeasonFixture
}

// SeedShow writes the show, its seasons and its episodes to the catalog tables.
// Episode numbers follow their position in the season.
func SeedShow(t *testing.T, db *gorm.DB, show ShowFixture) {
	t.Helper()

	require.NoError(t, db.Create(&repository.Show{
		ID:           show.ID,
		Title:        show.Title,
		InProduction: show.InProduction,
		AirDate:      firstAirDate(show),
	}).Error)

	for _, season := range show.Seasons {
		var airDate *time.Time
		if len(season.Episodes) > 0 {
			airDate = season.Episodes[0].AirDate
		}
		require.NoError(t, db.Create(&repository.Season{
			ID:           season.ID,
			ShowID:       show.ID,
			SeasonNumber: season.Number,
			AirDate:      airDate,
		}).Error)

		for i, episode := range season.Episodes {
			require.NoError(t, db.Create(&repository.Episode{
				ID:            episode.ID,
				ShowID:        show.ID,
				SeasonID:      season.ID,
				SeasonNumber:  season.Number,
				EpisodeNumber: i + 1,
				AirDate:       episode.AirDate,
			}).Error)
		}
	}
}

func firstAirDate(show ShowFixture) *time.Time {
	for _, season := range show.Seasons {
		for _, episode := range season.Episodes {
			if episode.AirDate != nil {
				return episode.AirDate
			}
		}
	}
	return nil
}

// ScenarioShow is show S: season 1 with three aired episodes, season 2 with
// one aired and one unaired episode.
func ScenarioShow(id int64) ShowFixture {
	base := id * 100
	return ShowFixture{
		ID:           id,
		Title:        "Scenario",
		InProduction: true,
		Seasons: []SeasonFixture{
			{ID: base + 1, Number: 1, Episodes: []EpisodeFixture{
				{ID: base*10 + 1, AirDate: Aired(60)},
				{ID: base*10 + 2, AirDate: Aired(53)},
				{ID: base*10 + 3, AirDate: Aired(46)},
			}},
			{ID: base + 2, Number: 2, Episodes: []EpisodeFixture{
				{ID: base*10 + 4, AirDate: Aired(3)},
				{ID: base*10 + 5, AirDate: Unaired(4)},
			}},
		},
	}
}
