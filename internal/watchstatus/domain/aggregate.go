package domain

import "time"

// EpisodeState is the input of the season aggregation for one episode.
type EpisodeState struct {
	AirDate *time.Time
	Status  Status
}

// Aired reports whether the episode aired on or before now. Episodes without
// an air date have not aired.
func (e EpisodeState) Aired(now time.Time) bool {
	return e.AirDate != nil && !e.AirDate.After(now)
}

// SeasonStatus derives a season's status from its episodes.
//
// Aired episodes decide the status. When every aired episode is watched the
// season is Watched, or UpToDate while unaired episodes remain. A season with
// no aired episodes is NotWatched.
func SeasonStatus(episodes []EpisodeState, now time.Time) Status {
	var aired, watched, unaired int
	for _, e := range episodes {
		if !e.Aired(now) {
			unaired++
			continue
		}
		aired++
		if e.Status == StatusWatched {
			watched++
		}
	}

	switch {
	case aired == 0:
		return StatusNotWatched
	case watched == aired && unaired == 0:
		return StatusWatched
	case watched == aired:
		return StatusUpToDate
	case watched > 0:
		return StatusWatching
	default:
		return StatusNotWatched
	}
}

// StatusCounts tallies season statuses for the show aggregation.
type StatusCounts struct {
	Watched    int
	Watching   int
	NotWatched int
	UpToDate   int
	Total      int
}

// CountStatuses tallies statuses. Unknown values only count toward Total.
func CountStatuses(statuses []Status) StatusCounts {
	c := StatusCounts{Total: len(statuses)}
	for _, s := range statuses {
		switch s {
		case StatusWatched:
			c.Watched++
		case StatusWatching:
			c.Watching++
		case StatusNotWatched:
			c.NotWatched++
		case StatusUpToDate:
			c.UpToDate++
		}
	}
	return c
}

// Status applies the show rules in order; the first match wins.
func (c StatusCounts) Status() Status {
	switch {
	case c.Total == 0:
		return StatusNotWatched
	case c.Watched == c.Total:
		return StatusWatched
	case c.Watched+c.UpToDate == c.Total && c.UpToDate > 0:
		return StatusUpToDate
	case c.Watching > 0 || (c.Watched > 0 && c.NotWatched > 0):
		return StatusWatching
	default:
		return StatusNotWatched
	}
}

// ShowStatus derives a show's status from its seasons' statuses.
func ShowStatus(seasons []Status) Status {
	return CountStatuses(seasons).Status()
}
