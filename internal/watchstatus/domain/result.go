package domain

import "time"

// Outcome is how a mutating engine call ended.
type Outcome string

const (
	// OutcomeApplied means rows were written and committed.
	OutcomeApplied Outcome = "applied"
	// OutcomeUnchanged means the call succeeded without writing anything.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeNotFound means the profile does not favorite the target.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeAborted means a cascade step matched no rows and everything
	// was rolled back.
	OutcomeAborted Outcome = "cascade_aborted"
)

// Result is returned by every mutating call. Affected lists the
// (profile, show) pairs whose derived caches are now stale.
type Result struct {
	Outcome  Outcome   `json:"outcome"`
	Affected []ShowKey `json:"affected,omitempty"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Outcome == OutcomeApplied || r.Outcome == OutcomeUnchanged
}

// Applied builds a successful result touching key.
func Applied(key ShowKey) Result {
	return Result{Outcome: OutcomeApplied, Affected: []ShowKey{key}}
}

// Unchanged builds a successful no-op result.
func Unchanged() Result {
	return Result{Outcome: OutcomeUnchanged}
}

// NotFound builds a not-favorited result.
func NotFound() Result {
	return Result{Outcome: OutcomeNotFound}
}

// Aborted builds a rolled back cascade result.
func Aborted() Result {
	return Result{Outcome: OutcomeAborted}
}

// NextUpEpisode is an aired, unwatched episode offered for continue watching.
type NextUpEpisode struct {
	EpisodeID     int64     `json:"episode_id"`
	SeasonID      int64     `json:"season_id"`
	SeasonNumber  int       `json:"season_number"`
	EpisodeNumber int       `json:"episode_number"`
	AirDate       time.Time `json:"air_date"`
}

// NextUpShow is one row of a profile's continue-watching list.
type NextUpShow struct {
	ShowID        int64           `json:"show_id"`
	LastWatchedAt time.Time       `json:"last_watched_at"`
	Episodes      []NextUpEpisode `json:"episodes"`
}
