// Package domain holds the watch status vocabulary and the pure aggregation
// rules that derive a parent's status from its children.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Status is the watch status of a show, season or episode for one profile.
// Episodes only ever hold NotWatched or Watched.
type Status string

const (
	StatusNotWatched Status = "NOT_WATCHED"
	StatusWatching   Status = "WATCHING"
	StatusWatched    Status = "WATCHED"
	StatusUpToDate   Status = "UP_TO_DATE"
)

// Valid reports whether s is a show/season status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotWatched, StatusWatching, StatusWatched, StatusUpToDate:
		return true
	}
	return false
}

// ValidForEpisode reports whether s is an episode status.
func (s Status) ValidForEpisode() bool {
	return s == StatusNotWatched || s == StatusWatched
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a show/season status.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid watch status %q", v)
	}
	return s, nil
}

// EpisodeStatusFor collapses a show/season target onto the binary episode
// vocabulary: anything other than NotWatched marks the episode watched.
func EpisodeStatusFor(target Status) Status {
	if target == StatusNotWatched {
		return StatusNotWatched
	}
	return StatusWatched
}

// Kind identifies the tier a status row belongs to.
type Kind string

const (
	KindEpisode Kind = "episode"
	KindSeason  Kind = "season"
	KindShow    Kind = "show"
)

// ParseKind parses an entity kind.
func ParseKind(v string) (Kind, error) {
	switch k := Kind(v); k {
	case KindEpisode, KindSeason, KindShow:
		return k, nil
	}
	return "", fmt.Errorf("invalid entity kind %q", v)
}

// ShowKey scopes every cascade and lifecycle operation, and is what callers
// use to invalidate derived read caches.
type ShowKey struct {
	ProfileID uuid.UUID `json:"profile_id"`
	ShowID    int64     `json:"show_id"`
}

func (k ShowKey) String() string {
	return fmt.Sprintf("%s/%d", k.ProfileID, k.ShowID)
}
