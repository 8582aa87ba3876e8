package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/pkg/repository"
)

// DefaultBatchSize bounds IN lists and insert batches.
const DefaultBatchSize = 500

// StatusStore reads and writes the three status tables. A store obtained
// from a Transaction runs every statement inside that transaction.
type StatusStore interface {
	// GetStatus returns the status of one row or a NotFound error.
	GetStatus(ctx context.Context, profileID uuid.UUID, kind domain.Kind, id int64) (domain.Status, error)

	UpdateShowStatus(ctx context.Context, profileID uuid.UUID, showID int64, status domain.Status) (int64, error)
	UpdateSeasonStatuses(ctx context.Context, profileID uuid.UUID, seasonIDs []int64, status domain.Status) (int64, error)
	UpdateEpisodeStatuses(ctx context.Context, profileID uuid.UUID, episodeIDs []int64, status domain.Status) (int64, error)

	// Insert methods create NOT_WATCHED rows and leave existing rows untouched.
	InsertShowStatus(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error)
	InsertSeasonStatuses(ctx context.Context, profileID uuid.UUID, showID int64, seasonIDs []int64) (int64, error)
	InsertEpisodeStatuses(ctx context.Context, profileID uuid.UUID, showID int64, episodeIDs []int64) (int64, error)

	SeasonStatuses(ctx context.Context, profileID uuid.UUID, seasonIDs []int64) (map[int64]domain.Status, error)
	EpisodeStatuses(ctx context.Context, profileID uuid.UUID, episodeIDs []int64) (map[int64]domain.Status, error)

	// Delete methods remove the rows of one show by the show id stored on
	// them, so children the catalog no longer lists go too.
	DeleteShowStatus(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error)
	DeleteSeasonStatuses(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error)
	DeleteEpisodeStatuses(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error)

	// ProfilesFavoriting lists the profiles holding a show row.
	ProfilesFavoriting(ctx context.Context, showID int64) ([]uuid.UUID, error)
}

// GormStatusStore implements StatusStore using GORM.
type GormStatusStore struct {
	db        *gorm.DB
	batchSize int
}

// NewStatusStore creates a store on db, which may be a transaction handle.
func NewStatusStore(db *gorm.DB, batchSize int) *GormStatusStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &GormStatusStore{db: db, batchSize: batchSize}
}

// tier describes one status table.
type tier struct {
	model  interface{}
	column string
}

func tierFor(kind domain.Kind) (tier, error) {
	switch kind {
	case domain.KindShow:
		return tier{model: &ShowWatchStatus{}, column: "show_id"}, nil
	case domain.KindSeason:
		return tier{model: &SeasonWatchStatus{}, column: "season_id"}, nil
	case domain.KindEpisode:
		return tier{model: &EpisodeWatchStatus{}, column: "episode_id"}, nil
	}
	return tier{}, fmt.Errorf("unknown entity kind %q", kind)
}

// GetStatus returns the status of one row.
func (s *GormStatusStore) GetStatus(ctx context.Context, profileID uuid.UUID, kind domain.Kind, id int64) (domain.Status, error) {
	t, err := tierFor(kind)
	if err != nil {
		return "", pkgerrors.BadRequest(err.Error())
	}

	var statuses []string
	err = s.db.WithContext(ctx).Model(t.model).
		Where("profile_id = ? AND "+t.column+" = ?", profileID, id).
		Limit(1).
		Pluck("status", &statuses).Error
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", pkgerrors.NotFound(fmt.Sprintf("%s %d has no watch status for profile", kind, id))
	}
	return domain.Status(statuses[0]), nil
}

// UpdateShowStatus sets the show row status.
func (s *GormStatusStore) UpdateShowStatus(ctx context.Context, profileID uuid.UUID, showID int64, status domain.Status) (int64, error) {
	result := s.db.WithContext(ctx).Model(&ShowWatchStatus{}).
		Where("profile_id = ? AND show_id = ?", profileID, showID).
		Update("status", string(status))
	return result.RowsAffected, result.Error
}

// UpdateSeasonStatuses sets the status of every listed season row.
func (s *GormStatusStore) UpdateSeasonStatuses(ctx context.Context, profileID uuid.UUID, seasonIDs []int64, status domain.Status) (int64, error) {
	return s.updateIn(ctx, &SeasonWatchStatus{}, "season_id", profileID, seasonIDs, status)
}

// UpdateEpisodeStatuses sets the status of every listed episode row.
func (s *GormStatusStore) UpdateEpisodeStatuses(ctx context.Context, profileID uuid.UUID, episodeIDs []int64, status domain.Status) (int64, error) {
	return s.updateIn(ctx, &EpisodeWatchStatus{}, "episode_id", profileID, episodeIDs, status)
}

func (s *GormStatusStore) updateIn(ctx context.Context, model interface{}, column string, profileID uuid.UUID, ids []int64, status domain.Status) (int64, error) {
	var affected int64
	for _, chunk := range repository.Chunk(ids, s.batchSize) {
		result := s.db.WithContext(ctx).Model(model).
			Where("profile_id = ? AND "+column+" IN ?", profileID, chunk).
			Update("status", string(status))
		if result.Error != nil {
			return affected, result.Error
		}
		affected += result.RowsAffected
	}
	return affected, nil
}

// InsertShowStatus creates the show row if it does not exist.
func (s *GormStatusStore) InsertShowStatus(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error) {
	rows := []ShowWatchStatus{{ProfileID: profileID, ShowID: showID, Status: string(domain.StatusNotWatched)}}
	return repository.CreateIgnoringConflicts(ctx, s.db, rows, s.batchSize)
}

// InsertSeasonStatuses creates missing season rows.
func (s *GormStatusStore) InsertSeasonStatuses(ctx context.Context, profileID uuid.UUID, showID int64, seasonIDs []int64) (int64, error) {
	rows := make([]SeasonWatchStatus, len(seasonIDs))
	for i, id := range seasonIDs {
		rows[i] = SeasonWatchStatus{ProfileID: profileID, SeasonID: id, ShowID: showID, Status: string(domain.StatusNotWatched)}
	}
	return repository.CreateIgnoringConflicts(ctx, s.db, rows, s.batchSize)
}

// InsertEpisodeStatuses creates missing episode rows.
func (s *GormStatusStore) InsertEpisodeStatuses(ctx context.Context, profileID uuid.UUID, showID int64, episodeIDs []int64) (int64, error) {
	rows := make([]EpisodeWatchStatus, len(episodeIDs))
	for i, id := range episodeIDs {
		rows[i] = EpisodeWatchStatus{ProfileID: profileID, EpisodeID: id, ShowID: showID, Status: string(domain.StatusNotWatched)}
	}
	return repository.CreateIgnoringConflicts(ctx, s.db, rows, s.batchSize)
}

// SeasonStatuses returns the statuses of the listed seasons that have rows.
func (s *GormStatusStore) SeasonStatuses(ctx context.Context, profileID uuid.UUID, seasonIDs []int64) (map[int64]domain.Status, error) {
	statuses := make(map[int64]domain.Status, len(seasonIDs))
	for _, chunk := range repository.Chunk(seasonIDs, s.batchSize) {
		rows, err := repository.FindAllBy[SeasonWatchStatus](ctx, s.db, "", "profile_id = ? AND season_id IN ?", profileID, chunk)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			statuses[r.SeasonID] = domain.Status(r.Status)
		}
	}
	return statuses, nil
}

// EpisodeStatuses returns the statuses of the listed episodes that have rows.
func (s *GormStatusStore) EpisodeStatuses(ctx context.Context, profileID uuid.UUID, episodeIDs []int64) (map[int64]domain.Status, error) {
	statuses := make(map[int64]domain.Status, len(episodeIDs))
	for _, chunk := range repository.Chunk(episodeIDs, s.batchSize) {
		rows, err := repository.FindAllBy[EpisodeWatchStatus](ctx, s.db, "", "profile_id = ? AND episode_id IN ?", profileID, chunk)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			statuses[r.EpisodeID] = domain.Status(r.Status)
		}
	}
	return statuses, nil
}

// DeleteShowStatus removes the show row.
func (s *GormStatusStore) DeleteShowStatus(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error) {
	return s.deleteByShow(ctx, &ShowWatchStatus{}, profileID, showID)
}

// DeleteSeasonStatuses removes every season row of the show.
func (s *GormStatusStore) DeleteSeasonStatuses(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error) {
	return s.deleteByShow(ctx, &SeasonWatchStatus{}, profileID, showID)
}

// DeleteEpisodeStatuses removes every episode row of the show.
func (s *GormStatusStore) DeleteEpisodeStatuses(ctx context.Context, profileID uuid.UUID, showID int64) (int64, error) {
	return s.deleteByShow(ctx, &EpisodeWatchStatus{}, profileID, showID)
}

func (s *GormStatusStore) deleteByShow(ctx context.Context, model interface{}, profileID uuid.UUID, showID int64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("profile_id = ? AND show_id = ?", profileID, showID).
		Delete(model)
	return result.RowsAffected, result.Error
}

// ProfilesFavoriting lists the profiles holding a show row.
func (s *GormStatusStore) ProfilesFavoriting(ctx context.Context, showID int64) ([]uuid.UUID, error) {
	var profiles []uuid.UUID
	err := s.db.WithContext(ctx).Model(&ShowWatchStatus{}).
		Where("show_id = ?", showID).
		Order("profile_id").
		Pluck("profile_id", &profiles).Error
	return profiles, err
}
