package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
)

// FindOneBy finds a single entity by a query condition.
func FindOneBy[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var entity T
	if err := db.WithContext(ctx).Where(query, args...).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("entity not found")
		}
		return nil, err
	}
	return &entity, nil
}

// FindAllBy finds every entity matching a query condition in the given order.
func FindAllBy[T any](ctx context.Context, db *gorm.DB, order string, query string, args ...interface{}) ([]T, error) {
	var entities []T
	q := db.WithContext(ctx).Where(query, args...)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// CreateIgnoringConflicts inserts rows in batches and skips rows that
// violate a unique constraint. It returns the number of rows inserted.
func CreateIgnoringConflicts[T any](ctx context.Context, db *gorm.DB, rows []T, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, batchSize)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Chunk splits ids into slices of at most size elements so IN lists stay
// below driver parameter limits.
func Chunk[T any](ids []T, size int) [][]T {
	if size <= 0 || len(ids) <= size {
		if len(ids) == 0 {
			return nil
		}
		return [][]T{ids}
	}
	chunks := make([][]T, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
