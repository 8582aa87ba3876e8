package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// UnitOfWork opens transactions over the status tables.
type UnitOfWork interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction scopes a group of status writes. Nothing is visible to other
// readers until Commit.
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
	Statuses() StatusStore
}

// GormUnitOfWork implements UnitOfWork for GORM
type GormUnitOfWork struct {
	db        *gorm.DB
	batchSize int
}

// NewUnitOfWork creates a new GORM-based unit of work
func NewUnitOfWork(db *gorm.DB, batchSize int) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, batchSize: batchSize}
}

// Begin starts a new transaction
func (u *GormUnitOfWork) Begin(ctx context.Context) (Transaction, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	return &gormTransaction{
		tx:    tx,
		ctx:   ctx,
		store: NewStatusStore(tx, u.batchSize),
	}, nil
}

type gormTransaction struct {
	tx    *gorm.DB
	ctx   context.Context
	store *GormStatusStore
}

// Commit commits the transaction
func (t *gormTransaction) Commit() error {
	if err := t.tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction. Rolling back a finished transaction
// is a no-op.
func (t *gormTransaction) Rollback() error {
	if err := t.tx.Rollback().Error; err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

func (t *gormTransaction) Context() context.Context {
	return t.ctx
}

func (t *gormTransaction) Statuses() StatusStore {
	return t.store
}

// Run executes fn in a transaction. The transaction is committed when fn
// returns nil with commit set, and rolled back otherwise.
func Run(ctx context.Context, uow UnitOfWork, fn func(tx Transaction) (commit bool, err error)) error {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	commit, err := fn(tx)
	if err != nil || !commit {
		if rbErr := tx.Rollback(); rbErr != nil && err == nil {
			err = rbErr
		}
		return err
	}
	return tx.Commit()
}
