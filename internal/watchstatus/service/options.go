package service

import (
	"context"
	"time"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
)

// Options tunes the engine.
type Options struct {
	// TransactionTimeout bounds every unit of work. On expiry the whole
	// transaction rolls back.
	TransactionTimeout time.Duration
	NextUpShowLimit    int
	NextUpEpisodeLimit int
	// ReconcileAfterCascade re-derives season and show statuses from the
	// episodes at the end of SetAndCascade.
	ReconcileAfterCascade bool
	Now                   func() time.Time
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		TransactionTimeout: 30 * time.Second,
		NextUpShowLimit:    6,
		NextUpEpisodeLimit: 2,
		Now:                func() time.Time { return time.Now().UTC() },
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TransactionTimeout <= 0 {
		o.TransactionTimeout = d.TransactionTimeout
	}
	if o.NextUpShowLimit <= 0 {
		o.NextUpShowLimit = d.NextUpShowLimit
	}
	if o.NextUpEpisodeLimit <= 0 {
		o.NextUpEpisodeLimit = d.NextUpEpisodeLimit
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// txRunner opens one bounded unit of work per engine call.
type txRunner struct {
	uow     repository.UnitOfWork
	timeout time.Duration
}

// run executes fn in a transaction. fn decides whether to commit; any error
// or a false commit rolls everything back.
func (r txRunner) run(ctx context.Context, fn func(ctx context.Context, store repository.StatusStore) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return repository.Run(ctx, r.uow, func(tx repository.Transaction) (bool, error) {
		return fn(tx.Context(), tx.Statuses())
	})
}

// internalError wraps infrastructure failures so callers can tell them
// apart from NotFound without seeing storage details.
func internalError(message string, err error) error {
	if pkgerrors.TypeOf(err) != "" {
		return err
	}
	return pkgerrors.Internal(message, err)
}

// loadTree reads the show's catalog subtree before any transaction opens.
// A show unknown to the catalog yields an empty tree.
func loadTree(ctx context.Context, c catalog.ContentCatalog, showID int64) (*catalog.ShowTree, error) {
	tree, err := catalog.LoadShowTree(ctx, c, showID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return &catalog.ShowTree{Show: catalog.ShowInfo{ID: showID}}, nil
		}
		return nil, internalError("failed to load show from catalog", err)
	}
	return tree, nil
}
