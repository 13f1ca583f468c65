package services

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
)

// maxConflictRetries bounds how often an operation is re-run after an
// optimistic version check fails.
const maxConflictRetries = 3

// storeErr maps gorm.ErrRecordNotFound to notFound and any other failure to a
// persistence or cancellation error.
func storeErr(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.FromStore(err)
}

// checkContext fails fast when ctx is already done, before any write starts.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrRequestCanceled, err)
	}
	return nil
}

// withRetry runs fn and re-runs it from scratch while it fails with a
// retryable concurrency conflict. fn must re-read everything it writes.
func withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		if ctxErr := checkContext(ctx); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if !apperrors.IsRetryable(err) {
			return err
		}
		logger.Get().Warnw("Concurrency conflict, retrying",
			"operation", operation,
			"attempt", attempt,
		)
	}
	return err
}

// HouseholdLocks serializes budget-affecting work per household within this
// process. Optimistic version checks cover writers in other processes.
type HouseholdLocks struct {
	mu    sync.Mutex
	locks map[string]*householdLock
}

type householdLock struct {
	sync.Mutex
	refs int
}

// NewHouseholdLocks creates an empty lock table.
func NewHouseholdLocks() *HouseholdLocks {
	return &HouseholdLocks{locks: make(map[string]*householdLock)}
}

// Lock blocks until the household's lock is held and returns its release func.
func (l *HouseholdLocks) Lock(householdID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[householdID]
	if !ok {
		lock = &householdLock{}
		l.locks[householdID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, householdID)
		}
		l.mu.Unlock()
	}
}

// size reports the number of households with a held or awaited lock.
func (l *HouseholdLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
