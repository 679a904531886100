// Package tracker queues entity inserts, updates and deletes and applies them
// in a single transaction.
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNothingDeleted is returned by Tx.DeleteExisting when no row matched.
var ErrNothingDeleted = errors.New("tracker: nothing deleted")

// Tx is the transactional surface handed to deferred operations. It hides
// gorm from callers.
type Tx interface {
	Create(value any) error
	Save(value any) error
	Delete(value any, conds ...any) error
	// DeleteExisting deletes value by primary key and fails with
	// ErrNothingDeleted when the row does not exist.
	DeleteExisting(value any) error
}

type gormTx struct{ db *gorm.DB }

func (t gormTx) Create(value any) error               { return t.db.Create(value).Error }
func (t gormTx) Save(value any) error                 { return t.db.Save(value).Error }
func (t gormTx) Delete(value any, conds ...any) error { return t.db.Delete(value, conds...).Error }

func (t gormTx) DeleteExisting(value any) error {
	result := t.db.Delete(value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNothingDeleted
	}
	return nil
}

// Operation runs inside the transaction after all tracked entities have been
// applied. Returning an error rolls everything back.
type Operation func(tx Tx) error

// UnitOfWork collects pending changes. Entities passed to Add get their
// auto-assigned id written back once SaveChanges succeeds.
//
// Changes are applied in a fixed order: creates, updates, deletes, then
// operations queued with Do.
type UnitOfWork struct {
	root *gorm.DB

	ops      []Operation
	toCreate []any
	toUpdate []any
	toDelete []any

	afterCommit   []func()
	afterRollback []func()

	mu sync.Mutex
}

// gormRoots holds one *gorm.DB per *sql.DB. Entries are never pruned, so the
// *sql.DB should live as long as the process.
var gormRoots sync.Map

// New returns a UnitOfWork on top of sqlDB, which must be a sqlite3 handle.
func New(sqlDB *sql.DB) (*UnitOfWork, error) {
	if v, ok := gormRoots.Load(sqlDB); ok {
		return &UnitOfWork{root: v.(*gorm.DB)}, nil
	}

	gdb, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.New(slogWriter{}, logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tracker: open gorm: %w", err)
	}

	actual, _ := gormRoots.LoadOrStore(sqlDB, gdb)
	return &UnitOfWork{root: actual.(*gorm.DB)}, nil
}

// Do queues a custom operation.
func (u *UnitOfWork) Do(op Operation) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ops = append(u.ops, op)
}

// Add tracks a pointer to an entity to be inserted.
func (u *UnitOfWork) Add(entity any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.toCreate = append(u.toCreate, entity)
}

// Update tracks a pointer to an entity whose fields should be written back.
func (u *UnitOfWork) Update(entity any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.toUpdate = append(u.toUpdate, entity)
}

// RegisterDelete tracks an entity to be deleted by primary key. Related rows
// are never deleted along with it.
func (u *UnitOfWork) RegisterDelete(entity any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.toDelete = append(u.toDelete, entity)
}

func (u *UnitOfWork) AfterCommit(cb func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.afterCommit = append(u.afterCommit, cb)
}

func (u *UnitOfWork) AfterRollback(cb func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.afterRollback = append(u.afterRollback, cb)
}

// SaveChanges applies all pending changes in one transaction. On error the
// transaction is rolled back, the storage error is returned as is and the
// pending changes stay queued; call Clear to drop them.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	u.mu.Lock()
	ops := append([]Operation(nil), u.ops...)
	creates := append([]any(nil), u.toCreate...)
	updates := append([]any(nil), u.toUpdate...)
	deletes := append([]any(nil), u.toDelete...)
	afterCommit := append([]func(){}, u.afterCommit...)
	afterRollback := append([]func(){}, u.afterRollback...)
	u.mu.Unlock()

	txErr := u.root.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range creates {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}
		for _, e := range updates {
			if err := tx.Save(e).Error; err != nil {
				return err
			}
		}
		for _, e := range deletes {
			if err := tx.Delete(e).Error; err != nil {
				return err
			}
		}
		for _, op := range ops {
			if err := op(gormTx{db: tx}); err != nil {
				return err
			}
		}
		return nil
	})

	if txErr != nil {
		runCallbacks("after rollback", afterRollback)
		return txErr
	}

	u.Clear()
	runCallbacks("after commit", afterCommit)
	return nil
}

// Clear discards all pending changes and callbacks.
func (u *UnitOfWork) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ops = nil
	u.toCreate = nil
	u.toUpdate = nil
	u.toDelete = nil
	u.afterCommit = nil
	u.afterRollback = nil
}

func (u *UnitOfWork) HasPending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.ops) > 0 || len(u.toCreate) > 0 || len(u.toUpdate) > 0 || len(u.toDelete) > 0
}

// slogWriter feeds gorm's logger into the default slog logger instead of
// stdout.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Default().Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

// runCallbacks runs every callback, logging instead of propagating panics.
func runCallbacks(stage string, callbacks []func()) {
	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Default().Error("tracker: callback panicked", "stage", stage, "panic", r)
				}
			}()
			cb()
		}()
	}
}
