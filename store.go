package reviewgraph

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"pollex.nl/reviewgraph/tracker"
)

const ddl = `
	create table if not exists customers (
		id integer primary key autoincrement,
		name text not null
	);
	create table if not exists items (
		id integer primary key autoincrement,
		name text not null,
		price real not null
	);
	create table if not exists reviews (
		id integer primary key autoincrement,
		comment text not null,
		customer_id integer references customers(id),
		item_id integer references items(id)
	);
	create index if not exists idx_reviews_customer_id on reviews(customer_id);
	create index if not exists idx_reviews_item_id on reviews(item_id);
	`

// Open opens a sqlite3 database with foreign key enforcement switched on.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Migrate creates the customers, items and reviews tables if they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Store loads entities with the relations a projection of them needs.
// Storage errors, including sql.ErrNoRows for a missing id, are returned
// unmodified.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Track starts a unit of work for inserting, updating and deleting entities.
func (s *Store) Track() (*tracker.UnitOfWork, error) {
	return tracker.New(s.db)
}

// Customer loads one customer with its reviews and the item of each review,
// which is what Serialize and Items need.
func (s *Store) Customer(ctx context.Context, id int64) (*Customer, error) {
	return CustomerSchema.Query("*", "reviews", "reviews.item").
		ModifyQuery(whereID(id)).
		CollectOne(ctx, s.db)
}

// Customers loads every customer the same way Customer loads one.
func (s *Store) Customers(ctx context.Context) ([]Customer, error) {
	return CustomerSchema.Query("*", "reviews", "reviews.item").Collect(ctx, s.db)
}

func (s *Store) Item(ctx context.Context, id int64) (*Item, error) {
	return ItemSchema.Query("*", "reviews").
		ModifyQuery(whereID(id)).
		CollectOne(ctx, s.db)
}

func (s *Store) Items(ctx context.Context) ([]Item, error) {
	return ItemSchema.Query("*", "reviews").Collect(ctx, s.db)
}

// Review loads one review with its customer and item. A dangling or null key
// leaves the reference nil.
func (s *Store) Review(ctx context.Context, id int64) (*Review, error) {
	return ReviewSchema.Query("*", "customer", "item").
		ModifyQuery(whereID(id)).
		CollectOne(ctx, s.db)
}

func (s *Store) Reviews(ctx context.Context) ([]Review, error) {
	return ReviewSchema.Query("*", "customer", "item").Collect(ctx, s.db)
}

func whereID(id int64) QueryMod {
	return func(q Q, table string) Q {
		return q.Where(squirrel.Eq{TableCol(table, "id"): id})
	}
}
