package reviewgraph_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"

	"pollex.nl/reviewgraph"
)

func setupDB(t testing.TB) (*sql.DB, squirrel.StatementBuilderType) {
	db, err := reviewgraph.Open("file::memory:")
	require.NoError(t, err)
	// every connection to :memory: is a fresh database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, reviewgraph.Migrate(context.Background(), db))

	sq := squirrel.StatementBuilder.RunWith(db)

	return db, sq
}

// seed inserts:
//
//	customers: 1 Ada, 2 Grace, 3 Linus (no reviews)
//	items:     1 Widget, 2 Gadget, 3 Gizmo (no reviews)
//	reviews:   1 Ada/Widget, 2 nobody/Widget, 3 Ada/Gadget, 4 Ada/Widget,
//	           5 Grace/Gadget, 6 Grace/Widget
//
//nolint:errcheck
func seed(sq squirrel.StatementBuilderType) {
	sq.Insert("customers").
		Values(1, "Ada").
		Values(2, "Grace").
		Values(3, "Linus").Exec()
	sq.Insert("items").
		Values(1, "Widget", 9.99).
		Values(2, "Gadget", 24.5).
		Values(3, "Gizmo", 3.0).Exec()
	sq.Insert("reviews").
		Values(1, "Great", 1, 1).
		Values(2, "Orphan", nil, 1).
		Values(3, "Solid", 1, 2).
		Values(4, "Still great", 1, 1).
		Values(5, "Fine", 2, 2).
		Values(6, "Meh", 2, 1).Exec()
}

func ptr[T any](v T) *T { return &v }
