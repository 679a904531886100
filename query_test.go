package reviewgraph_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollex.nl/reviewgraph"
)

func TestQuerySelect(t *testing.T) {
	db, sq := setupDB(t)
	seed(sq)
	ctx := context.Background()

	t.Run("select columns", func(t *testing.T) {
		customers, err := reviewgraph.CustomerSchema.Query("id").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, customers, 3)
		for _, customer := range customers {
			assert.NotEmpty(t, customer.ID)
			assert.Empty(t, customer.Name)
			assert.Nil(t, customer.Reviews)
		}
	})

	t.Run("select all by not providing fields", func(t *testing.T) {
		items, err := reviewgraph.ItemSchema.Query().Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, items, 3)
		assert.Equal(t, "Widget", items[0].Name)
		assert.InDelta(t, 9.99, items[0].Price, 1e-9)
	})

	t.Run("select is immutable", func(t *testing.T) {
		base := reviewgraph.CustomerSchema.Query("id")
		_ = base.Select("name")

		customers, err := base.Collect(ctx, db)
		require.NoError(t, err)
		assert.Empty(t, customers[0].Name)
	})

	t.Run("nullable key scans as nil", func(t *testing.T) {
		reviews, err := reviewgraph.ReviewSchema.Query().Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, reviews, 6)
		assert.Nil(t, reviews[1].CustomerID)
		require.NotNil(t, reviews[0].CustomerID)
		assert.Equal(t, int64(1), *reviews[0].CustomerID)
	})
}

func TestQueryErrors(t *testing.T) {
	db, sq := setupDB(t)
	seed(sq)
	ctx := context.Background()

	t.Run("unknown field", func(t *testing.T) {
		_, err := reviewgraph.CustomerSchema.Query("id", "email").Collect(ctx, db)
		assert.ErrorIs(t, err, reviewgraph.ErrNoSuchField)
	})

	t.Run("nesting through a column", func(t *testing.T) {
		_, err := reviewgraph.CustomerSchema.Query("name.first").Collect(ctx, db)
		assert.ErrorIs(t, err, reviewgraph.ErrNoSuchRelation)
	})

	t.Run("unknown nested field", func(t *testing.T) {
		_, err := reviewgraph.CustomerSchema.Query("reviews.rating").Collect(ctx, db)
		assert.ErrorIs(t, err, reviewgraph.ErrNoSuchField)
	})

	t.Run("errors are joined", func(t *testing.T) {
		err := reviewgraph.ItemSchema.Query("colour", "reviews.stars").Err()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "items.colour")
		assert.Contains(t, err.Error(), "reviews.stars")
	})

	t.Run("CollectOne should return one row", func(t *testing.T) {
		customer, err := reviewgraph.CustomerSchema.Query().
			ModifyQuery(func(q reviewgraph.Q, table string) reviewgraph.Q { return q.Where("id = ?", 2) }).
			CollectOne(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, "Grace", customer.Name)
		assert.Empty(t, customer.Reviews)
	})

	t.Run("CollectOne should error on many returns", func(t *testing.T) {
		customer, err := reviewgraph.CustomerSchema.Query().CollectOne(ctx, db)
		assert.ErrorIs(t, err, reviewgraph.ErrTooManyResults)
		assert.Nil(t, customer)
	})

	t.Run("CollectOne should error on no returns", func(t *testing.T) {
		customer, err := reviewgraph.CustomerSchema.Query().
			ModifyQuery(func(q reviewgraph.Q, table string) reviewgraph.Q { return q.Where("false") }).
			CollectOne(ctx, db)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, customer)
	})
}

func TestQueryRelations(t *testing.T) {
	db, sq := setupDB(t)
	seed(sq)
	ctx := context.Background()

	t.Run("has many", func(t *testing.T) {
		customers, err := reviewgraph.CustomerSchema.Query("*", "reviews").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, customers, 3)
		assert.Equal(t, []int64{1, 3, 4}, reviewIDs(customers[0].Reviews))
		assert.Equal(t, []int64{5, 6}, reviewIDs(customers[1].Reviews))
		assert.NotNil(t, customers[2].Reviews)
		assert.Empty(t, customers[2].Reviews)
	})

	t.Run("belongs to with a null key", func(t *testing.T) {
		reviews, err := reviewgraph.ReviewSchema.Query("*", "customer", "item").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, reviews, 6)
		for _, review := range reviews {
			require.NotNil(t, review.Item)
			assert.Equal(t, *review.ItemID, review.Item.ID)
			if review.CustomerID == nil {
				assert.Nil(t, review.Customer)
				continue
			}
			require.NotNil(t, review.Customer)
			assert.Equal(t, *review.CustomerID, review.Customer.ID)
		}
		assert.Equal(t, "Orphan", reviews[1].Comment)
		assert.Nil(t, reviews[1].Customer)
	})

	t.Run("nested relation", func(t *testing.T) {
		customers, err := reviewgraph.CustomerSchema.Query("*", "reviews", "reviews.item").Collect(ctx, db)
		require.NoError(t, err)

		for _, review := range customers[0].Reviews {
			require.NotNil(t, review.Item)
			assert.Nil(t, review.Customer)
		}
	})

	t.Run("automatically select fields required for relation", func(t *testing.T) {
		customers, err := reviewgraph.CustomerSchema.Query("reviews.comment").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, customers, 3)
		assert.NotEmpty(t, customers[0].ID)
		assert.Empty(t, customers[0].Name)
		require.Len(t, customers[0].Reviews, 3)
		assert.Equal(t, "Great", customers[0].Reviews[0].Comment)
		assert.NotNil(t, customers[0].Reviews[0].CustomerID)
		assert.Empty(t, customers[0].Reviews[0].ID)
	})
}

func reviewIDs(reviews []reviewgraph.Review) []int64 {
	ids := make([]int64, len(reviews))
	for ix, review := range reviews {
		ids[ix] = review.ID
	}
	return ids
}
