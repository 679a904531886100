package reviewgraph

import "github.com/samber/lo"

// Customer writes reviews. Reviews is populated only when the "reviews"
// relation is resolved.
type Customer struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"not null"`

	Reviews []Review `gorm:"-"`
}

// Items returns the items reached through the loaded reviews, in review order.
// An item reviewed twice appears twice. Reviews without an item are skipped,
// so the result can be shorter than Reviews; it is empty when the customer was
// loaded without the "reviews.item" relation.
func (c Customer) Items() []Item {
	return lo.FilterMap(c.Reviews, func(review Review, _ int) (Item, bool) {
		if review.Item == nil {
			return Item{}, false
		}
		return *review.Item, true
	})
}

type Item struct {
	ID    int64   `gorm:"primaryKey"`
	Name  string  `gorm:"not null"`
	Price float64 `gorm:"not null"`

	Reviews []Review `gorm:"-"`
}

// Review links one customer to one item. Both keys are nullable; a nil key or
// an unresolved relation leaves the matching pointer nil.
type Review struct {
	ID         int64  `gorm:"primaryKey"`
	Comment    string `gorm:"not null"`
	CustomerID *int64
	ItemID     *int64

	Customer *Customer `gorm:"-"`
	Item     *Item     `gorm:"-"`
}
