package reviewgraph

import "github.com/samber/lo"

// Projection is a plain, acyclic view of an entity: scalars, nil, nested
// Projections and slices of them. It is safe to hand to encoding/json.
type Projection map[string]any

// SerializeCustomer projects c. Nested reviews are projected without their
// customer and item, so the result never reaches back into the graph.
func SerializeCustomer(c Customer, includeReviews bool) Projection {
	data := Projection{
		"id":   c.ID,
		"name": c.Name,
	}
	if includeReviews {
		data["reviews"] = serializeLeafReviews(c.Reviews)
	}
	return data
}

// SerializeItem projects i with the same truncation rule as SerializeCustomer.
func SerializeItem(i Item, includeReviews bool) Projection {
	data := Projection{
		"id":    i.ID,
		"name":  i.Name,
		"price": i.Price,
	}
	if includeReviews {
		data["reviews"] = serializeLeafReviews(i.Reviews)
	}
	return data
}

// SerializeReview projects r. An included but absent customer or item is
// projected as nil.
func SerializeReview(r Review, includeCustomer, includeItem bool) Projection {
	data := Projection{
		"id":      r.ID,
		"comment": r.Comment,
	}
	if includeCustomer {
		var customer any
		if r.Customer != nil {
			customer = SerializeCustomer(*r.Customer, false)
		}
		data["customer"] = customer
	}
	if includeItem {
		var item any
		if r.Item != nil {
			item = SerializeItem(*r.Item, false)
		}
		data["item"] = item
	}
	return data
}

func serializeLeafReviews(reviews []Review) []Projection {
	// non-nil so an empty association encodes as []
	out := make([]Projection, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, SerializeReview(review, false, false))
	}
	return out
}

func (c Customer) Serialize() Projection { return SerializeCustomer(c, true) }
func (i Item) Serialize() Projection     { return SerializeItem(i, true) }
func (r Review) Serialize() Projection   { return SerializeReview(r, true, true) }

func SerializeCustomers(customers []Customer, includeReviews bool) []Projection {
	return lo.Map(customers, func(c Customer, _ int) Projection { return SerializeCustomer(c, includeReviews) })
}

func SerializeItems(items []Item, includeReviews bool) []Projection {
	return lo.Map(items, func(i Item, _ int) Projection { return SerializeItem(i, includeReviews) })
}

func SerializeReviews(reviews []Review, includeCustomer, includeItem bool) []Projection {
	return lo.Map(reviews, func(r Review, _ int) Projection { return SerializeReview(r, includeCustomer, includeItem) })
}
