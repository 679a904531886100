package reviewgraph

var (
	ReviewSchema = NewSchema[Review]("reviews").
		AddSimpleColumn("id", func(t *Review) any { return &t.ID }).
		AddSimpleColumn("comment", func(t *Review) any { return &t.Comment }).
		AddSimpleColumn("customer_id", func(t *Review) any { return &t.CustomerID }).
		AddSimpleColumn("item_id", func(t *Review) any { return &t.ItemID }).
		ModifyQuery(OrderBy("id"))

	CustomerSchema = NewSchema[Customer]("customers").
		AddSimpleColumn("id", func(t *Customer) any { return &t.ID }).
		AddSimpleColumn("name", func(t *Customer) any { return &t.Name }).
		AddRelation("reviews",
			HasMany(ReviewSchema,
				func(c Customer, r Review) bool { return r.CustomerID != nil && *r.CustomerID == c.ID },
				func(c *Customer, reviews []Review) { c.Reviews = reviews },
				WhereIDs("customer_id", func(c Customer) int64 { return c.ID }),
				DependsOn("id", "reviews.customer_id"),
			),
		).
		ModifyQuery(OrderBy("id"))

	ItemSchema = NewSchema[Item]("items").
		AddSimpleColumn("id", func(t *Item) any { return &t.ID }).
		AddSimpleColumn("name", func(t *Item) any { return &t.Name }).
		AddSimpleColumn("price", func(t *Item) any { return &t.Price }).
		AddRelation("reviews",
			HasMany(ReviewSchema,
				func(i Item, r Review) bool { return r.ItemID != nil && *r.ItemID == i.ID },
				func(i *Item, reviews []Review) { i.Reviews = reviews },
				WhereIDs("item_id", func(i Item) int64 { return i.ID }),
				DependsOn("id", "reviews.item_id"),
			),
		).
		ModifyQuery(OrderBy("id"))
)

// The back-references close the cycle, so they are attached after all three
// schemas exist.
func init() {
	ReviewSchema.
		AddRelation("customer",
			BelongsTo(CustomerSchema,
				func(r Review, c Customer) bool { return r.CustomerID != nil && *r.CustomerID == c.ID },
				func(r *Review, c Customer) { r.Customer = &c },
				WhereOptionalIDs("id", func(r Review) *int64 { return r.CustomerID }),
				DependsOn("customer_id", "customer.id"),
			),
		).
		AddRelation("item",
			BelongsTo(ItemSchema,
				func(r Review, i Item) bool { return r.ItemID != nil && *r.ItemID == i.ID },
				func(r *Review, i Item) { r.Item = &i },
				WhereOptionalIDs("id", func(r Review) *int64 { return r.ItemID }),
				DependsOn("item_id", "item.id"),
			),
		)
}
