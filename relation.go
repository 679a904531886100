package reviewgraph

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/samber/lo"
)

type (
	Resolve[M any]   func(ctx context.Context, db squirrel.BaseRunner, parents []M, fields []string) error
	FieldCheck       func(field string) error
	Binder[M, N any] func(parents []M, children []N)
	Wherer[M any]    func(parents []M) QueryMod
)

// Relation resolves related rows onto already collected parents. Depends lists
// the fields that must be selected for the binder to match rows, using dotted
// names for the child side.
type Relation[M any] struct {
	Resolve Resolve[M]
	Check   FieldCheck
	Depends []string
}

// HasMany binds every matching child onto a parent, in the order the child
// schema returns them.
func HasMany[M, N any](
	child *Schema[N],
	belongTogether func(M, N) bool,
	assign func(*M, []N),
	wherer Wherer[M],
	depends []string,
) Relation[M] {
	return CreateRelation(child, BindBy(belongTogether, assign), wherer, depends)
}

// BelongsTo binds the first matching child onto a parent. Parents without a
// match are left untouched, so a nullable reference stays nil.
func BelongsTo[M, N any](
	child *Schema[N],
	belongTogether func(M, N) bool,
	assign func(*M, N),
	wherer Wherer[M],
	depends []string,
) Relation[M] {
	return CreateRelation(child, BindByOne(belongTogether, assign), wherer, depends)
}

func CreateRelation[M, N any](
	child *Schema[N],
	binder Binder[M, N],
	wherer Wherer[M],
	depends []string,
) Relation[M] {
	return Relation[M]{
		Check: func(field string) error {
			return child.Check(field)
		},
		Resolve: func(ctx context.Context, db squirrel.BaseRunner, parents []M, fields []string) error {
			children, err := child.Query(fields...).
				ModifyQuery(wherer(parents)).
				Collect(ctx, db)
			if err != nil {
				return err
			}

			binder(parents, children)

			return nil
		},
		Depends: depends,
	}
}

func BindBy[M, N any](
	belongTogether func(M, N) bool,
	assign func(*M, []N),
) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]
			collection := []N{}

			for _, child := range children {
				if !belongTogether(*parent, child) {
					continue
				}

				collection = append(collection, child)
			}

			assign(parent, collection)
		}
	}
}

func BindByOne[M, N any](
	belongTogether func(M, N) bool,
	assign func(*M, N),
) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]

			for _, child := range children {
				if !belongTogether(*parent, child) {
					continue
				}

				assign(parent, child)
				break
			}
		}
	}
}

func WhereIDs[M any, K comparable](col string, getID func(m M) K) Wherer[M] {
	return func(parents []M) QueryMod {
		ids := lo.Uniq(lo.Map(parents, func(parent M, _ int) K { return getID(parent) }))

		return func(q Q, table string) Q {
			return q.Where(squirrel.Eq{TableCol(table, col): ids})
		}
	}
}

// WhereOptionalIDs is WhereIDs for nullable keys; parents with a nil key are
// left out of the lookup.
func WhereOptionalIDs[M any, K comparable](col string, getID func(m M) *K) Wherer[M] {
	return func(parents []M) QueryMod {
		ids := lo.Uniq(lo.FilterMap(parents, func(parent M, _ int) (K, bool) {
			id := getID(parent)
			if id == nil {
				var zero K
				return zero, false
			}
			return *id, true
		}))

		return func(q Q, table string) Q {
			return q.Where(squirrel.Eq{TableCol(table, col): ids})
		}
	}
}

func DependsOn(fields ...string) []string {
	return fields
}
