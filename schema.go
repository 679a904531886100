package reviewgraph

import "fmt"

// Schema maps a table onto T: which columns can be scanned into it and which
// relations can be resolved onto it.
type Schema[T any] struct {
	Table     string
	Columns   map[string]Column[T]
	Relations map[string]Relation[T]
	QueryMods []QueryMod
}

func NewSchema[T any](table string) *Schema[T] {
	return &Schema[T]{
		Table:     table,
		Columns:   map[string]Column[T]{},
		Relations: map[string]Relation[T]{},
	}
}

func (schema *Schema[T]) AddColumn(name string, mod QueryMod, rowScan RowScan[T]) *Schema[T] {
	schema.Columns[name] = NewColumn(mod, rowScan)

	return schema
}

// AddSimpleColumn registers a column whose name matches the table column and
// scans directly into ptr.
func (schema *Schema[T]) AddSimpleColumn(name string, ptr func(t *T) any) *Schema[T] {
	return schema.AddColumn(name, Col(name), Ptr(ptr))
}

func (schema *Schema[T]) AddRelation(name string, relation Relation[T]) *Schema[T] {
	schema.Relations[name] = relation

	return schema
}

// ModifyQuery adds a mod that is applied to every query on this schema.
func (schema *Schema[T]) ModifyQuery(mod QueryMod) *Schema[T] {
	schema.QueryMods = append(schema.QueryMods, mod)

	return schema
}

func (schema *Schema[T]) Query(fields ...string) Query[T] {
	return newQuery(*schema, fields...)
}

// Check reports whether the possibly dotted field exists on this schema.
func (schema *Schema[T]) Check(field string) error {
	field, rest := splitNested(field)

	if field == "" || field == "*" {
		return nil
	}

	if relation, ok := schema.Relations[field]; ok {
		return relation.Check(rest)
	}

	if _, ok := schema.Columns[field]; ok {
		if rest != "" {
			return fmt.Errorf("%w: %s", ErrNoSuchRelation, field)
		}
		return nil
	}

	return fmt.Errorf("%w: %s.%s", ErrNoSuchField, schema.Table, field)
}
