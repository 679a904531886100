package reviewgraph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
)

var (
	// ErrNoSuchField is returned when there is no column or relation with that name.
	ErrNoSuchField = errors.New("field does not exist")
	// ErrNoSuchRelation is returned when selecting a nested field through something that is not a relation.
	ErrNoSuchRelation = errors.New("relation does not exist")
	// ErrTooManyResults is returned when CollectOne matched more than one row.
	ErrTooManyResults = errors.New("too many results for CollectOne")
)

// Query is an immutable selection over a Schema. Every builder method returns
// a copy.
type Query[T any] struct {
	schema Schema[T]

	columns        map[string]Column[T]
	relations      map[string]Relation[T]
	relationFields map[string][]string
	queryMods      []QueryMod

	errors []error
}

func newQuery[T any](schema Schema[T], fields ...string) Query[T] {
	query := Query[T]{
		schema:         schema,
		columns:        map[string]Column[T]{},
		relations:      map[string]Relation[T]{},
		relationFields: map[string][]string{},
	}

	return query.Select(fields...)
}

func (query Query[T]) ModifyQuery(mod QueryMod) Query[T] {
	query.queryMods = append(query.queryMods, mod)

	return query
}

// Select adds columns and relations to the query. Without arguments every
// column is selected. A dotted name ("reviews.item") resolves the relation and
// forwards the remainder to the related schema.
func (query Query[T]) Select(fieldNames ...string) Query[T] {
	query = query.clone()

	if len(fieldNames) == 0 {
		query.selectAllColumns()
		return query
	}

	for _, name := range fieldNames {
		query.resolveSelect(name)
	}

	return query
}

func (query *Query[T]) resolveSelect(name string) {
	field, rest := splitNested(name)

	if field == "*" {
		if rest != "" {
			query.addError(fmt.Errorf("%w: %s", ErrNoSuchRelation, name))
			return
		}
		query.selectAllColumns()
		return
	}

	if relation, ok := query.schema.Relations[field]; ok {
		if rest != "" && rest != "*" {
			if err := relation.Check(rest); err != nil {
				query.addError(err)
				return
			}
		}
		query.selectRelation(field, rest)
		return
	}

	if column, ok := query.schema.Columns[field]; ok {
		if rest != "" {
			query.addError(fmt.Errorf("%w: %s", ErrNoSuchRelation, field))
			return
		}
		query.columns[field] = column
		return
	}

	query.addError(fmt.Errorf("%w: %s.%s", ErrNoSuchField, query.schema.Table, field))
}

func (query *Query[T]) selectAllColumns() {
	for name, column := range query.schema.Columns {
		query.columns[name] = column
	}
}

func (query *Query[T]) selectRelation(name, field string) {
	if field == "" {
		field = "*"
	}

	query.relations[name] = query.schema.Relations[name]
	query.relationFields[name] = append(query.relationFields[name], field)
}

// =================
// Finishers
// =================

func (query Query[T]) Err() error {
	return errors.Join(query.errors...)
}

func (query Query[T]) Collect(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	query = query.withDependencies()

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return parents, nil
}

func (query Query[T]) CollectOne(ctx context.Context, db squirrel.BaseRunner) (*T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	query = query.withDependencies()

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	if len(parents) == 0 {
		return nil, sql.ErrNoRows
	} else if len(parents) > 1 {
		return nil, ErrTooManyResults
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return &parents[0], nil
}

// withDependencies selects the columns each selected relation needs to bind
// children onto parents.
func (query Query[T]) withDependencies() Query[T] {
	for _, relation := range query.relations {
		if len(relation.Depends) > 0 {
			query = query.Select(relation.Depends...)
		}
	}

	return query
}

func (query Query[T]) collectBase(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	q := squirrel.StatementBuilder.RunWith(db).Select().From(query.schema.Table)

	q = applyMods(q, query.schema.Table, query.schema.QueryMods)
	q = applyMods(q, query.schema.Table, query.queryMods)

	var scans []RowScan[T]
	for _, column := range query.columns {
		q = column.Mod(q, query.schema.Table)
		scans = append(scans, column.RowScan)
	}

	return collectRows(ctx, q, flattenRowScan(scans))
}

func (query Query[T]) resolveRelations(ctx context.Context, db squirrel.BaseRunner, parents []T) error {
	if len(parents) == 0 {
		return nil
	}

	for name, relation := range query.relations {
		if err := relation.Resolve(ctx, db, parents, query.relationFields[name]); err != nil {
			return err
		}
	}

	return nil
}

// =================
// Utilities
// =================

func (query Query[T]) clone() Query[T] {
	columns := make(map[string]Column[T], len(query.columns))
	for k, v := range query.columns {
		columns[k] = v
	}
	relations := make(map[string]Relation[T], len(query.relations))
	for k, v := range query.relations {
		relations[k] = v
	}
	relationFields := make(map[string][]string, len(query.relationFields))
	for k, v := range query.relationFields {
		relationFields[k] = append([]string(nil), v...)
	}

	query.columns = columns
	query.relations = relations
	query.relationFields = relationFields
	query.queryMods = append([]QueryMod(nil), query.queryMods...)
	query.errors = append([]error(nil), query.errors...)

	return query
}

func (query *Query[T]) addError(err error) {
	query.errors = append(query.errors, err)
}

func collectRows[T any](ctx context.Context, q Q, scans RowScan[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Default().Error("collectRows: failed to close rows", "error", err.Error())
		}
	}()

	var collection []T
	for rows.Next() {
		var t T
		pointers, action := scans(&t)
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		action()
		collection = append(collection, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collection, nil
}

func splitNested(name string) (string, string) {
	field, rest, _ := strings.Cut(name, ".")
	return field, rest
}
