package reviewgraph

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

type (
	Q        = squirrel.SelectBuilder
	QueryMod func(q Q, table string) Q

	Ptrs []any
	// Action runs after a row has been scanned, e.g. to decode a raw column.
	Action         func()
	RowScan[T any] func(*T) (Ptrs, Action)

	Column[T any] struct {
		Mod     QueryMod
		RowScan RowScan[T]
	}
)

// Ptr scans a single column straight into the pointer returned by ptr.
func Ptr[T any](ptr func(t *T) any) RowScan[T] {
	return func(t *T) (Ptrs, Action) {
		return Ptrs{ptr(t)}, nil
	}
}

func NewColumn[T any](mod QueryMod, scan RowScan[T]) Column[T] {
	return Column[T]{mod, scan}
}

// Col selects one or more columns qualified by the table alias.
func Col(names ...string) QueryMod {
	return func(q Q, table string) Q {
		cols := make([]string, len(names))
		for ix, name := range names {
			cols[ix] = TableCol(table, name)
		}
		return q.Columns(cols...)
	}
}

func OrderBy(names ...string) QueryMod {
	return func(q Q, table string) Q {
		cols := make([]string, len(names))
		for ix, name := range names {
			cols[ix] = TableCol(table, name)
		}
		return q.OrderBy(strings.Join(cols, ", "))
	}
}

func TableCol(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

func applyMods(q Q, table string, mods []QueryMod) Q {
	for _, mod := range mods {
		q = mod(q, table)
	}

	return q
}

func flattenRowScan[T any](rowScans []RowScan[T]) RowScan[T] {
	return func(t *T) (Ptrs, Action) {
		var (
			pointers Ptrs
			actions  []Action
		)
		for _, rowScan := range rowScans {
			ptr, action := rowScan(t)
			pointers = append(pointers, ptr...)
			if action != nil {
				actions = append(actions, action)
			}
		}

		return pointers, func() {
			for _, action := range actions {
				action()
			}
		}
	}
}
