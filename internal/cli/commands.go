package cli

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pollex.nl/reviewgraph"
	"pollex.nl/reviewgraph/tracker"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the customers, items and reviews tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(db *sql.DB, _ *reviewgraph.Store) error {
				if err := reviewgraph.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				loggerFromContext(cmd.Context()).Info("schema ready")
				return nil
			})
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	var shallow bool

	cmd := &cobra.Command{
		Use:   "show {customer|item|review} ID",
		Short: "Print one entity and its direct relations as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			return opts.withStore(cmd.Context(), func(_ *sql.DB, store *reviewgraph.Store) error {
				ctx := cmd.Context()
				switch args[0] {
				case "customer":
					customer, err := store.Customer(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd, reviewgraph.SerializeCustomer(*customer, !shallow))
				case "item":
					item, err := store.Item(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd, reviewgraph.SerializeItem(*item, !shallow))
				case "review":
					review, err := store.Review(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd, reviewgraph.SerializeReview(*review, !shallow, !shallow))
				default:
					return fmt.Errorf("unknown entity %q", args[0])
				}
			})
		},
	}
	cmd.Flags().BoolVar(&shallow, "shallow", false, "leave out related entities")

	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list {customers|items|reviews}",
		Short: "Print every entity of a kind as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(_ *sql.DB, store *reviewgraph.Store) error {
				ctx := cmd.Context()
				switch args[0] {
				case "customers":
					customers, err := store.Customers(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, reviewgraph.SerializeCustomers(customers, true))
				case "items":
					items, err := store.Items(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, reviewgraph.SerializeItems(items, true))
				case "reviews":
					reviews, err := store.Reviews(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, reviewgraph.SerializeReviews(reviews, true, true))
				default:
					return fmt.Errorf("unknown entity kind %q", args[0])
				}
			})
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert a customer, item or review",
	}

	var name string
	customer := &cobra.Command{
		Use:  "customer",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.insert(cmd, &reviewgraph.Customer{Name: name})
		},
	}
	customer.Flags().StringVar(&name, "name", "", "customer name")

	var (
		itemName string
		price    float64
	)
	item := &cobra.Command{
		Use:  "item",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.insert(cmd, &reviewgraph.Item{Name: itemName, Price: price})
		},
	}
	item.Flags().StringVar(&itemName, "name", "", "item name")
	item.Flags().Float64Var(&price, "price", 0, "item price")

	var (
		comment    string
		customerID int64
		itemID     int64
	)
	review := &cobra.Command{
		Use:  "review",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &reviewgraph.Review{Comment: comment}
			if cmd.Flags().Changed("customer") {
				r.CustomerID = &customerID
			}
			if cmd.Flags().Changed("item") {
				r.ItemID = &itemID
			}
			return opts.insert(cmd, r)
		},
	}
	review.Flags().StringVar(&comment, "comment", "", "review text")
	review.Flags().Int64Var(&customerID, "customer", 0, "id of the reviewing customer")
	review.Flags().Int64Var(&itemID, "item", 0, "id of the reviewed item")

	cmd.AddCommand(customer, item, review)
	return cmd
}

// insert saves entity in its own unit of work and prints its projection.
func (o *options) insert(cmd *cobra.Command, entity any) error {
	return o.withStore(cmd.Context(), func(_ *sql.DB, store *reviewgraph.Store) error {
		uow, err := store.Track()
		if err != nil {
			return err
		}
		uow.Add(entity)
		if err := uow.SaveChanges(cmd.Context()); err != nil {
			return err
		}

		switch e := entity.(type) {
		case *reviewgraph.Customer:
			return printJSON(cmd, reviewgraph.SerializeCustomer(*e, false))
		case *reviewgraph.Item:
			return printJSON(cmd, reviewgraph.SerializeItem(*e, false))
		case *reviewgraph.Review:
			return printJSON(cmd, reviewgraph.SerializeReview(*e, false, false))
		}
		return nil
	})
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete {customer|item|review} ID",
		Short: "Delete one entity; related entities are kept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			var entity any
			switch args[0] {
			case "customer":
				entity = &reviewgraph.Customer{ID: id}
			case "item":
				entity = &reviewgraph.Item{ID: id}
			case "review":
				entity = &reviewgraph.Review{ID: id}
			default:
				return fmt.Errorf("unknown entity %q", args[0])
			}

			return opts.withStore(cmd.Context(), func(_ *sql.DB, store *reviewgraph.Store) error {
				uow, err := store.Track()
				if err != nil {
					return err
				}
				uow.Do(func(tx tracker.Tx) error {
					if err := tx.DeleteExisting(entity); err != nil {
						return fmt.Errorf("delete %s %d: %w", args[0], id, err)
					}
					return nil
				})
				if err := uow.SaveChanges(cmd.Context()); err != nil {
					return err
				}
				loggerFromContext(cmd.Context()).Info("deleted", "entity", args[0], "id", id)
				return nil
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
