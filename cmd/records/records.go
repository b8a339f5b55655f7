// Package records implements one-shot record operations against the
// configured collection.
package records

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/record"
	"github.com/recdeck/recdeck/internal/store"
)

// Command creates the records command group: list, add, rm.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "One-shot record operations",
	}

	cmd.AddCommand(
		listCommand(settings),
		addCommand(settings),
		rmCommand(settings),
	)

	return cmd
}

func withClient(settings *conf.Settings, fn func(ctx context.Context, client *store.Client) error) error {
	client, err := store.NewClient(store.ConfigFromSettings(settings))
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(context.Background(), client)
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all records sorted by rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(settings, func(ctx context.Context, client *store.Client) error {
				records, err := client.List(ctx)
				if err != nil {
					return err
				}
				record.SortByRating(records)

				w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEXTERNAL\tRATING\tSTATUS")
				for _, rec := range records {
					fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", rec.ID, rec.ExternalID, rec.Rating, rec.Status)
				}
				return w.Flush()
			})
		},
	}
}

func addCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <externalId> <rating> <status>",
		Short: "Create a record",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec record.Record
			var err error
			if rec.ID, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("id %q is not an integer", args[0])
			}
			if rec.ExternalID, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("externalId %q is not an integer", args[1])
			}
			if rec.Rating, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("rating %q is not an integer", args[2])
			}
			rec.Status = args[3]

			return withClient(settings, func(ctx context.Context, client *store.Client) error {
				if err := client.Create(ctx, rec); err != nil {
					return err
				}
				fmt.Printf("created record %d\n", rec.ID)
				return nil
			})
		},
	}
}

func rmCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("id %q is not an integer", args[0])
			}
			return withClient(settings, func(ctx context.Context, client *store.Client) error {
				if err := client.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Printf("deleted record %d\n", id)
				return nil
			})
		},
	}
}
