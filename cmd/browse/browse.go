// Package browse implements the interactive table session command.
package browse

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/notify"
	"github.com/recdeck/recdeck/internal/observability"
	"github.com/recdeck/recdeck/internal/session"
	"github.com/recdeck/recdeck/internal/store"
	"github.com/recdeck/recdeck/internal/tableview"
)

// Command creates the browse command, which opens an interactive session on
// the configured record collection.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit the record collection interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(settings)
		},
	}
}

func runBrowse(settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	client, err := store.NewClient(store.ConfigFromSettings(settings))
	if err != nil {
		return err
	}
	defer client.Close()
	client.SetMetrics(metrics.Store)

	table := tableview.New(client)
	defer table.Close()

	notifier := notify.New(settings)
	if notifier != nil {
		// Best effort; the session works without a broker.
		_ = notifier.Connect(ctx)
		defer notifier.Close()
	}

	sess := session.New(table, os.Stdin, os.Stdout)
	defer sess.Close()
	sess.SetMetrics(metrics)
	sess.SetNotifier(notifier)

	return sess.Run(ctx)
}
