// Package serve implements the development collection server command.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/devserver"
	"github.com/recdeck/recdeck/internal/devstore"
	"github.com/recdeck/recdeck/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command, which runs a local collection server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local record collection server",
		Long:  "Serve the collection resource on a local address, backed by memory or sqlite, for development and testing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.DevServer.Listen, "listen", viper.GetString("devserver.listen"), "Listen address and port")
	cmd.Flags().StringVar(&settings.DevServer.Backend, "backend", viper.GetString("devserver.backend"), "Backing store (memory or sqlite)")
	cmd.Flags().StringVar(&settings.DevServer.Database, "database", viper.GetString("devserver.database"), "Sqlite database path")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}
	return nil
}

func runServe(settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backing, err := devstore.New(settings)
	if err != nil {
		return err
	}
	if err := backing.Open(); err != nil {
		return err
	}
	defer backing.Close()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	srv := devserver.New(settings, backing, metrics)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
