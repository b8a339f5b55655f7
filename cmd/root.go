package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recdeck/recdeck/cmd/browse"
	"github.com/recdeck/recdeck/cmd/records"
	"github.com/recdeck/recdeck/cmd/serve"
	"github.com/recdeck/recdeck/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recdeck",
		Short: "Record table editor CLI",
		Long:  "recdeck edits a remote record collection: browse it interactively, serve a local development copy, or run one-shot record operations.",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		browse.Command(settings),
		serve.Command(settings),
		records.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Sync the settings struct with viper so command-line arguments take
		// precedence over the config file.
		settings.Debug = viper.GetBool("debug")
		settings.Store.BaseURL = viper.GetString("store.baseurl")
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines global flags shared by every subcommand.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVar(&settings.Debug, "debug", viper.GetBool("debug"), "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Store.BaseURL, "store", viper.GetString("store.baseurl"), "Base URL of the record collection")

	if err := viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug")); err != nil {
		fmt.Printf("error binding debug flag: %v\n", err)
	}
	if err := viper.BindPFlag("store.baseurl", cmd.PersistentFlags().Lookup("store")); err != nil {
		fmt.Printf("error binding store flag: %v\n", err)
	}
}
