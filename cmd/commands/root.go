package commands

import (
	"github.com/spf13/cobra"
)

type options struct {
	confPath string
	factory  Factory
}

// RootOption configures the root command.
type RootOption func(*options)

// WithFactory replaces how subcommands build their App.
func WithFactory(f Factory) RootOption {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

func (o *options) app(cmd *cobra.Command) (*App, error) {
	return o.factory(cmd.Context(), o.confPath)
}

// NewRootCmd creates the root command
func NewRootCmd(opts ...RootOption) *cobra.Command {
	o := &options{factory: Load}
	for _, opt := range opts {
		opt(o)
	}

	rootCmd := &cobra.Command{
		Use:           "searchsync",
		Short:         "Keep search indexes in sync with application records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&o.confPath, "conf", "c", "", "config file (default: config.yaml in ., $HOME/.searchsync or /etc/searchsync)")

	rootCmd.AddCommand(
		newIndexCommand(o),
		newFlushCommand(o),
		newSyncSettingsCommand(o),
		newSearchCommand(o),
		newStatusCommand(o),
		newServeCommand(o),
		newWorkCommand(o),
		NewVersionCommand(),
	)

	return rootCmd
}
