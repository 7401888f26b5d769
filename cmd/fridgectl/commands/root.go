// Package commands implements the fridgectl command tree.
package commands

import (
	"fmt"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/config"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rootOptions holds global flags and the App built for the running command
type rootOptions struct {
	configPath string
	debug      bool
	app        *App

	// newApp is replaced in tests
	newApp func(cfg *config.Config, log *zap.Logger, cmd *cobra.Command) (*App, error)
}

// NewRootCmd creates the fridgectl command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{
		newApp: func(cfg *config.Config, log *zap.Logger, cmd *cobra.Command) (*App, error) {
			return NewApp(cfg, log, cmd.OutOrStdout())
		},
	})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fridgectl",
		Short:         "Shared fridge session client",
		Long:          "Sign in to the shared fridge service, inspect the cached user profile and predict shelf life.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithFile(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateClient(); err != nil {
				return err
			}

			debug := opts.debug || cfg.CLIDebugMode
			log, err := logger.NewDevelopmentLogger(debug)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if !debug {
				// stderr stays quiet unless something goes wrong
				log = log.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
			}

			app, err := opts.newApp(cfg, log, cmd)
			if err != nil {
				return err
			}
			opts.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app == nil {
				return nil
			}
			_ = logger.Sync(opts.app.Logger)
			return opts.app.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults to $FRIDGE_CONFIG_FILE)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newWatchCmd(opts),
		newResetPasswordCmd(opts),
		newExpiryCmd(opts),
		newCheckCmd(opts),
	)
	return cmd
}

var errNotSignedIn = fmt.Errorf("%w; run 'fridgectl login'", session.ErrNoSession)
