// Package cli implements the romecli command tree. Every command shares one
// App: config, logger, persistent state store, API client and the session
// manager built on top of them.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/romecli/internal/api"
	"github.com/me/romecli/internal/config"
	"github.com/me/romecli/internal/logging"
	"github.com/me/romecli/internal/session"
	"github.com/me/romecli/internal/store"
)

var (
	flagConfig    string
	flagServer    string
	flagState     string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	app *App
)

// App bundles the dependencies the commands share.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   store.Store
	Client  *api.Client
	Session *session.Manager
}

func newApp() (*App, error) {
	cfgPath := flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagState != "" {
		cfg.StatePath = flagState
	}
	if flagDebug {
		flagLogLevel = "debug"
	} else if flagLogLevel == "" {
		flagLogLevel = cfg.LogLevel
	}
	if flagLogFormat == "" {
		flagLogFormat = cfg.LogFormat
	}

	logger := logging.New(logging.ParseLevel(flagLogLevel), flagLogFormat)

	statePath, err := cfg.ResolveStatePath()
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(statePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate state store: %w", err)
	}

	creds := &api.CredentialGuard{}
	client := api.NewClient(cfg.ServerURL, creds, logger)
	sess := session.NewManager(client, st, creds, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Client:  client,
		Session: sess,
	}, nil
}

// NewRootCmd creates the root cobra command for the romecli CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "romecli",
		Short: "romecli — terminal client for the Roman Empire site",
		Long:  "romecli signs in, browses the site's pages and reports page KPI to the backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			app, err = newApp()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Store != nil {
				app.Store.Close()
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (default ~/.romecli/config.yml)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "Backend URL (or ROMECLI_SERVER env)")
	root.PersistentFlags().StringVar(&flagState, "state", "", "Path to the local state database")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newStatsCmd(),
		newPostsCmd(),
		newPagesCmd(),
		newInvertCmd(),
		newBrowseCmd(),
	)

	return root
}
