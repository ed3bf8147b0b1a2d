package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazyplan/internal/auth"
	"github.com/Joseda-hg/lazyplan/internal/config"
	"github.com/Joseda-hg/lazyplan/internal/db"
	"github.com/Joseda-hg/lazyplan/internal/logging"
)

var Version = "dev"

var (
	configPath string
	dbURL      string
	logLevel   string
)

// app is what every command shares once the root flags are resolved.
type app struct {
	configPath string
	cfg        config.Config
	logger     *log.Logger
}

var current app

var rootCmd = &cobra.Command{
	Use:           "lazyplan",
	Short:         "Plan projects, track time and chart overtime",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadApp()
		if err != nil {
			return err
		}
		current = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "database url (sqlite path or postgres dsn)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(ganttCmd)
	rootCmd.AddCommand(calendarCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadApp() (app, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return app{}, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return app{}, err
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if cfg.Database.URL == "" && cfg.Database.Driver == db.DriverSQLite {
		cfg.Database.URL = filepath.Join(filepath.Dir(path), "lazyplan.db")
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	return app{
		configPath: path,
		cfg:        cfg,
		logger:     logging.New(logging.Options{Level: cfg.Log.Level}),
	}, nil
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func (a app) openStore() (*db.Store, func(), error) {
	if a.cfg.Database.Driver == db.DriverSQLite {
		if err := config.EnsureDir(a.cfg.Database.URL); err != nil {
			return nil, nil, err
		}
	}

	conn, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	a.logger.Debug("database ready", "driver", a.cfg.Database.Driver)

	return db.NewStore(conn, a.cfg.Database.Driver), func() { _ = conn.Close() }, nil
}

// authService creates and persists a signing secret on first use.
func (a *app) authService(store *db.Store) (*auth.Service, error) {
	if a.cfg.Auth.JWTSecret == "" {
		a.cfg.Auth.JWTSecret = uuid.NewString()
		if err := config.Save(a.configPath, a.cfg); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
		a.logger.Info("generated jwt secret", "config", a.configPath)
	}

	issuer, err := auth.NewIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	return auth.NewService(store, issuer), nil
}
