package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/akmatori/incident-analyst/internal/config"
	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "incident-analyst",
		Short: "Incident analysis and memory engine",
		Long: `incident-analyst ingests logs and metrics for an operational incident,
suggests likely root causes and a fix, surfaces similar resolved incidents,
and tracks each incident through fix attempts until it is resolved.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", os.Getenv("CONFIG_FILE"),
		"Path to a YAML config file (env: CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env",
		"Dotenv file loaded before reading the environment; missing files are ignored")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newIncidentsCmd(opts))
	return cmd
}

// load reads the dotenv file and the configuration
func (o *rootOptions) load() (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", o.envFile, err)
		}
	}
	return config.Load(o.configFile)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// openDatabase connects and migrates the configured record store
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if strings.EqualFold(cfg.Log.Level, "debug") {
		level = logger.Info
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN, level)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}
