package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bulkmail/internal/config"
)

// app carries state shared by subcommands.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        config.Config
	bindErr    error
}

// bindFlags binds each named flag in fs to the viper key of the same name.
// Failures are collected and reported before any command runs.
func (a *app) bindFlags(fs *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(key)); err != nil {
			a.bindErr = errors.Join(a.bindErr, fmt.Errorf("bind flag %s: %w", key, err))
		}
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "bulkmail",
		Short:         "Bulk email sending service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.bindErr != nil {
				return a.bindErr
			}
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			slog.SetDefault(newLogger(os.Stderr, cfg))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./config.yaml if present)")
	flags.String("db.path", "bulkmail.db", "SQLite database path")
	flags.String("log.level", "info", "log level: debug, info, warn, error")
	flags.String("log.format", "json", "log format: json or text")
	a.bindFlags(flags, "db.path", "log.level", "log.format")

	root.AddCommand(newServeCmd(a), newSeedAdminCmd(a))
	return root
}

// newLogger builds the process logger from log.format and log.level.
func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
