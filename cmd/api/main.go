package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Wikid82/formguard/internal/config"
	"github.com/Wikid82/formguard/internal/database"
	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/version"
)

const programName = "formguard"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// env is populated by the root command before any subcommand runs.
var env struct {
	cfg config.Config
	db  *gorm.DB
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if globalFlags.debug {
		cfg.Debug = true
	}

	logger.Init(cfg.Debug, logger.Rotating(cfg.LogDir, programName+".log"))
	for _, w := range cfg.Warnings {
		logger.Log().Warn(w)
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	env.cfg = cfg
	env.db = db
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:               programName,
		Short:             "Fingerprint-based spam protection for form submissions",
		Version:           version.Full(),
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(logsCommand())
	rootCmd.AddCommand(statsCommand())
	rootCmd.AddCommand(purgeCommand())
	rootCmd.AddCommand(markSpamCommand())
	rootCmd.AddCommand(unmarkSpamCommand())
	rootCmd.AddCommand(createAdminCommand())
	rootCmd.AddCommand(resetPasswordCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// cobra has already printed the error
		stop()
		os.Exit(1)
	}
}
