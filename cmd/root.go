package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/diagram-annotator/internal/logging"
	"github.com/killallgit/diagram-annotator/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// skipConfig marks commands that run without loading settings
const skipConfig = "skip-config"

var (
	// appConfig and logger are set before any command that needs them runs
	appConfig *config.Config
	logger    = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	err := NewRootCmd().Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Every call returns a fresh tree so
// flag state never leaks between invocations.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "annotator",
		Short: "Diagram Annotator API server",
		Long: `Diagram Annotator API - collaborative review of generated code diagrams

Annotators review a code snippet next to its rendered Mermaid diagram and
flag which parts of the diagram are wrong. Each annotator works on a private
copy of every sample; admins upload datasets, manage users and export the
collected annotations as CSV.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().String("config", config.DefaultConfigFile, "settings file")
	root.PersistentFlags().String("database", "", "database path (overrides settings)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCreateAdminCmd(),
		newCloneUserCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads settings and builds the logger. Flags win over settings.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	if err := config.InitWithFile(path); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flags.Changed("database") {
		cfg.Database.Path, _ = flags.GetString("database")
	}

	level := cfg.Logging.Level
	if level == "" || flags.Changed("log-level") {
		level, _ = flags.GetString("log-level")
	}
	jsonLogs := cfg.Logging.Format == "json"
	if flags.Changed("json-logs") {
		jsonLogs, _ = flags.GetBool("json-logs")
	}

	l, err := logging.New(level, jsonLogs)
	if err != nil {
		return err
	}

	appConfig = cfg
	logger = l
	return nil
}
