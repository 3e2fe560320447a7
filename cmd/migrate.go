package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Manage the database schema of the Diagram Annotator API.

Available subcommands:
  up      - Create or update every table
  status  - Show which tables exist`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Long: `Create missing tables and add missing columns for every model.

With --dry-run only the tables that would be created are listed.`,
		RunE: runMigrateUp,
	}
	up.Flags().Bool("dry-run", false, "show what would be done without making changes")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current status of every table the application uses.`,
		RunE:  runMigrateStatus,
	}

	cmd.AddCommand(up, status)
	return cmd
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	db, err := openDatabase(false)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return migrateUp(cmd.OutOrStdout(), db, dryRun)
}

// migrateUp brings the schema up to date, or lists pending tables on a dry run
func migrateUp(out io.Writer, db *database.DB, dryRun bool) error {
	statuses, err := db.MigrationStatus()
	if err != nil {
		return err
	}

	var pending []string
	for _, s := range statuses {
		if !s.Exists {
			pending = append(pending, s.Table)
		}
	}

	if dryRun {
		fmt.Fprintln(out, "Dry run mode - no changes will be made")
		if len(pending) == 0 {
			fmt.Fprintln(out, "No tables to create")
		}
		for _, table := range pending {
			fmt.Fprintf(out, "would create %s\n", table)
		}
		return nil
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		return err
	}
	logger.Info("migrations applied", zap.Strings("created", pending))
	fmt.Fprintf(out, "Migrations applied (%d tables created)\n", len(pending))
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := openDatabase(false)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return writeMigrationStatus(cmd.OutOrStdout(), db)
}

// writeMigrationStatus prints one row per table
func writeMigrationStatus(out io.Writer, db *database.DB) error {
	statuses, err := db.MigrationStatus()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tSTATUS")
	for _, s := range statuses {
		state := "pending"
		if s.Exists {
			state = "applied"
		}
		fmt.Fprintf(w, "%s\t%s\n", s.Table, state)
	}
	return w.Flush()
}
