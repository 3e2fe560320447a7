package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/killallgit/diagram-annotator/internal/services/users"
	"github.com/spf13/cobra"
)

func newCreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the bootstrap admin account",
		Long: `Create an admin account so the first user can sign in.

An account that already exists is left untouched and reported as a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			return withUsers(func(svc users.Service) error {
				return createAdmin(cmd.Context(), cmd.OutOrStdout(), svc, username, password)
			})
		},
	}
	cmd.Flags().String("username", "admin", "admin username")
	cmd.Flags().String("password", "", "admin password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newCloneUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone-user <old-username> <new-username>",
		Short: "Copy a user and their annotations to a new account",
		Long: `Create new-username with the password and role of old-username and a copy
of every annotation old-username has started.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(svc users.Service) error {
				return cloneUser(cmd.Context(), cmd.OutOrStdout(), svc, args[0], args[1])
			})
		},
	}
}

// withUsers opens a migrated database and hands fn a user service on it
func withUsers(fn func(users.Service) error) error {
	db, err := openDatabase(true)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return fn(users.NewService(users.NewRepository(db.DB), logger))
}

func createAdmin(ctx context.Context, out io.Writer, svc users.Service, username, password string) error {
	created, err := svc.EnsureAdmin(ctx, username, password)
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	if !created {
		fmt.Fprintf(out, "Warning: user %q already exists, nothing changed\n", username)
		return nil
	}
	fmt.Fprintf(out, "Admin %q created\n", username)
	return nil
}

func cloneUser(ctx context.Context, out io.Writer, svc users.Service, oldUsername, newUsername string) error {
	result, err := svc.Clone(ctx, oldUsername, newUsername)
	if err != nil {
		return fmt.Errorf("cloning %s: %w", oldUsername, err)
	}
	fmt.Fprintf(out, "Cloned %s to %s (%d annotations)\n", oldUsername, result.User.Username, result.Annotations)
	return nil
}
