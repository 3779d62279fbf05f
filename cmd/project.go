package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a project and make it active",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			id, err := store.CreateProject(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			projects := store.Projects()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			active := store.ActiveProjectID()
			w := newTable(cmd.OutOrStdout())
			row(w, "", "ID", "NAME", "STATEMENTS", "CREATED")
			for _, p := range projects {
				marker := ""
				if p.ID == active {
					marker = "*"
				}
				row(w, marker, p.ID, p.Name, len(p.StatementIDs), p.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}

var projectUseCmd = &cobra.Command{
	Use:   "use ID",
	Short: "Switch the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			return store.SetActiveProject(ctx, args[0])
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a project with its statements and transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			return store.DeleteProject(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectUseCmd, projectDeleteCmd)
}
