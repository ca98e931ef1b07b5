package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olusolaa/better-aws/internal/app"
)

func newOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Navigate AWS Organizations",
	}

	resolve := &cobra.Command{
		Use:   "resolve PATH",
		Short: "Resolve a slash-separated OU path (e.g. /Prod/Web) to its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.ResolveOU(ctx, args[0])
			})
		},
	}

	tree := &cobra.Command{
		Use:   "tree ID",
		Short: "Print the OU tree under a root or OU id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.OrgTree(ctx, args[0])
			})
		},
	}

	var childType string
	descendants := &cobra.Command{
		Use:   "descendants PARENT",
		Short: "List every nested account or OU under a parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.Descendants(ctx, args[0], childType)
			})
		},
	}
	descendants.Flags().StringVar(&childType, "type", "ACCOUNT", "Child type: ACCOUNT or ORGANIZATIONAL_UNIT")

	cmd.AddCommand(resolve, tree, descendants)
	return cmd
}
