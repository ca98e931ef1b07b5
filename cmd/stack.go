package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olusolaa/better-aws/internal/app"
)

func newStackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Reconcile and inspect CloudFormation stacks",
	}

	var file string
	var regions []string
	deploy := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update a stack from a YAML or HCL definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.Deploy(ctx, file, regions)
			})
		},
	}
	deploy.Flags().StringVarP(&file, "file", "f", "", "Stack definition file (.yaml, .yml, .hcl)")
	deploy.Flags().StringSliceVar(&regions, "regions", nil, "Comma-separated regions to deploy to (default aws.regions or aws.region)")
	_ = deploy.MarkFlagRequired("file")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stack and wait until it is gone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.DeleteStack(ctx, args[0])
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stacks in the current region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.ListStacks(ctx)
			})
		},
	}

	events := &cobra.Command{
		Use:   "events NAME",
		Short: "Show the most recent stack events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.StackEvents(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(deploy, del, list, events)
	return cmd
}
