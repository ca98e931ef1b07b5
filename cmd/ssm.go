package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olusolaa/better-aws/internal/app"
)

func newSSMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssm",
		Short: "SSM Parameter Store helpers",
	}

	var paramType string
	var overwrite bool
	put := &cobra.Command{
		Use:   "put NAME VALUE",
		Short: "Write a parameter and wait until the new version is readable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.PutParameter(ctx, args[0], args[1], paramType, overwrite)
			})
		},
	}
	put.Flags().StringVar(&paramType, "type", "String", "Parameter type: String, StringList or SecureString")
	put.Flags().BoolVar(&overwrite, "overwrite", true, "Overwrite an existing parameter")

	cmd.AddCommand(put)
	return cmd
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "CodeBuild helpers",
	}
	start := &cobra.Command{
		Use:   "start PROJECT",
		Short: "Start a build and wait for it to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.StartBuild(ctx, args[0])
			})
		},
	}
	cmd.AddCommand(start)
	return cmd
}

func newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the caller identity of the resolved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.WhoAmI(ctx)
			})
		},
	}
}
