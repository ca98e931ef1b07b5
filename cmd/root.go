package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olusolaa/better-aws/internal/app"
	"github.com/olusolaa/better-aws/internal/config"
	apperrors "github.com/olusolaa/better-aws/internal/errors"
)

var (
	cfgFile string
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "better-aws",
	Short: "Convenience layer over CloudFormation, Organizations, SSM and CodeBuild.",
	Long: `better-aws reconciles CloudFormation stacks idempotently, navigates AWS
Organizations by path, and wraps SSM and CodeBuild calls that need polling.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig()
	},
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is ./.better-aws.yaml or ~/.better-aws.yaml)")
	flags.String("log-level", "", "Override log level (debug, info, warn, error)")
	flags.String("log-format", "", "Override log format (text, json)")
	flags.StringP("output", "o", "", "Output format (text, json)")
	flags.String("region", "", "AWS region")
	flags.String("profile", "", "AWS shared config profile")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.Bool("no-color", false, "Disable colored text output")

	bindFlag("settings.log_level", "log-level")
	bindFlag("settings.log_format", "log-format")
	bindFlag("settings.output", "output")
	bindFlag("settings.metrics_file", "metrics-file")
	bindFlag("settings.no_color", "no-color")
	bindFlag("aws.region", "region")
	bindFlag("aws.profile", "profile")

	rootCmd.AddCommand(newStackCmd(), newOrgCmd(), newSSMCmd(), newBuildCmd(), newWhoAmICmd())
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initializeConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return config.ReadFile(v, cfgFile, home)
}

// runWithApp bootstraps the application, runs fn and flushes metrics.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	ctx := cmd.Context()
	a, err := app.BuildApplication(ctx, v)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)
	if closeErr := a.Close(ctx); closeErr != nil {
		a.Logger.Errorf(ctx, closeErr, "Failed to flush metrics")
	}
	return runErr
}

func printError(err error) {
	if appErr := (*apperrors.AppError)(nil); errors.As(err, &appErr) && appErr.IsUserFacing {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", appErr.Message)
		if appErr.SuggestedAction != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", appErr.SuggestedAction)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
}
