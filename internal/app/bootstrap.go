package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/olusolaa/better-aws/internal/adapters/platform/aws"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/cloudformation"
	codebuildclient "github.com/olusolaa/better-aws/internal/adapters/platform/aws/codebuild"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	ssmclient "github.com/olusolaa/better-aws/internal/adapters/platform/aws/ssm"
	"github.com/olusolaa/better-aws/internal/adapters/state/definition"
	"github.com/olusolaa/better-aws/internal/config"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/core/service"
	"github.com/olusolaa/better-aws/internal/errors"
	"github.com/olusolaa/better-aws/internal/log"
	"github.com/olusolaa/better-aws/internal/metrics"
	jsonreporter "github.com/olusolaa/better-aws/internal/reporting/json"
	"github.com/olusolaa/better-aws/internal/reporting/text"
)

var _ shared.Recorder = (*metrics.Recorder)(nil)

type bootstrapOptions struct {
	providerOpts []aws.ProviderOption
}

type BootstrapOption func(*bootstrapOptions)

// WithProviderOptions forwards options to the AWS provider, e.g. a fixed
// aws.Config in tests.
func WithProviderOptions(opts ...aws.ProviderOption) BootstrapOption {
	return func(o *bootstrapOptions) { o.providerOpts = append(o.providerOpts, opts...) }
}

// BuildApplication decodes configuration from v and wires every component.
func BuildApplication(ctx context.Context, v *viper.Viper, opts ...BootstrapOption) (*Application, error) {
	o := bootstrapOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(ctx, v)
	if err != nil {
		return nil, err
	}

	logger, err := log.NewLogger(log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	reporter, err := registry.GetReporter(cfg.Settings.Reporter)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	providerOpts := append([]aws.ProviderOption{aws.WithRecorder(recorder)}, o.providerOpts...)
	provider, err := aws.NewProvider(ctx, cfg.AWS, logger.WithFields(map[string]any{"provider": aws.ProviderTypeAWS}), providerOpts...)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "AWS provider initialized: %s", provider)

	deployOpts := deployOptions(cfg.Deploy)
	factory := func(region string) ports.StackReconciler {
		return provider.ForRegion(region).CloudFormation(deployOpts...)
	}
	deployer, err := service.NewDeployer(factory, logger.WithFields(map[string]any{"component": "deployer"}), cfg.Settings.Concurrency)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize deployer")
	}

	logger.Debugf(ctx, "Application bootstrap complete")
	return &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Reporter: reporter,
		Provider: provider,
		Engine:   deployer,
		Metrics:  recorder,
	}, nil
}

func buildRegistry(cfg *config.Config, logger ports.Logger) (*service.ComponentRegistry, error) {
	registry := service.NewComponentRegistry()

	defLog := logger.WithFields(map[string]any{"component": "definition"})
	defaults := definition.WithDefaults(definition.Defaults{
		UseChangeSets:          cfg.Deploy.UseChangeSets,
		DeleteRollbackComplete: cfg.Deploy.DeleteRollbackComplete,
	})
	for _, src := range []ports.DefinitionSource{
		definition.NewYAMLSource(defLog, defaults),
		definition.NewHCLSource(defLog, defaults),
	} {
		if err := registry.RegisterDefinitionSource(src); err != nil {
			return nil, err
		}
	}

	textReporter, err := text.NewReporter(text.Config{NoColor: cfg.Settings.NoColor},
		logger.WithFields(map[string]any{"component": "reporter", "type": text.ReporterTypeText}))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize Text reporter")
	}
	jsonRep, err := jsonreporter.NewReporter(jsonreporter.Config{},
		logger.WithFields(map[string]any{"component": "reporter", "type": jsonreporter.ReporterTypeJSON}))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize JSON reporter")
	}
	if err := registry.RegisterReporter(text.ReporterTypeText, textReporter); err != nil {
		return nil, err
	}
	if err := registry.RegisterReporter(jsonreporter.ReporterTypeJSON, jsonRep); err != nil {
		return nil, err
	}
	return registry, nil
}

func deployOptions(d config.DeployConfig) []cloudformation.Option {
	return []cloudformation.Option{
		cloudformation.WithWaitTimeout(d.WaitTimeout),
		cloudformation.WithWaitDelay(d.WaitMinDelay, d.WaitMaxDelay),
		cloudformation.WithChangeSetNaming(cloudformation.ChangeSetNaming(d.ChangeSetNaming)),
	}
}

func ssmOptions(c config.SSMConfig) []ssmclient.Option {
	return []ssmclient.Option{ssmclient.WithMaxRetries(c.MaxRetries), ssmclient.WithPollInterval(c.PollInterval)}
}

func codebuildOptions(c config.CodeBuildConfig) []codebuildclient.Option {
	return []codebuildclient.Option{codebuildclient.WithPollInterval(c.PollInterval)}
}
