package config

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/olusolaa/better-aws/internal/errors"
)

// NewViper returns a viper instance with every known key defaulted, so that
// BETTER_AWS_* environment variables are picked up on Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("settings.log_level", string(d.Settings.LogLevel))
	v.SetDefault("settings.log_format", string(d.Settings.LogFormat))
	v.SetDefault("settings.output", d.Settings.Reporter)
	v.SetDefault("settings.no_color", d.Settings.NoColor)
	v.SetDefault("settings.concurrency", d.Settings.Concurrency)
	v.SetDefault("settings.metrics_file", d.Settings.MetricsFile)
	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.profile", d.AWS.Profile)
	v.SetDefault("aws.regions", d.AWS.Regions)
	v.SetDefault("aws.rate_limit_rps", d.AWS.RateLimitRPS)
	v.SetDefault("aws.page_delay", d.AWS.PageDelay)
	v.SetDefault("deploy.use_change_sets", d.Deploy.UseChangeSets)
	v.SetDefault("deploy.delete_rollback_complete", d.Deploy.DeleteRollbackComplete)
	v.SetDefault("deploy.change_set_naming", d.Deploy.ChangeSetNaming)
	v.SetDefault("deploy.wait_timeout", d.Deploy.WaitTimeout)
	v.SetDefault("deploy.wait_min_delay", d.Deploy.WaitMinDelay)
	v.SetDefault("deploy.wait_max_delay", d.Deploy.WaitMaxDelay)
	v.SetDefault("ssm.max_retries", d.SSM.MaxRetries)
	v.SetDefault("ssm.poll_interval", d.SSM.PollInterval)
	v.SetDefault("codebuild.poll_interval", d.CodeBuild.PollInterval)
	return v
}

// ReadFile loads an explicit config file, or searches the working and home
// directories for .better-aws.yaml. A missing file is not an error.
func ReadFile(v *viper.Viper, path, home string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(home)
		}
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrs.As(err, &notFound) {
			return nil
		}
		return errors.WrapUserFacing(err, errors.CodeConfigReadError,
			fmt.Sprintf("failed to read config file %s", v.ConfigFileUsed()),
			"Check that the file exists and is valid YAML.")
	}
	return nil
}

// Load decodes the viper state into a Config and validates it.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}
	if err := Validate(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Validate(ctx context.Context, cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrs.As(err, &validationErrors) {
		return errors.Wrap(err, errors.CodeConfigValidation, "configuration validation failed")
	}
	var details strings.Builder
	details.WriteString("Configuration validation failed:")
	for _, fe := range validationErrors {
		details.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, details.String(), "Please check your configuration file or flags.")
}
