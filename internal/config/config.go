package config

import (
	"time"

	"github.com/olusolaa/better-aws/internal/log"
)

const (
	EnvPrefix      = "BETTER_AWS"
	ConfigFileName = ".better-aws"

	ReporterText = "text"
	ReporterJSON = "json"
)

type Config struct {
	Settings  SettingsConfig  `mapstructure:"settings" yaml:"settings"`
	AWS       AWSConfig       `mapstructure:"aws" yaml:"aws"`
	Deploy    DeployConfig    `mapstructure:"deploy" yaml:"deploy"`
	SSM       SSMConfig       `mapstructure:"ssm" yaml:"ssm"`
	CodeBuild CodeBuildConfig `mapstructure:"codebuild" yaml:"codebuild"`
}

type SettingsConfig struct {
	LogLevel    log.Level  `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   log.Format `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
	Reporter    string     `mapstructure:"output" yaml:"output" validate:"oneof=text json"`
	NoColor     bool       `mapstructure:"no_color" yaml:"no_color"`
	Concurrency int        `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=64"`
	MetricsFile string     `mapstructure:"metrics_file" yaml:"metrics_file"`
}

type AWSConfig struct {
	Region       string             `mapstructure:"region" yaml:"region"`
	Profile      string             `mapstructure:"profile" yaml:"profile"`
	Regions      []string           `mapstructure:"regions" yaml:"regions" validate:"dive,required"`
	RateLimitRPS int                `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps" validate:"min=0,max=100"`
	PageDelay    time.Duration      `mapstructure:"page_delay" yaml:"page_delay" validate:"min=0"`
	AssumeRoles  []AssumeRoleConfig `mapstructure:"assume_roles" yaml:"assume_roles" validate:"dive"`
}

// AssumeRoleConfig is one hop of a role chain; hops are assumed in order,
// each using the credentials of the previous one.
type AssumeRoleConfig struct {
	RoleARN     string        `mapstructure:"role_arn" yaml:"role_arn" validate:"required,startswith=arn:"`
	SessionName string        `mapstructure:"session_name" yaml:"session_name"`
	ExternalID  string        `mapstructure:"external_id" yaml:"external_id"`
	Duration    time.Duration `mapstructure:"duration" yaml:"duration" validate:"min=0"`
}

type DeployConfig struct {
	UseChangeSets          bool          `mapstructure:"use_change_sets" yaml:"use_change_sets"`
	DeleteRollbackComplete bool          `mapstructure:"delete_rollback_complete" yaml:"delete_rollback_complete"`
	ChangeSetNaming        string        `mapstructure:"change_set_naming" yaml:"change_set_naming" validate:"oneof=hash timestamp"`
	WaitTimeout            time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout" validate:"gt=0"`
	WaitMinDelay           time.Duration `mapstructure:"wait_min_delay" yaml:"wait_min_delay" validate:"gt=0"`
	WaitMaxDelay           time.Duration `mapstructure:"wait_max_delay" yaml:"wait_max_delay" validate:"gtefield=WaitMinDelay"`
}

type SSMConfig struct {
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries" validate:"min=1"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" validate:"min=0"`
}

type CodeBuildConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" validate:"min=0"`
}

// TargetRegions returns the regions a deploy targets: aws.regions when set,
// otherwise aws.region alone.
func (c *Config) TargetRegions() []string {
	if len(c.AWS.Regions) > 0 {
		return c.AWS.Regions
	}
	if c.AWS.Region != "" {
		return []string{c.AWS.Region}
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:    log.LevelInfo,
			LogFormat:   log.FormatText,
			Reporter:    ReporterText,
			Concurrency: 4,
		},
		AWS: AWSConfig{
			RateLimitRPS: 20,
		},
		Deploy: DeployConfig{
			UseChangeSets:   true,
			ChangeSetNaming: "hash",
			WaitTimeout:     time.Hour,
			WaitMinDelay:    30 * time.Second,
			WaitMaxDelay:    120 * time.Second,
		},
		SSM: SSMConfig{
			MaxRetries:   10,
			PollInterval: time.Second,
		},
		CodeBuild: CodeBuildConfig{
			PollInterval: 5 * time.Second,
		},
	}
}
