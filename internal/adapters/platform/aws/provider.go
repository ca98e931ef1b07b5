package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	sdkbudgets "github.com/aws/aws-sdk-go-v2/service/budgets"
	sdkcfn "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	sdklogs "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	sdkcodebuild "github.com/aws/aws-sdk-go-v2/service/codebuild"
	sdkcodecommit "github.com/aws/aws-sdk-go-v2/service/codecommit"
	sdkguardduty "github.com/aws/aws-sdk-go-v2/service/guardduty"
	sdkorgs "github.com/aws/aws-sdk-go-v2/service/organizations"
	sdkcatalog "github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	sdkssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/budgets"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/cloudformation"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/codebuild"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/codecommit"
	awserrors "github.com/olusolaa/better-aws/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/guardduty"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/logs"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/organizations"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/servicecatalog"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/ssm"
	"github.com/olusolaa/better-aws/internal/config"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
)

const ProviderTypeAWS = "aws"

// Provider builds service clients that share one credential chain, rate
// limiter and metrics recorder. Use ForRegion to target another region with
// the same credentials.
type Provider struct {
	awsConfig    aws.Config
	settings     config.AWSConfig
	logger       ports.Logger
	limiter      shared.RateLimiter
	recorder     shared.Recorder
	errorHandler shared.ErrorHandler
	stsClient    shared.STSClientInterface
}

type ProviderOption func(*providerOptions)

type providerOptions struct {
	awsConfig *aws.Config
	stsClient shared.STSClientInterface
	limiter   shared.RateLimiter
	recorder  shared.Recorder
}

// WithAWSConfig skips the default SDK config chain and uses cfg as the base.
func WithAWSConfig(cfg aws.Config) ProviderOption {
	return func(o *providerOptions) { o.awsConfig = &cfg }
}

func WithSTSClient(c shared.STSClientInterface) ProviderOption {
	return func(o *providerOptions) { o.stsClient = c }
}

func WithRateLimiter(l shared.RateLimiter) ProviderOption {
	return func(o *providerOptions) { o.limiter = l }
}

func WithRecorder(r shared.Recorder) ProviderOption {
	return func(o *providerOptions) { o.recorder = r }
}

func NewProvider(ctx context.Context, settings config.AWSConfig, logger ports.Logger, opts ...ProviderOption) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil for AWS Provider")
	}
	o := providerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	var cfg aws.Config
	if o.awsConfig != nil {
		cfg = *o.awsConfig
	} else {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if settings.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(settings.Region))
		}
		if settings.Profile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(settings.Profile))
		}
		loaded, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation, "failed to load default AWS config",
				"Check AWS_PROFILE / AWS_REGION and your shared config files.")
		}
		cfg = loaded
	}

	for i, role := range settings.AssumeRoles {
		cfg = assumeRole(cfg, role)
		logger.Debugf(ctx, "Assume-role hop %d: %s", i+1, role.RoleARN)
	}

	p := &Provider{
		awsConfig:    cfg,
		settings:     settings,
		logger:       logger,
		limiter:      o.limiter,
		recorder:     o.recorder,
		errorHandler: &awserrors.DefaultErrorHandler{},
		stsClient:    o.stsClient,
	}
	if p.limiter == nil {
		limiter.Initialize(settings.RateLimitRPS, logger)
		p.limiter = limiter.DefaultRateLimiter{}
	}
	if p.recorder == nil {
		p.recorder = shared.NopRecorder{}
	}
	return p, nil
}

// assumeRole returns a copy of cfg whose credentials come from assuming role
// with cfg's current credentials.
func assumeRole(cfg aws.Config, role config.AssumeRoleConfig) aws.Config {
	stsClient := sts.NewFromConfig(cfg)
	provider := stscreds.NewAssumeRoleProvider(stsClient, role.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		if role.SessionName != "" {
			o.RoleSessionName = role.SessionName
		}
		if role.ExternalID != "" {
			o.ExternalID = aws.String(role.ExternalID)
		}
		if role.Duration > 0 {
			o.Duration = role.Duration
		}
	})
	next := cfg.Copy()
	next.Credentials = aws.NewCredentialsCache(provider)
	return next
}

func (p *Provider) Type() string {
	return ProviderTypeAWS
}

func (p *Provider) Region() string {
	return p.awsConfig.Region
}

func (p *Provider) Config() aws.Config {
	return p.awsConfig
}

// ForRegion returns a provider with the same credentials bound to region.
func (p *Provider) ForRegion(region string) *Provider {
	next := *p
	next.awsConfig = p.awsConfig.Copy()
	next.awsConfig.Region = region
	next.stsClient = nil
	next.logger = p.logger.WithFields(map[string]any{"region": region})
	return &next
}

// CallerIdentity reports which principal the provider's credentials resolve to.
func (p *Provider) CallerIdentity(ctx context.Context) (*sts.GetCallerIdentityOutput, error) {
	client := p.stsClient
	if client == nil {
		client = sts.NewFromConfig(p.awsConfig)
	}
	if err := p.limiter.Wait(ctx, p.logger); err != nil {
		return nil, err
	}
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, p.errorHandler.Handle("sts", "GetCallerIdentity", err, ctx)
	}
	return out, nil
}

func (p *Provider) CloudFormation(opts ...cloudformation.Option) *cloudformation.Client {
	base := []cloudformation.Option{
		cloudformation.WithRegion(p.Region()),
		cloudformation.WithRateLimiter(p.limiter),
		cloudformation.WithMetrics(p.recorder),
		cloudformation.WithPageDelay(p.settings.PageDelay),
	}
	return cloudformation.NewClient(sdkcfn.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "cloudformation"}), append(base, opts...)...)
}

func (p *Provider) Organizations() *organizations.Client {
	return organizations.NewClient(sdkorgs.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "organizations"}),
		organizations.WithRateLimiter(p.limiter),
		organizations.WithMetrics(p.recorder),
		organizations.WithPageDelay(p.settings.PageDelay),
	)
}

func (p *Provider) SSM(opts ...ssm.Option) *ssm.Client {
	base := []ssm.Option{ssm.WithRateLimiter(p.limiter), ssm.WithMetrics(p.recorder)}
	return ssm.NewClient(sdkssm.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "ssm"}), append(base, opts...)...)
}

func (p *Provider) CodeBuild(opts ...codebuild.Option) *codebuild.Client {
	base := []codebuild.Option{codebuild.WithRateLimiter(p.limiter), codebuild.WithMetrics(p.recorder)}
	return codebuild.NewClient(sdkcodebuild.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "codebuild"}), append(base, opts...)...)
}

func (p *Provider) CodeCommit() *codecommit.Client {
	return codecommit.NewClient(sdkcodecommit.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "codecommit"}), p.limiter, p.recorder)
}

func (p *Provider) Logs() *logs.Client {
	return logs.NewClient(sdklogs.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "logs"}), p.limiter, p.recorder)
}

func (p *Provider) Budgets() *budgets.Client {
	return budgets.NewClient(sdkbudgets.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "budgets"}), p.limiter, p.recorder)
}

func (p *Provider) GuardDuty() *guardduty.Client {
	return guardduty.NewClient(sdkguardduty.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "guardduty"}), p.limiter, p.recorder)
}

func (p *Provider) ServiceCatalog() *servicecatalog.Client {
	return servicecatalog.NewClient(sdkcatalog.NewFromConfig(p.awsConfig),
		p.logger.WithFields(map[string]any{"service": "servicecatalog"}), p.limiter, p.recorder)
}

func (p *Provider) String() string {
	return fmt.Sprintf("aws(region=%s, profile=%s, role_hops=%d)", p.Region(), p.settings.Profile, len(p.settings.AssumeRoles))
}
