package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdkcfn "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	awsprovider "github.com/olusolaa/better-aws/internal/adapters/platform/aws"
	"github.com/olusolaa/better-aws/internal/config"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/core/service"
	"github.com/olusolaa/better-aws/internal/errors"
	"github.com/olusolaa/better-aws/internal/metrics"
)

// Application holds the wired components behind every CLI command.
type Application struct {
	Config   *config.Config
	Logger   ports.Logger
	Registry *service.ComponentRegistry
	Reporter ports.Reporter
	Provider *awsprovider.Provider
	Engine   ports.DeploymentEngine
	Metrics  *metrics.Recorder
}

// Deploy loads the definition at path and reconciles it in every target
// region. Results are reported even when some regions fail. Deploy flags the
// file leaves unset come from the deploy config section.
func (a *Application) Deploy(ctx context.Context, path string, regions []string) error {
	source, err := a.Registry.DefinitionSourceFor(path)
	if err != nil {
		return err
	}
	def, err := source.Load(ctx, path)
	if err != nil {
		return err
	}
	if len(regions) == 0 {
		regions = a.Config.TargetRegions()
	}
	if len(regions) == 0 && a.Provider != nil && a.Provider.Region() != "" {
		regions = []string{a.Provider.Region()}
	}

	results, deployErr := a.Engine.Deploy(ctx, *def, regions)
	if len(results) > 0 {
		if err := a.Reporter.ReportDeployments(ctx, results); err != nil {
			a.Logger.Errorf(ctx, err, "Failed to report deployment results")
		}
	}
	return deployErr
}

func (a *Application) DeleteStack(ctx context.Context, name string) error {
	if err := a.Provider.CloudFormation(deployOptions(a.Config.Deploy)...).EnsureDeleted(ctx, name); err != nil {
		return err
	}
	a.Logger.Infof(ctx, "Stack %s is absent", name)
	return nil
}

func (a *Application) ListStacks(ctx context.Context) error {
	stacks, err := a.Provider.CloudFormation().DescribeStacksAll(ctx, &sdkcfn.DescribeStacksInput{})
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(stacks))
	for _, s := range stacks {
		updated := ""
		if s.LastUpdatedTime != nil {
			updated = s.LastUpdatedTime.UTC().Format("2006-01-02T15:04:05Z")
		}
		rows = append(rows, []string{aws.ToString(s.StackName), string(s.StackStatus), updated})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return a.Reporter.ReportRecords(ctx, "Stacks in "+a.Provider.Region(), []string{"NAME", "STATUS", "LAST UPDATED"}, rows)
}

func (a *Application) StackEvents(ctx context.Context, name string) error {
	events, err := a.Provider.CloudFormation().StackEvents(ctx, name)
	if err != nil {
		return err
	}
	return a.Reporter.ReportEvents(ctx, name, events)
}

func (a *Application) ResolveOU(ctx context.Context, path string) error {
	id, err := a.Provider.Organizations().PathToOU(ctx, path)
	if err != nil {
		return err
	}
	return a.Reporter.ReportRecords(ctx, "", []string{"PATH", "ID"}, [][]string{{path, id}})
}

func (a *Application) OrgTree(ctx context.Context, id string) error {
	tree, err := a.Provider.Organizations().BuildOUTree(ctx, id)
	if err != nil {
		return err
	}
	return a.Reporter.ReportOrgTree(ctx, tree)
}

func (a *Application) Descendants(ctx context.Context, parentID, childType string) error {
	ids, err := a.Provider.Organizations().ListChildrenNested(ctx, parentID, orgtypes.ChildType(childType))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id})
	}
	return a.Reporter.ReportRecords(ctx, fmt.Sprintf("%s descendants of %s", childType, parentID), []string{"ID"}, rows)
}

func (a *Application) PutParameter(ctx context.Context, name, value, paramType string, overwrite bool) error {
	client := a.Provider.SSM(ssmOptions(a.Config.SSM)...)
	out, err := client.PutParameterAndWait(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      ssmtypes.ParameterType(paramType),
		Overwrite: aws.Bool(overwrite),
	})
	if err != nil {
		return err
	}
	version := ""
	if out.Parameter != nil {
		version = strconv.FormatInt(out.Parameter.Version, 10)
	}
	return a.Reporter.ReportRecords(ctx, "", []string{"NAME", "VERSION"}, [][]string{{name, version}})
}

func (a *Application) StartBuild(ctx context.Context, project string) error {
	build, err := a.Provider.CodeBuild(codebuildOptions(a.Config.CodeBuild)...).
		StartBuildAndWait(ctx, &codebuild.StartBuildInput{ProjectName: aws.String(project)})
	if err != nil {
		return err
	}
	return a.Reporter.ReportRecords(ctx, "", []string{"BUILD", "STATUS"},
		[][]string{{aws.ToString(build.Id), string(build.BuildStatus)}})
}

func (a *Application) WhoAmI(ctx context.Context) error {
	out, err := a.Provider.CallerIdentity(ctx)
	if err != nil {
		return err
	}
	return a.Reporter.ReportRecords(ctx, "", []string{"ACCOUNT", "ARN", "USER ID"},
		[][]string{{aws.ToString(out.Account), aws.ToString(out.Arn), aws.ToString(out.UserId)}})
}

// Close flushes metrics to settings.metrics_file when one is configured.
func (a *Application) Close(ctx context.Context) error {
	if a.Metrics == nil || a.Config.Settings.MetricsFile == "" {
		return nil
	}
	if err := a.Metrics.WriteToTextfile(a.Config.Settings.MetricsFile); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write metrics file")
	}
	a.Logger.Debugf(ctx, "Metrics written to %s", a.Config.Settings.MetricsFile)
	return nil
}
