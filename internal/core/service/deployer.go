package service

import (
	"context"
	"fmt"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
	"golang.org/x/sync/errgroup"
)

// ReconcilerFactory returns a stack reconciler bound to one region.
type ReconcilerFactory func(region string) ports.StackReconciler

// Deployer reconciles one stack definition in several regions at once.
type Deployer struct {
	factory     ReconcilerFactory
	logger      ports.Logger
	concurrency int
}

var _ ports.DeploymentEngine = (*Deployer)(nil)

func NewDeployer(factory ReconcilerFactory, logger ports.Logger, concurrency int) (*Deployer, error) {
	if factory == nil {
		return nil, errors.New(errors.CodeConfigValidation, "reconciler factory cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Deployer{factory: factory, logger: logger, concurrency: concurrency}, nil
}

// Deploy runs CreateOrUpdate in every region. A failure in one region does
// not stop the others; every region gets a result in input order, and the
// first error encountered is returned alongside them.
func (d *Deployer) Deploy(ctx context.Context, def domain.StackDefinition, regions []string) ([]domain.ReconcileResult, error) {
	if len(regions) == 0 {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no regions to deploy to",
			"Set aws.region, aws.regions or pass --regions.")
	}
	d.logger.Infof(ctx, "Deploying stack %s to %d region(s)", def.Name, len(regions))

	results := make([]domain.ReconcileResult, len(regions))
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	for i, region := range regions {
		g.Go(func() error {
			logger := d.logger.WithFields(map[string]any{"region": region})
			res, err := d.factory(region).CreateOrUpdate(ctx, def)
			if err != nil {
				logger.Errorf(ctx, err, "Deploy of %s failed", def.Name)
				results[i] = domain.ReconcileResult{
					StackName: def.Name,
					Region:    region,
					Outcome:   domain.OutcomeFailed,
					Error:     err,
				}
				return errors.Wrap(err, errors.CodeStackOperationFailed, fmt.Sprintf("deploy to %s failed", region))
			}
			res.Region = region
			results[i] = *res
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
