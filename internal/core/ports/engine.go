package ports

import (
	"context"

	"github.com/olusolaa/better-aws/internal/core/domain"
)

type DeploymentEngine interface {
	Deploy(ctx context.Context, def domain.StackDefinition, regions []string) ([]domain.ReconcileResult, error)
}
