package ports

import (
	"context"

	"github.com/olusolaa/better-aws/internal/core/domain"
)

// StackReconciler converges a single named stack in one region.
type StackReconciler interface {
	CreateOrUpdate(ctx context.Context, def domain.StackDefinition) (*domain.ReconcileResult, error)
	EnsureDeleted(ctx context.Context, stackName string) error
}

// DefinitionSource loads desired stack definitions from some storage.
type DefinitionSource interface {
	Type() string
	// Extensions lists the file extensions (with leading dot) this source reads.
	Extensions() []string
	Load(ctx context.Context, path string) (*domain.StackDefinition, error)
}
