package ports

import (
	"context"

	"github.com/olusolaa/better-aws/internal/core/domain"
)

type Reporter interface {
	ReportDeployments(ctx context.Context, results []domain.ReconcileResult) error
	ReportEvents(ctx context.Context, stackName string, events []domain.StackEvent) error
	ReportOrgTree(ctx context.Context, root *domain.OrgNode) error
	// ReportRecords prints a flat list of records (stack summaries, children, ...).
	ReportRecords(ctx context.Context, title string, headers []string, rows [][]string) error
}
