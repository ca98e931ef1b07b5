package text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
	apperrors "github.com/olusolaa/better-aws/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color" yaml:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

var _ ports.Reporter = (*Reporter)(nil)

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}

	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

// WithWriter redirects output, mostly for tests.
func (r *Reporter) WithWriter(w io.Writer) *Reporter {
	r.writer = w
	return r
}

func isTerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) ReportDeployments(ctx context.Context, results []domain.ReconcileResult) error {
	if len(results) == 0 {
		fmt.Fprintln(r.writer, "No stacks reconciled.")
		return nil
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintln(tw, "Stack Reconciliation Report")
	fmt.Fprintln(tw, "===========================")
	fmt.Fprintln(tw, "Status\tStack\tRegion\tDetails")
	fmt.Fprintln(tw, "------\t-----\t------\t-------")

	counts := make(map[domain.ReconcileOutcome]int)
	for _, res := range results {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		counts[res.Outcome]++

		region := res.Region
		if region == "" {
			region = "-"
		}

		var statusStr, details string
		switch res.Outcome {
		case domain.OutcomeCreated:
			statusStr = green("[CREATED]")
			details = "Stack created."
			if res.Recreated {
				details = "Stack was in ROLLBACK_COMPLETE; deleted and recreated."
			}
		case domain.OutcomeUpdated:
			statusStr = cyan("[UPDATED]")
			details = formatChangeSet(res.ChangeSet)
		case domain.OutcomeNoChanges:
			statusStr = yellow("[NO CHANGES]")
			details = "Stack already matches the definition."
		case domain.OutcomeFailed:
			statusStr = red("[FAILED]")
			details = fmt.Sprintf("Reconcile failed: %v", res.Error)
			if appErr := (*apperrors.AppError)(nil); errors.As(res.Error, &appErr) {
				if appErr.IsUserFacing && appErr.SuggestedAction != "" {
					details += fmt.Sprintf(" (%s)", appErr.SuggestedAction)
				}
			}
		default:
			statusStr = "[UNKNOWN]"
			details = "Unknown outcome."
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", statusStr, res.StackName, region, details)
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Total:\t%d\n", len(results))
	fmt.Fprintf(tw, "Created:\t%s\n", green(counts[domain.OutcomeCreated]))
	fmt.Fprintf(tw, "Updated:\t%s\n", cyan(counts[domain.OutcomeUpdated]))
	fmt.Fprintf(tw, "No changes:\t%s\n", yellow(counts[domain.OutcomeNoChanges]))
	fmt.Fprintf(tw, "Failed:\t%s\n", red(counts[domain.OutcomeFailed]))

	return nil
}

func formatChangeSet(cs *domain.ChangeSet) string {
	if cs.IsEmpty() {
		return "Stack updated."
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d changes via %s: ", len(cs.Changes), cs.Name))
	for i, c := range cs.Changes {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(fmt.Sprintf("%s %s (%s)", c.Action, c.LogicalID, c.ResourceType))
		if c.Replacement == "True" {
			builder.WriteString(" [replacement]")
		}
	}
	return truncate(builder.String(), 200)
}

func (r *Reporter) ReportEvents(ctx context.Context, stackName string, events []domain.StackEvent) error {
	if len(events) == 0 {
		fmt.Fprintf(r.writer, "No events for stack %s.\n", stackName)
		return nil
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintf(tw, "Events for %s\n", stackName)
	fmt.Fprintln(tw, "Timestamp\tLogical ID\tType\tStatus\tReason")
	for _, ev := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		status := ev.Status
		switch {
		case strings.HasSuffix(status, "_FAILED"):
			status = red(status)
		case strings.HasSuffix(status, "_COMPLETE"):
			status = green(status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			ev.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), ev.LogicalID, ev.ResourceType, status, truncate(ev.Reason, 100))
	}
	return nil
}

func (r *Reporter) ReportOrgTree(ctx context.Context, root *domain.OrgNode) error {
	if root == nil {
		fmt.Fprintln(r.writer, "Empty organization tree.")
		return nil
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	var walkErr error
	root.Walk(func(node *domain.OrgNode) {
		if walkErr != nil {
			return
		}
		if err := ctx.Err(); err != nil {
			walkErr = err
			return
		}
		indent := strings.Repeat("  ", node.Depth-root.Depth)
		fmt.Fprintf(r.writer, "%s%s %s\n", indent, node.Name, cyan("("+node.ID+")"))
	})
	return walkErr
}

func (r *Reporter) ReportRecords(ctx context.Context, title string, headers []string, rows [][]string) error {
	if title != "" {
		fmt.Fprintln(r.writer, title)
	}
	if len(rows) == 0 {
		fmt.Fprintln(r.writer, "No records.")
		return nil
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	if len(headers) > 0 {
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
