package json

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

const ReporterTypeJSON = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct{}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

var _ ports.Reporter = (*Reporter)(nil)

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

func (r *Reporter) WithWriter(w io.Writer) *Reporter {
	r.writer = w
	return r
}

type deploymentReport struct {
	Summary deploymentSummary      `json:"summary"`
	Results []deploymentResultItem `json:"results"`
}

type deploymentSummary struct {
	Total     int `json:"total"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	NoChanges int `json:"no_changes"`
	Failed    int `json:"failed"`
}

type deploymentResultItem struct {
	domain.ReconcileResult
	ErrorMessage string `json:"error_message,omitempty"`
}

type eventsReport struct {
	StackName string              `json:"stack_name"`
	Events    []domain.StackEvent `json:"events"`
}

type recordsReport struct {
	Title   string              `json:"title,omitempty"`
	Records []map[string]string `json:"records"`
}

func (r *Reporter) ReportDeployments(ctx context.Context, results []domain.ReconcileResult) error {
	report := deploymentReport{
		Summary: deploymentSummary{Total: len(results)},
		Results: make([]deploymentResultItem, 0, len(results)),
	}
	for _, res := range results {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		}
		switch res.Outcome {
		case domain.OutcomeCreated:
			report.Summary.Created++
		case domain.OutcomeUpdated:
			report.Summary.Updated++
		case domain.OutcomeNoChanges:
			report.Summary.NoChanges++
		case domain.OutcomeFailed:
			report.Summary.Failed++
		}
		item := deploymentResultItem{ReconcileResult: res}
		if res.Error != nil {
			item.ErrorMessage = res.Error.Error()
		}
		report.Results = append(report.Results, item)
	}
	return r.encode(ctx, report)
}

func (r *Reporter) ReportEvents(ctx context.Context, stackName string, events []domain.StackEvent) error {
	if events == nil {
		events = []domain.StackEvent{}
	}
	return r.encode(ctx, eventsReport{StackName: stackName, Events: events})
}

// ReportOrgTree emits the tree as nested objects; children are keyed by name.
func (r *Reporter) ReportOrgTree(ctx context.Context, root *domain.OrgNode) error {
	return r.encode(ctx, root)
}

// ReportRecords emits one object per row keyed by header. Extra cells beyond
// the headers are dropped.
func (r *Reporter) ReportRecords(ctx context.Context, title string, headers []string, rows [][]string) error {
	report := recordsReport{Title: title, Records: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		report.Records = append(report.Records, rec)
	}
	return r.encode(ctx, report)
}

func (r *Reporter) encode(ctx context.Context, v any) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}
