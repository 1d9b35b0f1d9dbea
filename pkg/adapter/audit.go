package adapter

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
)

// AuditRecord is one tool dispatch, recorded for operational review.
// Folded conversation turns stay in the message log; tool dispatches go here.
type AuditRecord struct {
	SessionID    string    `bigquery:"session_id"`
	ToolName     string    `bigquery:"tool_name"`
	Arguments    string    `bigquery:"arguments"`
	Error        string    `bigquery:"error"`
	DurationMS   int64     `bigquery:"duration_ms"`
	DispatchedAt time.Time `bigquery:"dispatched_at"`
}

// Audit is an optional sink for tool dispatch records
type Audit interface {
	Insert(ctx context.Context, record *AuditRecord) error
}

type bigqueryAudit struct {
	inserter *bigquery.Inserter
}

// NewAudit creates a BigQuery-backed audit sink writing to dataset.table
func NewAudit(ctx context.Context, projectID, datasetID, tableID string) (Audit, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryAudit{
		inserter: client.Dataset(datasetID).Table(tableID).Inserter(),
	}, nil
}

func (a *bigqueryAudit) Insert(ctx context.Context, record *AuditRecord) error {
	if err := a.inserter.Put(ctx, record); err != nil {
		return goerr.Wrap(err, "failed to insert audit record",
			goerr.V("tool", record.ToolName),
			goerr.V("session", record.SessionID))
	}
	return nil
}
