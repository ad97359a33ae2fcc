package inventory_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/storage/postgres"
)

// maxFindings bounds each reconciliation query.
const maxFindings = 1000

var _ inventory.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo runs the cross-checks between batches, the ledger and the
// audit outbox, and stores findings in inv_reconciliation_issues.
type ReconciliationRepo struct {
	txManager *postgres.TxManager
}

// NewReconciliationRepo creates a new reconciliation repository.
func NewReconciliationRepo(txManager *postgres.TxManager) *ReconciliationRepo {
	return &ReconciliationRepo{txManager: txManager}
}

func (r *ReconciliationRepo) LedgerMismatches(ctx context.Context) ([]inventory.LedgerMismatch, error) {
	out := make([]inventory.LedgerMismatch, 0)
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, `
		SELECT b.id AS batch_id, b.quantity, COALESCE(SUM(l.delta), 0)::BIGINT AS ledger
		FROM inv_batches b
		LEFT JOIN inv_movement_lines l ON l.batch_id = b.id
		GROUP BY b.id, b.quantity
		HAVING b.quantity <> COALESCE(SUM(l.delta), 0)
		ORDER BY b.id
		LIMIT $1
	`, maxFindings)
	if err != nil {
		return nil, fmt.Errorf("ledger mismatches: %w", err)
	}
	return out, nil
}

// MovementsWithoutIntent looks in the outbox and its dead letter queue.
func (r *ReconciliationRepo) MovementsWithoutIntent(ctx context.Context) ([]id.ID, error) {
	out := make([]id.ID, 0)
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, `
		SELECT m.id
		FROM inv_movements m
		WHERE NOT EXISTS (
			SELECT 1 FROM sys_outbox o WHERE o.aggregate_type = $1 AND o.aggregate_id = m.id
		)
		AND NOT EXISTS (
			SELECT 1 FROM sys_outbox_dlq d WHERE d.aggregate_type = $1 AND d.aggregate_id = m.id
		)
		ORDER BY m.created_at
		LIMIT $2
	`, AggregateMovement, maxFindings)
	if err != nil {
		return nil, fmt.Errorf("movements without intent: %w", err)
	}
	return out, nil
}

func (r *ReconciliationRepo) IntentsWithoutMovement(ctx context.Context) ([]inventory.IntentRef, error) {
	return r.intents(ctx, "intents without movement", `
		SELECT o.id AS event_id, o.aggregate_id AS movement_id, o.status, o.retry_count, o.created_at
		FROM sys_outbox o
		WHERE o.aggregate_type = $1
		  AND NOT EXISTS (SELECT 1 FROM inv_movements m WHERE m.id = o.aggregate_id)
		ORDER BY o.created_at
		LIMIT $2
	`, AggregateMovement, maxFindings)
}

func (r *ReconciliationRepo) StaleIntents(ctx context.Context, olderThan time.Time) ([]inventory.IntentRef, error) {
	return r.intents(ctx, "stale intents", `
		SELECT id AS event_id, aggregate_id AS movement_id, status, retry_count, created_at
		FROM sys_outbox
		WHERE aggregate_type = $1 AND status = $2 AND created_at < $3
		ORDER BY created_at
		LIMIT $4
	`, AggregateMovement, postgres.OutboxStatusPending, olderThan, maxFindings)
}

// FailedIntents includes intents already moved to the dead letter queue.
func (r *ReconciliationRepo) FailedIntents(ctx context.Context) ([]inventory.IntentRef, error) {
	return r.intents(ctx, "failed intents", `
		SELECT id AS event_id, aggregate_id AS movement_id, status, retry_count, created_at
		FROM sys_outbox
		WHERE aggregate_type = $1 AND status = $2
		UNION ALL
		SELECT id AS event_id, aggregate_id AS movement_id, status, retry_count, created_at
		FROM sys_outbox_dlq
		WHERE aggregate_type = $1
		ORDER BY created_at
		LIMIT $3
	`, AggregateMovement, postgres.OutboxStatusFailed, maxFindings)
}

func (r *ReconciliationRepo) PublishedIntents(ctx context.Context, limit int) ([]inventory.IntentRef, error) {
	return r.intents(ctx, "published intents", `
		SELECT id AS event_id, aggregate_id AS movement_id, status, retry_count, created_at
		FROM sys_outbox
		WHERE aggregate_type = $1 AND status = $2
		ORDER BY published_at DESC
		LIMIT $3
	`, AggregateMovement, postgres.OutboxStatusPublished, limit)
}

func (r *ReconciliationRepo) intents(ctx context.Context, what, sql string, args ...any) ([]inventory.IntentRef, error) {
	out := make([]inventory.IntentRef, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return out, nil
}

func (r *ReconciliationRepo) RecordIssue(ctx context.Context, issue *inventory.Issue) (bool, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO inv_reconciliation_issues (id, kind, subject_id, expected, actual, details, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (kind, subject_id) DO NOTHING
	`, issue.ID, string(issue.Kind), issue.SubjectID, issue.Expected, issue.Actual, issue.Details, issue.DetectedAt)
	if err != nil {
		return false, fmt.Errorf("record issue: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ReconciliationRepo) ListIssues(ctx context.Context, limit int) ([]inventory.Issue, error) {
	out := make([]inventory.Issue, 0)
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, `
		SELECT id, kind, subject_id, expected, actual, details, detected_at
		FROM inv_reconciliation_issues
		ORDER BY detected_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return out, nil
}
