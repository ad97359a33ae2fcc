package inventory

import (
	"context"
	"fmt"
	"time"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/id"
	"smartsupply/pkg/logger"
)

// IssueKind names a reconciliation check.
type IssueKind string

const (
	IssueBatchLedgerMismatch   IssueKind = "batch_ledger_mismatch"
	IssueMovementWithoutIntent IssueKind = "movement_without_intent"
	IssueIntentWithoutMovement IssueKind = "intent_without_movement"
	IssueIntentStale           IssueKind = "intent_stale"
	IssueIntentFailed          IssueKind = "intent_failed"
	IssueMirrorMissing         IssueKind = "mirror_missing"
)

// Issue is a persisted reconciliation finding. Issues are never resolved by the
// system; an operator repairs the data and closes them out of band.
type Issue struct {
	ID         id.ID          `db:"id" json:"id"`
	Kind       IssueKind      `db:"kind" json:"kind"`
	SubjectID  id.ID          `db:"subject_id" json:"subjectId"`
	Expected   *int64         `db:"expected" json:"expected,omitempty"`
	Actual     *int64         `db:"actual" json:"actual,omitempty"`
	Details    map[string]any `db:"details" json:"details,omitempty"`
	DetectedAt time.Time      `db:"detected_at" json:"detectedAt"`
}

// ReconcilerConfig tunes the sweep.
type ReconcilerConfig struct {
	// StaleAfter is how long an intent may stay pending before it is flagged.
	StaleAfter time.Duration
	// MirrorSampleSize is how many published intents are checked against the mirror.
	MirrorSampleSize int
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Found    int               `json:"found"`
	Recorded int               `json:"recorded"`
	ByKind   map[IssueKind]int `json:"byKind"`
	Issues   []Issue           `json:"issues"`
}

// Err returns a ConsistencyViolation when the sweep found anything.
func (r *SweepReport) Err() error {
	if r.Found == 0 {
		return nil
	}
	return apperror.NewConsistencyViolation("reconciliation_sweep", r.Found).
		WithDetail("by_kind", r.ByKind)
}

// Reconciler cross-checks the Batch Store, the Audit Log, the outbox and the
// audit mirror. It flags and records; it never repairs.
type Reconciler struct {
	repo   ReconciliationRepository
	mirror AuditMirror
	cfg    ReconcilerConfig
	now    func() time.Time
}

// NewReconciler creates a reconciler. mirror may be nil, which skips the mirror check.
func NewReconciler(repo ReconciliationRepository, mirror AuditMirror, cfg ReconcilerConfig) *Reconciler {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.MirrorSampleSize <= 0 {
		cfg.MirrorSampleSize = 100
	}
	return &Reconciler{
		repo:   repo,
		mirror: mirror,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Sweep runs every check once.
func (r *Reconciler) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{ByKind: make(map[IssueKind]int)}

	checks := []struct {
		name string
		run  func(context.Context) ([]Issue, error)
	}{
		{"ledger", r.checkLedger},
		{"movements", r.checkMovements},
		{"intents", r.checkIntents},
		{"mirror", r.checkMirror},
	}

	for _, c := range checks {
		issues, err := c.run(ctx)
		if err != nil {
			return report, fmt.Errorf("reconcile %s: %w", c.name, err)
		}
		for i := range issues {
			issue := &issues[i]
			issue.ID = id.New()
			issue.DetectedAt = r.now()

			inserted, err := r.repo.RecordIssue(ctx, issue)
			if err != nil {
				return report, fmt.Errorf("record issue: %w", err)
			}
			report.Found++
			report.ByKind[issue.Kind]++
			report.Issues = append(report.Issues, *issue)
			if inserted {
				report.Recorded++
				logger.Error(ctx, "consistency violation",
					"kind", issue.Kind,
					"subject_id", issue.SubjectID,
					"details", issue.Details,
					"error", apperror.NewConsistencyViolation(string(issue.Kind), issue.SubjectID),
				)
			}
		}
	}

	if report.Found > 0 {
		logger.Warn(ctx, "reconciliation sweep found issues", "found", report.Found, "new", report.Recorded)
	} else {
		logger.Debug(ctx, "reconciliation sweep clean")
	}
	return report, nil
}

// Issues lists recorded findings, newest first.
func (r *Reconciler) Issues(ctx context.Context, limit int) ([]Issue, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return r.repo.ListIssues(ctx, limit)
}

func (r *Reconciler) checkLedger(ctx context.Context) ([]Issue, error) {
	mismatches, err := r.repo.LedgerMismatches(ctx)
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(mismatches))
	for _, m := range mismatches {
		ledger, quantity := m.Ledger, m.Quantity
		issues = append(issues, Issue{
			Kind:      IssueBatchLedgerMismatch,
			SubjectID: m.BatchID,
			Expected:  &ledger,
			Actual:    &quantity,
		})
	}
	return issues, nil
}

func (r *Reconciler) checkMovements(ctx context.Context) ([]Issue, error) {
	movementIDs, err := r.repo.MovementsWithoutIntent(ctx)
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(movementIDs))
	for _, movementID := range movementIDs {
		issues = append(issues, Issue{Kind: IssueMovementWithoutIntent, SubjectID: movementID})
	}
	return issues, nil
}

func (r *Reconciler) checkIntents(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	orphans, err := r.repo.IntentsWithoutMovement(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range orphans {
		issues = append(issues, intentIssue(IssueIntentWithoutMovement, ref))
	}

	stale, err := r.repo.StaleIntents(ctx, r.now().Add(-r.cfg.StaleAfter))
	if err != nil {
		return nil, err
	}
	for _, ref := range stale {
		issues = append(issues, intentIssue(IssueIntentStale, ref))
	}

	failed, err := r.repo.FailedIntents(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range failed {
		issues = append(issues, intentIssue(IssueIntentFailed, ref))
	}
	return issues, nil
}

func (r *Reconciler) checkMirror(ctx context.Context) ([]Issue, error) {
	if r.mirror == nil {
		return nil, nil
	}
	published, err := r.repo.PublishedIntents(ctx, r.cfg.MirrorSampleSize)
	if err != nil {
		return nil, err
	}
	if len(published) == 0 {
		return nil, nil
	}

	byMovement := make(map[id.ID]IntentRef, len(published))
	movementIDs := make([]id.ID, 0, len(published))
	for _, ref := range published {
		byMovement[ref.MovementID] = ref
		movementIDs = append(movementIDs, ref.MovementID)
	}

	missing, err := r.mirror.Missing(ctx, movementIDs)
	if err != nil {
		return nil, fmt.Errorf("query mirror: %w", err)
	}
	issues := make([]Issue, 0, len(missing))
	for _, movementID := range missing {
		issues = append(issues, intentIssue(IssueMirrorMissing, byMovement[movementID]))
	}
	return issues, nil
}

func intentIssue(kind IssueKind, ref IntentRef) Issue {
	subject := ref.MovementID
	if id.IsNil(subject) {
		subject = ref.EventID
	}
	return Issue{
		Kind:      kind,
		SubjectID: subject,
		Details: map[string]any{
			"event_id":    ref.EventID.String(),
			"status":      ref.Status,
			"retry_count": ref.RetryCount,
			"created_at":  ref.CreatedAt.Format(time.RFC3339),
		},
	}
}
