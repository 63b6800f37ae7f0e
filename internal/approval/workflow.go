// Package approval persists require-approval decisions as reviewable
// requests and records the human verdict exactly once. Requests live in
// a relational store; the only concurrency primitive is the conditional
// update on status = 'pending', which gives first-writer-wins semantics
// even when the store is shared across processes.
package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/mackeh/AegisGate/internal/action"
	"github.com/mackeh/AegisGate/internal/audit"
	"github.com/mackeh/AegisGate/internal/policy"
	"github.com/mackeh/AegisGate/internal/telemetry"
)

// ErrNotFound is returned when a request id is unknown.
var ErrNotFound = errors.New("approval request not found")

// Status is the lifecycle state of a request. Pending is the only
// non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusTimedOut Status = "timed_out"
)

// ParseStatus maps a stored string to a Status. Unknown strings default
// to pending; the workflow logs the fallback when an audit logger is
// attached.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusTimedOut:
		return Status(s)
	default:
		return StatusPending
	}
}

// Request is a persisted approval request. Only the action's type and
// resource identifiers are stored, not its full parameters; callers that
// need richer context for review should encode it into Justification.
type Request struct {
	ID             string
	RequesterID    string
	TeamID         string
	ActionType     string
	ResourceType   string
	ResourceID     string
	Risk           policy.RiskLevel
	Justification  string
	Status         Status
	CreatedAt      int64
	ReviewedBy     string
	ReviewedAt     int64
	DecisionReason string
	ExpiresAt      int64
}

// Decision is a reviewer's verdict. It is consumed once; only its effect
// on the request persists.
type Decision struct {
	Approved bool
	Reason   string
}

// Statistics summarizes requests for dashboards.
type Statistics struct {
	Total    int64
	Approved int64
	Rejected int64
	Pending  int64
	TimedOut int64
}

// Workflow manages approval requests over a shared SQL store. Every
// public method issues one self-contained statement; there are no
// multi-statement transactions.
type Workflow struct {
	db  *sql.DB
	log *audit.Logger
	now func() time.Time
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithAudit attaches an audit logger for lifecycle events and
// permissive-default warnings.
func WithAudit(l *audit.Logger) WorkflowOption {
	return func(w *Workflow) { w.log = l }
}

// withClock overrides the time source for tests.
func withClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow wraps an open database handle.
func NewWorkflow(db *sql.DB, opts ...WorkflowOption) *Workflow {
	w := &Workflow{db: db, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open opens (or creates) the SQLite store at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string, opts ...WorkflowOption) (*Workflow, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open approval store: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from being per-connection.
	db.SetMaxOpenConns(1)
	w := NewWorkflow(db, opts...)
	if err := w.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

// Close closes the underlying database handle.
func (w *Workflow) Close() error {
	return w.db.Close()
}

// InitSchema creates the approval_requests table if needed.
func (w *Workflow) InitSchema(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS approval_requests (
			id TEXT PRIMARY KEY,
			requester_id TEXT NOT NULL,
			team_id TEXT,
			action_type TEXT NOT NULL,
			resource_type TEXT,
			resource_id TEXT,
			risk_level TEXT NOT NULL,
			justification TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			reviewed_by TEXT,
			reviewed_at INTEGER,
			decision_reason TEXT,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create approval_requests table: %w", err)
	}
	return nil
}

// CreateParams describes a new approval request.
type CreateParams struct {
	RequesterID    string
	TeamID         string
	Action         action.Action
	Risk           policy.RiskLevel
	Justification  string
	TimeoutMinutes int64
}

// Create inserts a new pending request and returns its id. Each call
// makes a fresh request; there is no dedup and no conflict path.
func (w *Workflow) Create(ctx context.Context, p CreateParams) (string, error) {
	if p.RequesterID == "" {
		return "", fmt.Errorf("requester id is required")
	}
	if p.Action == nil {
		return "", fmt.Errorf("action is required")
	}

	id := uuid.NewString()
	now := w.now().Unix()
	expiresAt := now + p.TimeoutMinutes*60
	resourceType, resourceID := p.Action.Resource()

	_, err := w.db.ExecContext(ctx, `
		INSERT INTO approval_requests (
			id, requester_id, team_id, action_type,
			resource_type, resource_id, risk_level,
			justification, status, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		p.RequesterID,
		nullString(p.TeamID),
		p.Action.Label(),
		nullString(resourceType),
		nullString(resourceID),
		p.Risk.String(),
		nullString(p.Justification),
		string(StatusPending),
		now,
		expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create approval request: %w", err)
	}

	telemetry.ApprovalRequestsTotal.WithLabelValues(string(StatusPending)).Inc()
	if w.log != nil {
		w.log.LogApprovalCreated(id, p.Action.Label(), p.Risk.String(), p.RequesterID)
	}
	return id, nil
}

// Decide applies a reviewer's verdict. The update is conditioned on the
// request still being pending, so a second verdict against an already
// decided request succeeds at the statement level but changes nothing;
// callers must re-fetch the request to detect that.
func (w *Workflow) Decide(ctx context.Context, requestID, reviewerID string, d Decision) error {
	status := StatusApproved
	if !d.Approved {
		status = StatusRejected
	}
	now := w.now().Unix()

	res, err := w.db.ExecContext(ctx, `
		UPDATE approval_requests
		SET status = ?, reviewed_by = ?, reviewed_at = ?, decision_reason = ?
		WHERE id = ? AND status = 'pending'`,
		string(status),
		reviewerID,
		now,
		nullString(d.Reason),
		requestID,
	)
	if err != nil {
		return fmt.Errorf("failed to decide approval request: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		telemetry.ApprovalRequestsTotal.WithLabelValues(string(status)).Inc()
		if w.log != nil {
			w.log.LogApprovalDecided(requestID, string(status), reviewerID, d.Reason)
		}
	}
	return nil
}

const requestColumns = `id, requester_id, team_id, action_type, resource_type,
	resource_id, risk_level, justification, status,
	created_at, reviewed_by, reviewed_at, decision_reason, expires_at`

// Get returns the request with the given id, or ErrNotFound.
func (w *Workflow) Get(ctx context.Context, requestID string) (*Request, error) {
	row := w.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM approval_requests WHERE id = ?`, requestID)

	req, err := w.scanRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return req, nil
}

// ListPending returns all pending requests, newest first. A non-empty
// teamID restricts the list to that team.
func (w *Workflow) ListPending(ctx context.Context, teamID string) ([]*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE status = 'pending'`
	args := []any{}
	if teamID != "" {
		query += ` AND team_id = ?`
		args = append(args, teamID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req, err := w.scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return requests, nil
}

// ExpireTimedOut sweeps pending requests whose deadline has passed to
// timed_out and returns how many changed. It is idempotent and safe on
// any schedule: the status guard makes a concurrent approval and sweep
// race resolve to whichever statement commits first.
func (w *Workflow) ExpireTimedOut(ctx context.Context) (int64, error) {
	now := w.now().Unix()
	res, err := w.db.ExecContext(ctx, `
		UPDATE approval_requests
		SET status = ?
		WHERE status = 'pending' AND expires_at < ?`,
		string(StatusTimedOut),
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire approval requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired requests: %w", err)
	}

	telemetry.ApprovalSweepsTotal.Inc()
	if n > 0 {
		telemetry.ApprovalRequestsTotal.WithLabelValues(string(StatusTimedOut)).Add(float64(n))
		if w.log != nil {
			w.log.LogApprovalsExpired(n)
		}
	}
	return n, nil
}

// Statistics returns aggregate counts, optionally scoped to a team.
func (w *Workflow) Statistics(ctx context.Context, teamID string) (Statistics, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'timed_out' THEN 1 ELSE 0 END), 0)
		FROM approval_requests`
	args := []any{}
	if teamID != "" {
		query += ` WHERE team_id = ?`
		args = append(args, teamID)
	}

	var stats Statistics
	err := w.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.Total, &stats.Approved, &stats.Rejected, &stats.Pending, &stats.TimedOut)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to get approval statistics: %w", err)
	}
	return stats, nil
}

// RiskForLabel estimates risk from an action's type label alone. This is
// a coarse pre-filter, independent of the policy engine's per-call risk;
// the engine's value is authoritative for persisted requests. Unknown
// labels default to medium.
func (w *Workflow) RiskForLabel(label string) policy.RiskLevel {
	switch label {
	// Read-only operations.
	case "file_read", "directory_list", "screen_capture":
		return policy.RiskLow

	// Write operations with limited scope.
	case "file_write", "directory_create", "input_simulation",
		"clipboard_read", "clipboard_write", "browser_navigate", "browser_launch":
		return policy.RiskMedium

	// Destructive or data-exposing operations.
	case "file_delete", "directory_delete", "database_query",
		"database_connect", "network_request", "git_operation", "credential_read":
		return policy.RiskHigh

	// System-level operations.
	case "shell_command", "terminal_spawn", "credential_write":
		return policy.RiskCritical

	default:
		if w.log != nil {
			w.log.LogWarning("unknown action label, defaulting risk to medium", map[string]any{"label": label})
		}
		return policy.RiskMedium
	}
}

// RequiresApproval is the fast-path gate: anything above low risk needs
// a human.
func (w *Workflow) RequiresApproval(label string) bool {
	return w.RiskForLabel(label) != policy.RiskLow
}

// scanRequest maps one row into a Request, applying the permissive
// defaults for corrupted status and risk strings.
func (w *Workflow) scanRequest(scan func(dest ...any) error) (*Request, error) {
	var (
		req            Request
		teamID         sql.NullString
		resourceType   sql.NullString
		resourceID     sql.NullString
		riskLevel      string
		justification  sql.NullString
		status         string
		reviewedBy     sql.NullString
		reviewedAt     sql.NullInt64
		decisionReason sql.NullString
	)
	err := scan(
		&req.ID, &req.RequesterID, &teamID, &req.ActionType, &resourceType,
		&resourceID, &riskLevel, &justification, &status,
		&req.CreatedAt, &reviewedBy, &reviewedAt, &decisionReason, &req.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	req.TeamID = teamID.String
	req.ResourceType = resourceType.String
	req.ResourceID = resourceID.String
	req.Justification = justification.String
	req.ReviewedBy = reviewedBy.String
	req.ReviewedAt = reviewedAt.Int64
	req.DecisionReason = decisionReason.String

	req.Risk = policy.ParseRisk(riskLevel)
	req.Status = ParseStatus(status)
	if w.log != nil && string(req.Status) != status {
		w.log.LogWarning("unknown status in store, treating as pending", map[string]any{
			"request_id": req.ID, "status": status,
		})
	}
	return &req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
