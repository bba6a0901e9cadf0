package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// ArchiveRepository keeps a durable copy of analyses and alerts in MySQL.
// The full record is stored as JSON next to the columns used for lookups.
type ArchiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// SaveAnalysis insert/update analysis record
func (r *ArchiveRepository) SaveAnalysis(ctx context.Context, a *fraud.Analysis) error {
	const q = `
INSERT INTO fraud_analyses
(id, agent_id, event_id, created_at, risk_score, confidence, fallback, result_json)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 risk_score=VALUES(risk_score), confidence=VALUES(confidence),
 fallback=VALUES(fallback), result_json=VALUES(result_json);
`
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", a.ID, err)
	}
	_, err = r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.AgentID), stringOrDash(a.EventID), nowIfZero(a.Timestamp),
		a.RiskScore, a.Confidence, a.Fallback, string(body),
	)
	return err
}

// SaveAlert insert/update alert record
func (r *ArchiveRepository) SaveAlert(ctx context.Context, a *fraud.Alert) error {
	const q = `
INSERT INTO fraud_alerts
(id, analysis_id, agent_id, event_id, account_id, created_at,
 risk_score, severity, status, acknowledged_at, report_url, alert_json)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), acknowledged_at=VALUES(acknowledged_at),
 report_url=VALUES(report_url), alert_json=VALUES(alert_json);
`
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert %s: %w", a.ID, err)
	}
	_, err = r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.AnalysisID), stringOrDash(a.AgentID), stringOrDash(a.EventID),
		stringOrDash(a.AccountID), nowIfZero(a.Timestamp),
		a.RiskScore, string(a.Severity), string(a.Status), nullTime(a.AcknowledgedAt),
		a.ReportURL, string(body),
	)
	return err
}

// UpdateAlertStatus only touches the status columns; alert_json keeps the
// snapshot taken when the alert was raised.
func (r *ArchiveRepository) UpdateAlertStatus(ctx context.Context, id string, status fraud.AlertStatus, at time.Time) error {
	const q = `UPDATE fraud_alerts SET status=?, acknowledged_at=? WHERE id=?;`
	res, err := r.db.ExecContext(ctx, q, string(status), nullTime(&at), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("alert %s: %w", id, fraud.ErrAlertNotFound)
	}
	return nil
}

// PaginateAnalyses returns a page of analyses, newest first
func (r *ArchiveRepository) PaginateAnalyses(ctx context.Context, page, pageSize int) ([]*fraud.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT result_json FROM fraud_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*fraud.Analysis, 0, pageSize)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var a fraud.Analysis
		if err := json.Unmarshal([]byte(body), &a); err != nil {
			return nil, fmt.Errorf("decode archived analysis: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *ArchiveRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
