// Package postgres persists the ledger, anomalies and trust indicators in
// PostgreSQL. Stores are pure I/O; rules live in the services.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	anomaly "trustledger/internal/anomaly/models"
	ledger "trustledger/internal/ledger/models"
	trust "trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
	"trustledger/pkg/platform/sentinel"
	txcontext "trustledger/pkg/platform/tx"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresStore implements the record ports over database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// ============================================================================
// Seeding and writes
// ============================================================================

func (s *PostgresStore) CreateDepartment(ctx context.Context, d *ledger.Department) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO departments (id, name, budget, is_active) VALUES ($1, $2, $3, $4)`,
		d.ID, d.Name, d.Budget, d.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("department %s: %w", d.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, p *ledger.Project) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO projects (id, name, department_id, budget, spent, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::date)`,
		p.ID, p.Name, p.DepartmentID, p.Budget, p.Spent, string(p.Status), sqlDate(p.StartDate), nullDate(p.EndDate),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %s: %w", p.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p *ledger.Project) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE projects
		SET name = $2, department_id = $3, budget = $4, spent = $5, status = $6, start_date = $7::date, end_date = $8::date
		WHERE id = $1`,
		p.ID, p.Name, p.DepartmentID, p.Budget, p.Spent, string(p.Status), sqlDate(p.StartDate), nullDate(p.EndDate),
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CreateFundSource inserts the source if it does not already exist.
func (s *PostgresStore) CreateFundSource(ctx context.Context, src *ledger.FundSource) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO fund_sources (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		src.ID, src.Name,
	)
	if err != nil {
		return fmt.Errorf("insert fund source: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateFlow(ctx context.Context, f *ledger.FundFlow) error {
	return s.insertFlow(ctx, s.execer(ctx), f)
}

func (s *PostgresStore) insertFlow(ctx context.Context, ex dbExecutor, f *ledger.FundFlow) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO fund_flows (id, source_id, target_department_id, target_project_id, amount, status,
		                        description, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9)`,
		f.ID, f.SourceID, f.TargetDepartmentID, f.TargetProjectID, f.Amount, string(f.Status),
		f.Description, sqlDate(f.TransactionDate), f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("fund flow %s: %w", f.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert fund flow: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateFeedback(ctx context.Context, f *ledger.CommunityFeedback) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO community_feedback (id, department_id, project_id, is_public, status, created_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.DepartmentID, f.ProjectID, f.IsPublic, string(f.Status), f.CreatedAt, nullTime(f.RespondedAt),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *ledger.Document) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO documents (id, project_id, verified) VALUES ($1, $2, $3)`,
		doc.ID, doc.ProjectID, doc.Verified,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ============================================================================
// Ledger reads
// ============================================================================

func (s *PostgresStore) FindDepartment(ctx context.Context, deptID id.DepartmentID) (*ledger.Department, error) {
	var d ledger.Department
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, name, budget, is_active FROM departments WHERE id = $1`, deptID,
	).Scan(&d.ID, &d.Name, &d.Budget, &d.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) ListDepartments(ctx context.Context) ([]*ledger.Department, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, name, budget, is_active FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Department
	for rows.Next() {
		var d ledger.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Budget, &d.IsActive); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return out, nil
}

const projectColumns = `id, name, department_id, budget, spent, status, start_date, end_date`

func (s *PostgresStore) ListProjectsByStatus(ctx context.Context, statuses ...ledger.ProjectStatus) ([]*ledger.Project, error) {
	raw := make([]string, len(statuses))
	for i, st := range statuses {
		raw[i] = string(st)
	}
	return s.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE status = ANY($1) ORDER BY name, id`,
		pq.Array(raw))
}

func (s *PostgresStore) ListOverBudgetProjects(ctx context.Context) ([]*ledger.Project, error) {
	return s.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE spent > budget ORDER BY name, id`)
}

func (s *PostgresStore) ListOverdueProjects(ctx context.Context, today time.Time) ([]*ledger.Project, error) {
	return s.queryProjects(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE status IN ('planning', 'active') AND end_date IS NOT NULL AND end_date < $1::date
		ORDER BY name, id`, sqlDate(today))
}

func (s *PostgresStore) ListProjectsByDepartment(ctx context.Context, deptID id.DepartmentID) ([]*ledger.Project, error) {
	return s.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE department_id = $1 ORDER BY name, id`, deptID)
}

func (s *PostgresStore) queryProjects(ctx context.Context, query string, args ...any) ([]*ledger.Project, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Project
	for rows.Next() {
		var (
			p      ledger.Project
			status string
			end    sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.DepartmentID, &p.Budget, &p.Spent, &status, &p.StartDate, &end); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Status = ledger.ProjectStatus(status)
		if end.Valid {
			t := end.Time
			p.EndDate = &t
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

const flowColumns = `id, source_id, target_department_id, target_project_id, amount, status, description, transaction_date, created_at`

func (s *PostgresStore) FindFlow(ctx context.Context, flowID id.FundFlowID) (*ledger.FundFlow, error) {
	flows, err := s.queryFlows(ctx, `SELECT `+flowColumns+` FROM fund_flows WHERE id = $1`, flowID)
	if err != nil {
		return nil, err
	}
	if len(flows) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return flows[0], nil
}

func (s *PostgresStore) ListProjectFlows(ctx context.Context, projectID id.ProjectID, from, to time.Time, excludeSource id.FundSourceID) ([]*ledger.FundFlow, error) {
	return s.queryFlows(ctx, `
		SELECT `+flowColumns+` FROM fund_flows
		WHERE target_project_id = $1
		  AND transaction_date BETWEEN $2::date AND $3::date
		  AND source_id <> $4
		ORDER BY transaction_date, id`,
		projectID, sqlDate(from), sqlDate(to), excludeSource)
}

func (s *PostgresStore) ListFlows(ctx context.Context) ([]*ledger.FundFlow, error) {
	return s.queryFlows(ctx, `SELECT `+flowColumns+` FROM fund_flows ORDER BY created_at, id`)
}

func (s *PostgresStore) queryFlows(ctx context.Context, query string, args ...any) ([]*ledger.FundFlow, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fund flows: %w", err)
	}
	defer rows.Close()

	var out []*ledger.FundFlow
	for rows.Next() {
		var (
			f       ledger.FundFlow
			status  string
			dept    id.DepartmentID
			project id.ProjectID
		)
		if err := rows.Scan(&f.ID, &f.SourceID, &dept, &project, &f.Amount, &status,
			&f.Description, &f.TransactionDate, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fund flow: %w", err)
		}
		f.Status = ledger.FlowStatus(status)
		if !dept.IsNil() {
			f.TargetDepartmentID = &dept
		}
		if !project.IsNil() {
			f.TargetProjectID = &project
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fund flows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListFeedbackByDepartment(ctx context.Context, deptID id.DepartmentID) ([]*ledger.CommunityFeedback, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, department_id, project_id, is_public, status, created_at, responded_at
		FROM community_feedback WHERE department_id = $1 ORDER BY created_at, id`, deptID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []*ledger.CommunityFeedback
	for rows.Next() {
		var (
			f         ledger.CommunityFeedback
			projectID id.ProjectID
			status    string
			responded sql.NullTime
		)
		if err := rows.Scan(&f.ID, &f.DepartmentID, &projectID, &f.IsPublic, &status, &f.CreatedAt, &responded); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		f.Status = ledger.FeedbackStatus(status)
		if !projectID.IsNil() {
			f.ProjectID = &projectID
		}
		if responded.Valid {
			t := responded.Time
			f.RespondedAt = &t
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountDocumentsByDepartment(ctx context.Context, deptID id.DepartmentID) (int, int, error) {
	var total, verified int
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT count(*), count(*) FILTER (WHERE d.verified)
		FROM documents d JOIN projects p ON p.id = d.project_id
		WHERE p.department_id = $1`, deptID,
	).Scan(&total, &verified)
	if err != nil {
		return 0, 0, fmt.Errorf("count documents: %w", err)
	}
	return total, verified, nil
}

// ============================================================================
// Anomalies
// ============================================================================

// RecordDetection runs the dedup guard and the writes in one transaction,
// serialized per dedup key by a transaction-scoped advisory lock. The partial
// unique index on open dedup keys backs the lock up.
func (s *PostgresStore) RecordDetection(ctx context.Context, det *anomaly.Detection) (bool, error) {
	created := false
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		ex := s.execer(ctx)
		a := det.Anomaly

		if _, err := ex.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, a.DedupKey); err != nil {
			return fmt.Errorf("lock dedup key: %w", err)
		}

		var exists bool
		if err := ex.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM anomalies WHERE dedup_key = $1 AND NOT resolved)`, a.DedupKey,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check open anomaly: %w", err)
		}
		if exists {
			return nil
		}

		if det.SyntheticFlow != nil {
			if err := s.insertFlow(ctx, ex, det.SyntheticFlow); err != nil {
				return err
			}
		}
		if det.MarkFlow != nil {
			res, err := ex.ExecContext(ctx, `UPDATE fund_flows SET status = $2 WHERE id = $1`,
				*det.MarkFlow, string(ledger.FlowAnomaly))
			if err != nil {
				return fmt.Errorf("mark fund flow: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("fund flow %s: %w", det.MarkFlow, sentinel.ErrNotFound)
			}
		}

		_, err := ex.ExecContext(ctx, `
			INSERT INTO anomalies (id, fund_flow_id, category, dedup_key, description, severity,
			                       detected_by, detected_at, resolved)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)`,
			a.ID, a.FundFlowID, string(a.Category), a.DedupKey, a.Description, string(a.Severity),
			a.DetectedBy, a.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("insert anomaly: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		// A concurrent writer that bypassed the advisory lock loses on the index.
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return created, nil
}

const anomalyColumns = `id, fund_flow_id, category, dedup_key, description, severity, detected_by, detected_at,
	resolved, resolved_by, resolved_at, resolution_notes`

func scanAnomaly(row interface{ Scan(...any) error }) (*anomaly.Anomaly, error) {
	var (
		a          anomaly.Anomaly
		category   string
		severity   string
		resolvedBy id.UserID
		resolvedAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.FundFlowID, &category, &a.DedupKey, &a.Description, &severity,
		&a.DetectedBy, &a.DetectedAt, &a.Resolved, &resolvedBy, &resolvedAt, &a.ResolutionNotes); err != nil {
		return nil, err
	}
	a.Category = anomaly.Category(category)
	a.Severity = anomaly.Severity(severity)
	if !resolvedBy.IsNil() {
		a.ResolvedBy = &resolvedBy
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	return &a, nil
}

func (s *PostgresStore) FindAnomaly(ctx context.Context, anomalyID id.AnomalyID) (*anomaly.Anomaly, error) {
	a, err := scanAnomaly(s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+anomalyColumns+` FROM anomalies WHERE id = $1`, anomalyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find anomaly: %w", err)
	}
	return a, nil
}

// ExecuteAnomaly locks the row, applies fn and writes the result back.
func (s *PostgresStore) ExecuteAnomaly(ctx context.Context, anomalyID id.AnomalyID, fn func(*anomaly.Anomaly) error) (*anomaly.Anomaly, error) {
	var out *anomaly.Anomaly
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		ex := s.execer(ctx)
		a, err := scanAnomaly(ex.QueryRowContext(ctx,
			`SELECT `+anomalyColumns+` FROM anomalies WHERE id = $1 FOR UPDATE`, anomalyID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("load anomaly: %w", err)
		}
		if err := fn(a); err != nil {
			return err
		}
		_, err = ex.ExecContext(ctx, `
			UPDATE anomalies
			SET description = $2, severity = $3, resolved = $4, resolved_by = $5, resolved_at = $6, resolution_notes = $7
			WHERE id = $1`,
			a.ID, a.Description, string(a.Severity), a.Resolved, a.ResolvedBy, nullTime(a.ResolvedAt), a.ResolutionNotes,
		)
		if err != nil {
			return fmt.Errorf("update anomaly: %w", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListAnomalies(ctx context.Context) ([]*anomaly.Anomaly, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+anomalyColumns+` FROM anomalies ORDER BY detected_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	defer rows.Close()

	var out []*anomaly.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anomalies: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountAnomalies(ctx context.Context) (anomaly.Counts, error) {
	var c anomaly.Counts
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT count(*), count(*) FILTER (WHERE NOT resolved) FROM anomalies`,
	).Scan(&c.Total, &c.Unresolved)
	if err != nil {
		return anomaly.Counts{}, fmt.Errorf("count anomalies: %w", err)
	}
	return c, nil
}

// ============================================================================
// Trust indicators
// ============================================================================

// UpsertIndicator keeps one row per department. The advisory lock serializes
// concurrent upserts for the same department.
func (s *PostgresStore) UpsertIndicator(ctx context.Context, ind *trust.TrustIndicator) (*trust.TrustIndicator, error) {
	out := *ind
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		ex := s.execer(ctx)
		if _, err := ex.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`,
			"trust_indicator:"+ind.DepartmentID.String()); err != nil {
			return fmt.Errorf("lock department indicator: %w", err)
		}

		var existing id.TrustIndicatorID
		err := ex.QueryRowContext(ctx, `
			UPDATE trust_indicators
			SET transparency_score = $2, community_oversight_score = $3, response_time_score = $4,
			    document_completeness_score = $5, calculated_at = $6
			WHERE id = (SELECT id FROM trust_indicators WHERE department_id = $1
			            ORDER BY calculated_at DESC LIMIT 1)
			RETURNING id`,
			ind.DepartmentID, ind.TransparencyScore, ind.CommunityOversightScore, ind.ResponseTimeScore,
			ind.DocumentCompletenessScore, ind.CalculatedAt,
		).Scan(&existing)
		if err == nil {
			out.ID = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update trust indicator: %w", err)
		}
		return s.insertIndicator(ctx, ex, ind)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostgresStore) AppendIndicator(ctx context.Context, ind *trust.TrustIndicator) error {
	return s.insertIndicator(ctx, s.execer(ctx), ind)
}

func (s *PostgresStore) insertIndicator(ctx context.Context, ex dbExecutor, ind *trust.TrustIndicator) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO trust_indicators (id, department_id, transparency_score, community_oversight_score,
		                              response_time_score, document_completeness_score, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ind.ID, ind.DepartmentID, ind.TransparencyScore, ind.CommunityOversightScore,
		ind.ResponseTimeScore, ind.DocumentCompletenessScore, ind.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trust indicator: %w", err)
	}
	return nil
}

const indicatorColumns = `id, department_id, transparency_score, community_oversight_score,
	response_time_score, document_completeness_score, calculated_at`

func (s *PostgresStore) LatestIndicators(ctx context.Context) ([]*trust.TrustIndicator, error) {
	return s.queryIndicators(ctx, `
		SELECT DISTINCT ON (department_id) `+indicatorColumns+`
		FROM trust_indicators
		ORDER BY department_id, calculated_at DESC, id`)
}

func (s *PostgresStore) ListIndicatorHistory(ctx context.Context, deptID id.DepartmentID) ([]*trust.TrustIndicator, error) {
	return s.queryIndicators(ctx, `
		SELECT `+indicatorColumns+` FROM trust_indicators
		WHERE department_id = $1 ORDER BY calculated_at, id`, deptID)
}

func (s *PostgresStore) queryIndicators(ctx context.Context, query string, args ...any) ([]*trust.TrustIndicator, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trust indicators: %w", err)
	}
	defer rows.Close()

	var out []*trust.TrustIndicator
	for rows.Next() {
		var t trust.TrustIndicator
		if err := rows.Scan(&t.ID, &t.DepartmentID, &t.TransparencyScore, &t.CommunityOversightScore,
			&t.ResponseTimeScore, &t.DocumentCompletenessScore, &t.CalculatedAt); err != nil {
			return nil, fmt.Errorf("scan trust indicator: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trust indicators: %w", err)
	}
	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// sqlDate renders the UTC calendar date so DATE comparisons do not depend on
// the session TimeZone.
func sqlDate(t time.Time) string {
	return ledger.DateOf(t).Format(time.DateOnly)
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: sqlDate(*t), Valid: true}
}
