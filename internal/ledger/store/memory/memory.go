// Package memory is an in-process record store used by tests and demo runs.
// A single mutex serializes writes, which also makes the detection dedup
// guard atomic.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	anomaly "trustledger/internal/anomaly/models"
	ledger "trustledger/internal/ledger/models"
	trust "trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
	"trustledger/pkg/platform/sentinel"
)

type Store struct {
	mu          sync.RWMutex
	departments map[id.DepartmentID]*ledger.Department
	projects    map[id.ProjectID]*ledger.Project
	sources     map[id.FundSourceID]*ledger.FundSource
	flows       map[id.FundFlowID]*ledger.FundFlow
	feedback    map[id.FeedbackID]*ledger.CommunityFeedback
	documents   map[id.DocumentID]*ledger.Document
	anomalies   map[id.AnomalyID]*anomaly.Anomaly
	// openByKey indexes unresolved anomalies by dedup key.
	openByKey  map[string]id.AnomalyID
	indicators []*trust.TrustIndicator
}

func New() *Store {
	return &Store{
		departments: make(map[id.DepartmentID]*ledger.Department),
		projects:    make(map[id.ProjectID]*ledger.Project),
		sources:     make(map[id.FundSourceID]*ledger.FundSource),
		flows:       make(map[id.FundFlowID]*ledger.FundFlow),
		feedback:    make(map[id.FeedbackID]*ledger.CommunityFeedback),
		documents:   make(map[id.DocumentID]*ledger.Document),
		anomalies:   make(map[id.AnomalyID]*anomaly.Anomaly),
		openByKey:   make(map[string]id.AnomalyID),
	}
}

// ============================================================================
// Seeding
// ============================================================================

func (s *Store) CreateDepartment(_ context.Context, d *ledger.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[d.ID]; ok {
		return fmt.Errorf("department %s: %w", d.ID, sentinel.ErrConflict)
	}
	c := *d
	s.departments[d.ID] = &c
	return nil
}

func (s *Store) CreateProject(_ context.Context, p *ledger.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return fmt.Errorf("project %s: %w", p.ID, sentinel.ErrConflict)
	}
	s.projects[p.ID] = cloneProject(p)
	return nil
}

// UpdateProject replaces a project, used to simulate spending between runs.
func (s *Store) UpdateProject(_ context.Context, p *ledger.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return fmt.Errorf("project %s: %w", p.ID, sentinel.ErrNotFound)
	}
	s.projects[p.ID] = cloneProject(p)
	return nil
}

func (s *Store) CreateFundSource(_ context.Context, src *ledger.FundSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *src
	s.sources[src.ID] = &c
	return nil
}

func (s *Store) CreateFlow(_ context.Context, f *ledger.FundFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertFlowLocked(f)
}

func (s *Store) CreateFeedback(_ context.Context, f *ledger.CommunityFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *f
	s.feedback[f.ID] = &c
	return nil
}

func (s *Store) CreateDocument(_ context.Context, doc *ledger.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *doc
	s.documents[doc.ID] = &c
	return nil
}

func (s *Store) insertFlowLocked(f *ledger.FundFlow) error {
	if _, ok := s.flows[f.ID]; ok {
		return fmt.Errorf("fund flow %s: %w", f.ID, sentinel.ErrConflict)
	}
	s.flows[f.ID] = cloneFlow(f)
	return nil
}

// ============================================================================
// Ledger reads
// ============================================================================

func (s *Store) FindDepartment(_ context.Context, deptID id.DepartmentID) (*ledger.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[deptID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *d
	return &c, nil
}

// ListDepartments returns departments sorted by name.
func (s *Store) ListDepartments(_ context.Context) ([]*ledger.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ledger.Department, 0, len(s.departments))
	for _, d := range s.departments {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListProjectsByStatus(_ context.Context, statuses ...ledger.ProjectStatus) ([]*ledger.Project, error) {
	return s.selectProjects(func(p *ledger.Project) bool {
		return slices.Contains(statuses, p.Status)
	}), nil
}

func (s *Store) ListOverBudgetProjects(_ context.Context) ([]*ledger.Project, error) {
	return s.selectProjects(func(p *ledger.Project) bool {
		return p.IsOverBudget()
	}), nil
}

// ListOverdueProjects returns planning or active projects whose end date is before today.
func (s *Store) ListOverdueProjects(_ context.Context, today time.Time) ([]*ledger.Project, error) {
	return s.selectProjects(func(p *ledger.Project) bool {
		if p.Status != ledger.ProjectPlanning && p.Status != ledger.ProjectActive {
			return false
		}
		return p.EndDate != nil && ledger.DateOf(*p.EndDate).Before(ledger.DateOf(today))
	}), nil
}

func (s *Store) ListProjectsByDepartment(_ context.Context, deptID id.DepartmentID) ([]*ledger.Project, error) {
	return s.selectProjects(func(p *ledger.Project) bool {
		return p.DepartmentID == deptID
	}), nil
}

// selectProjects returns matching projects ordered by name then id.
func (s *Store) selectProjects(match func(*ledger.Project) bool) []*ledger.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ledger.Project
	for _, p := range s.projects {
		if match(p) {
			out = append(out, cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (s *Store) FindFlow(_ context.Context, flowID id.FundFlowID) (*ledger.FundFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flows[flowID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneFlow(f), nil
}

// ListProjectFlows returns flows targeting the project with from <= transaction
// date <= to, skipping flows from excludeSource, ordered by transaction date.
func (s *Store) ListProjectFlows(_ context.Context, projectID id.ProjectID, from, to time.Time, excludeSource id.FundSourceID) ([]*ledger.FundFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ledger.FundFlow
	for _, f := range s.flows {
		if !f.TargetsProject(projectID) || f.SourceID == excludeSource {
			continue
		}
		day := ledger.DateOf(f.TransactionDate)
		if day.Before(ledger.DateOf(from)) || day.After(ledger.DateOf(to)) {
			continue
		}
		out = append(out, cloneFlow(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// ListFlows returns every flow, used by exports and tests.
func (s *Store) ListFlows(_ context.Context) ([]*ledger.FundFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ledger.FundFlow, 0, len(s.flows))
	for _, f := range s.flows {
		out = append(out, cloneFlow(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListFeedbackByDepartment(_ context.Context, deptID id.DepartmentID) ([]*ledger.CommunityFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ledger.CommunityFeedback
	for _, f := range s.feedback {
		if f.DepartmentID == deptID {
			c := *f
			out = append(out, &c)
		}
	}
	return out, nil
}

// CountDocumentsByDepartment counts documents attached to the department's projects.
func (s *Store) CountDocumentsByDepartment(_ context.Context, deptID id.DepartmentID) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total, verified := 0, 0
	for _, doc := range s.documents {
		p, ok := s.projects[doc.ProjectID]
		if !ok || p.DepartmentID != deptID {
			continue
		}
		total++
		if doc.Verified {
			verified++
		}
	}
	return total, verified, nil
}

// ============================================================================
// Anomalies
// ============================================================================

// RecordDetection applies the dedup guard and writes the detection
// atomically. It returns false when an unresolved anomaly already holds the key.
func (s *Store) RecordDetection(_ context.Context, det *anomaly.Detection) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, open := s.openByKey[det.Anomaly.DedupKey]; open {
		return false, nil
	}
	if det.MarkFlow != nil {
		if _, ok := s.flows[*det.MarkFlow]; !ok {
			return false, fmt.Errorf("fund flow %s: %w", det.MarkFlow, sentinel.ErrNotFound)
		}
	}
	if det.SyntheticFlow != nil {
		if err := s.insertFlowLocked(det.SyntheticFlow); err != nil {
			return false, err
		}
	}
	if det.MarkFlow != nil {
		s.flows[*det.MarkFlow].Status = ledger.FlowAnomaly
	}
	a := cloneAnomaly(det.Anomaly)
	s.anomalies[a.ID] = a
	s.openByKey[a.DedupKey] = a.ID
	return true, nil
}

func (s *Store) FindAnomaly(_ context.Context, anomalyID id.AnomalyID) (*anomaly.Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.anomalies[anomalyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAnomaly(a), nil
}

// ExecuteAnomaly loads the anomaly, applies fn and saves the result under a
// single lock. An error from fn leaves the stored anomaly untouched.
func (s *Store) ExecuteAnomaly(_ context.Context, anomalyID id.AnomalyID, fn func(*anomaly.Anomaly) error) (*anomaly.Anomaly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.anomalies[anomalyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := cloneAnomaly(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	s.anomalies[anomalyID] = working
	if working.Resolved && s.openByKey[working.DedupKey] == anomalyID {
		delete(s.openByKey, working.DedupKey)
	}
	return cloneAnomaly(working), nil
}

// ListAnomalies returns all anomalies ordered by detection time.
func (s *Store) ListAnomalies(_ context.Context) ([]*anomaly.Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*anomaly.Anomaly, 0, len(s.anomalies))
	for _, a := range s.anomalies {
		out = append(out, cloneAnomaly(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}

func (s *Store) CountAnomalies(_ context.Context) (anomaly.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := anomaly.Counts{Total: len(s.anomalies)}
	for _, a := range s.anomalies {
		if !a.Resolved {
			c.Unresolved++
		}
	}
	return c, nil
}

// ============================================================================
// Trust indicators
// ============================================================================

// UpsertIndicator keeps one row per department, preserving the row id.
func (s *Store) UpsertIndicator(_ context.Context, ind *trust.TrustIndicator) (*trust.TrustIndicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *ind
	for i, existing := range s.indicators {
		if existing.DepartmentID == ind.DepartmentID {
			c.ID = existing.ID
			s.indicators[i] = &c
			out := c
			return &out, nil
		}
	}
	s.indicators = append(s.indicators, &c)
	out := c
	return &out, nil
}

// AppendIndicator adds a history row.
func (s *Store) AppendIndicator(_ context.Context, ind *trust.TrustIndicator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *ind
	s.indicators = append(s.indicators, &c)
	return nil
}

// LatestIndicators returns the most recent indicator per department.
func (s *Store) LatestIndicators(_ context.Context) ([]*trust.TrustIndicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[id.DepartmentID]*trust.TrustIndicator)
	for _, ind := range s.indicators {
		if cur, ok := latest[ind.DepartmentID]; !ok || !ind.CalculatedAt.Before(cur.CalculatedAt) {
			latest[ind.DepartmentID] = ind
		}
	}
	out := make([]*trust.TrustIndicator, 0, len(latest))
	for _, ind := range latest {
		c := *ind
		out = append(out, &c)
	}
	return out, nil
}

// ListIndicatorHistory returns every stored indicator for the department, oldest first.
func (s *Store) ListIndicatorHistory(_ context.Context, deptID id.DepartmentID) ([]*trust.TrustIndicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*trust.TrustIndicator
	for _, ind := range s.indicators {
		if ind.DepartmentID == deptID {
			c := *ind
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CalculatedAt.Before(out[j].CalculatedAt) })
	return out, nil
}

func cloneProject(p *ledger.Project) *ledger.Project {
	c := *p
	if p.EndDate != nil {
		end := *p.EndDate
		c.EndDate = &end
	}
	return &c
}

func cloneFlow(f *ledger.FundFlow) *ledger.FundFlow {
	c := *f
	if f.TargetDepartmentID != nil {
		v := *f.TargetDepartmentID
		c.TargetDepartmentID = &v
	}
	if f.TargetProjectID != nil {
		v := *f.TargetProjectID
		c.TargetProjectID = &v
	}
	return &c
}

func cloneAnomaly(a *anomaly.Anomaly) *anomaly.Anomaly {
	c := *a
	if a.ResolvedBy != nil {
		v := *a.ResolvedBy
		c.ResolvedBy = &v
	}
	if a.ResolvedAt != nil {
		v := *a.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}
