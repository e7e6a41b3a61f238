package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	anomaly "trustledger/internal/anomaly/models"
	"trustledger/internal/integrity"
	trust "trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
)

func sampleReport() *integrity.Report {
	started := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	detections := anomaly.NewDetectionReport()
	detections.BudgetOverruns = append(detections.BudgetOverruns, anomaly.BudgetOverrun{
		AnomalyID:     id.NewAnomalyID(),
		ProjectID:     id.NewProjectID(),
		Project:       "Metro Line",
		Budget:        decimal.NewFromInt(10000),
		Spent:         decimal.NewFromInt(16000),
		OverrunAmount: decimal.NewFromInt(6000),
		Severity:      anomaly.SeverityCritical,
	})
	pct := decimal.NewFromInt(60)
	detections.BudgetOverruns[0].OverrunPercentage = &pct
	detections.DelayedProjects = append(detections.DelayedProjects, anomaly.DelayedProject{
		AnomalyID:   id.NewAnomalyID(),
		ProjectID:   id.NewProjectID(),
		Project:     "Bus Depot",
		DaysOverdue: 10,
		EndDate:     time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		Severity:    anomaly.SeverityLow,
	})
	detections.TotalDetected = 2

	return &integrity.Report{
		Detections: detections,
		TrustScores: []trust.DepartmentScore{{
			DepartmentID:              id.NewDepartmentID(),
			Department:                "Transport",
			TransparencyScore:         50,
			CommunityOversightScore:   50,
			ResponseTimeScore:         50,
			DocumentCompletenessScore: 30,
			OverallScore:              45,
			CalculatedAt:              started,
		}},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetOverruns, SheetSpending, SheetDelays, SheetTrustScores, SheetDiagnostics}, f.GetSheetList())

	overruns, err := f.GetRows(SheetOverruns)
	require.NoError(t, err)
	require.Len(t, overruns, 2)
	assert.Equal(t, []string{"Metro Line", "10000", "16000", "6000", "60.00", "critical"}, overruns[1])

	delays, err := f.GetRows(SheetDelays)
	require.NoError(t, err)
	require.Len(t, delays, 2)
	assert.Equal(t, []string{"Bus Depot", "2025-05-10", "10", "low"}, delays[1])

	spending, err := f.GetRows(SheetSpending)
	require.NoError(t, err)
	assert.Len(t, spending, 1, "header only")

	scores, err := f.GetRows(SheetTrustScores)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "Transport", scores[1][0])
	assert.Equal(t, "45", scores[1][5])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total detected", "2"}, summary[2])
}

func TestSaveWorkbook_ScoreOnlyRun(t *testing.T) {
	report := sampleReport()
	report.Detections = nil
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, SaveWorkbook(path, report))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	overruns, err := f.GetRows(SheetOverruns)
	require.NoError(t, err)
	assert.Len(t, overruns, 1)
}
