// Package anomaly holds the pure detection rules: overrun and delay severity
// tables and the spending spike test. Services in ./service apply them to
// stored records.
package anomaly

import (
	"time"

	"github.com/shopspring/decimal"

	"trustledger/internal/anomaly/models"
	ledger "trustledger/internal/ledger/models"
)

// SpendingWindowDays is the look-back window for spike detection.
const SpendingWindowDays = 30

// SpikeMultiplier is how many times the average daily spend a single flow
// must exceed to count as a spike.
const SpikeMultiplier = 3

var (
	hundred  = decimal.NewFromInt(100)
	window   = decimal.NewFromInt(SpendingWindowDays)
	multiple = decimal.NewFromInt(SpikeMultiplier)
)

// OverrunAssessment is the result of classifying an over-budget project.
type OverrunAssessment struct {
	Amount decimal.Decimal
	// Percentage is nil when the budget is zero.
	Percentage *decimal.Decimal
	Severity   models.Severity
}

// ClassifyOverrun returns ok=false when spent does not exceed budget.
// Thresholds compare overrun*100 against budget*N so no division decides a
// boundary. A zero budget is always critical.
func ClassifyOverrun(budget, spent decimal.Decimal) (OverrunAssessment, bool) {
	if !spent.GreaterThan(budget) {
		return OverrunAssessment{}, false
	}
	overrun := spent.Sub(budget)
	if budget.IsZero() {
		return OverrunAssessment{Amount: overrun, Severity: models.SeverityCritical}, true
	}

	scaled := overrun.Mul(hundred)
	pct := scaled.Div(budget).Round(2)
	a := OverrunAssessment{Amount: overrun, Percentage: &pct}
	switch {
	case scaled.GreaterThan(budget.Mul(decimal.NewFromInt(50))):
		a.Severity = models.SeverityCritical
	case scaled.GreaterThan(budget.Mul(decimal.NewFromInt(25))):
		a.Severity = models.SeverityHigh
	case scaled.GreaterThan(budget.Mul(decimal.NewFromInt(10))):
		a.Severity = models.SeverityMedium
	default:
		a.Severity = models.SeverityLow
	}
	return a, true
}

// ClassifyDelay returns whole days from endDate to today (calendar dates in
// UTC) and the delay severity.
func ClassifyDelay(endDate, today time.Time) (int, models.Severity) {
	days := int(DateOf(today).Sub(DateOf(endDate)).Hours() / 24)
	switch {
	case days > 90:
		return days, models.SeverityCritical
	case days > 60:
		return days, models.SeverityHigh
	case days > 30:
		return days, models.SeverityMedium
	default:
		return days, models.SeverityLow
	}
}

// IsSpike reports amount > 3 * windowTotal / 30, evaluated as
// amount*30 > windowTotal*3.
func IsSpike(amount, windowTotal decimal.Decimal) bool {
	return amount.Mul(window).GreaterThan(windowTotal.Mul(multiple))
}

// AverageDaily is windowTotal spread over the window, rounded to cents for reporting.
func AverageDaily(windowTotal decimal.Decimal) decimal.Decimal {
	return windowTotal.Div(window).Round(2)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	return ledger.DateOf(t)
}

// SpendingWindow returns the inclusive [from, to] date range ending today.
func SpendingWindow(today time.Time) (time.Time, time.Time) {
	to := DateOf(today)
	return to.AddDate(0, 0, -SpendingWindowDays), to
}
