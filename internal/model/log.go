package model

import "time"

// LogTypeMonthlyReportDispatch marks the durable record written after a
// monthly report is transmitted. The existence of an entry for the
// current month is the sole proof a report already went out this month.
const LogTypeMonthlyReportDispatch = "MONTHLY_REPORT_DISPATCH"

type DispatchLogEntry struct {
	ID        string
	Type      string
	Timestamp time.Time
	Recipient string
}

// MonthKey formats an instant as the YYYY-MM idempotency key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DispatchLogID builds the log row id for a month key.
func DispatchLogID(monthKey string) string {
	return "report-" + monthKey
}
