package store

import (
	"time"
)

// Date and time layouts used in the database. All date/time columns are TEXT
// in ISO-8601 form so lexical ordering matches chronological ordering.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04:05"
)

var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
}

// Project groups tasks, purchases, and work sessions.
type Project struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	ArchivedAt  *string `json:"archived_at"`
}

// Task is a unit of work within a project.
type Task struct {
	ID            int64   `json:"id"`
	ProjectID     int64   `json:"project_id"`
	Name          string  `json:"name"`
	StartDatetime string  `json:"start_datetime"`
	EndDatetime   string  `json:"end_datetime"`
	ArchivedAt    *string `json:"archived_at"`
}

// Vendor supplies materials.
type Vendor struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	ArchivedAt *string `json:"archived_at"`
}

// Laborer is paid by the hour, the day, or both.
type Laborer struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	HourlyRate *float64 `json:"hourly_rate"`
	DailyRate  *float64 `json:"daily_rate"`
	ArchivedAt *string  `json:"archived_at"`
}

// MaterialPurchase records a materials buy against a project, optionally a
// task, and a vendor. TotalMaterialCost is derived: unit cost x quantity.
type MaterialPurchase struct {
	ID                  int64   `json:"id"`
	ProjectID           int64   `json:"project_id"`
	TaskID              *int64  `json:"task_id"`
	VendorID            int64   `json:"vendor_id"`
	MaterialDescription string  `json:"material_description"`
	UnitCost            float64 `json:"unit_cost"`
	Quantity            float64 `json:"quantity"`
	TotalMaterialCost   float64 `json:"total_material_cost"`
	DeliveryCost        float64 `json:"delivery_cost"`
	PurchaseDate        string  `json:"purchase_date"`
	ArchivedAt          *string `json:"archived_at"`
}

// WorkSession is one day of labor on a task. It exclusively owns its
// entries: updates replace the whole entry set, never patch it.
type WorkSession struct {
	ID         int64              `json:"id"`
	ProjectID  int64              `json:"project_id"`
	TaskID     int64              `json:"task_id"`
	WorkDate   string             `json:"work_date"`
	ArchivedAt *string            `json:"archived_at"`
	Entries    []WorkSessionEntry `json:"entries"`
}

// WorkSessionEntry is one laborer's clock-in/clock-out within a session.
type WorkSessionEntry struct {
	ID            int64  `json:"id"`
	WorkSessionID int64  `json:"work_session_id"`
	LaborerID     int64  `json:"laborer_id"`
	ClockInTime   string `json:"clock_in_time"`
	ClockOutTime  string `json:"clock_out_time"`
}

// MigrationRecord is one ledger row. Append-only, never mutated.
type MigrationRecord struct {
	Name      string `json:"name"`
	AppliedAt string `json:"applied_at"`
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, NewValidation("%s must be YYYY-MM-DD", field)
	}
	return t, nil
}

func parseDatetime(value, field string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, NewValidation("%s must be an ISO datetime (YYYY-MM-DD HH:MM)", field)
}

func parseClockTime(value, field string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, NewValidation("%s must be HH:MM or HH:MM:SS", field)
}

func nonNegative(value float64, field string) error {
	if value < 0 {
		return NewValidation("%s must be non-negative", field)
	}
	return nil
}

func nowUTC() string {
	return time.Now().UTC().Format(TimestampLayout)
}
