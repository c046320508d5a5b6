package models

import (
	"time"

	"maintenance/app/internal/indicators"
)

// Equipment is a piece of equipment whose maintenance is tracked
type Equipment struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	SerialNumber string    `json:"serial_number"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
}

// PreventivePlan is a recurring scheduled maintenance policy.
// NextDueDate is a calendar date in YYYY-MM-DD form.
type PreventivePlan struct {
	ID              int64      `json:"id"`
	EquipmentID     int64      `json:"equipment_id"`
	FrequencyDays   int        `json:"frequency_days"`
	NextDueDate     string     `json:"next_due_date"`
	Activities      string     `json:"activities"`
	Active          bool       `json:"active"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
}

// PlanFilter narrows a preventive plan listing. Zero values disable a filter.
type PlanFilter struct {
	EquipmentID int64
	// DueBefore restricts to active plans due on or before this date (YYYY-MM-DD)
	DueBefore string
}

// CorrectiveRecord is one unscheduled repair: a failure and its repair
type CorrectiveRecord struct {
	ID           int64     `json:"id"`
	EquipmentID  int64     `json:"equipment_id"`
	Description  string    `json:"description"`
	FailureStart time.Time `json:"failure_start"`
	RepairEnd    time.Time `json:"repair_end"`
	RootCause    string    `json:"root_cause"`
	ActionsTaken string    `json:"actions_taken"`
	CreatedAt    time.Time `json:"created_at"`
}

// Interval returns the failure/repair window used for indicator computation.
func (r CorrectiveRecord) Interval() indicators.Interval {
	return indicators.Interval{FailureStart: r.FailureStart, RepairEnd: r.RepairEnd}
}

// Intervals converts records for indicators.Compute.
func Intervals(records []CorrectiveRecord) []indicators.Interval {
	out := make([]indicators.Interval, len(records))
	for i, r := range records {
		out[i] = r.Interval()
	}
	return out
}

// IndicatorReport is the API shape of one equipment's indicators
type IndicatorReport struct {
	EquipmentID int64 `json:"equipment_id"`
	indicators.Result
}

// ActivityEntry is one row of the activity log
type ActivityEntry struct {
	ID          int64  `json:"id"`
	Timestamp   string `json:"timestamp"`
	Level       string `json:"level"`
	Category    string `json:"category"`
	EquipmentID *int64 `json:"equipment_id,omitempty"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
}
