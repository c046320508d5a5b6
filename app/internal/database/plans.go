package database

import (
	"fmt"
	"time"

	"maintenance/app/internal/models"
)

const planColumns = `id, equipment_id, frequency_days, next_due_date, activities, active, COALESCE(last_completed_at, '')`

func scanPlan(row rowScanner) (*models.PreventivePlan, error) {
	var p models.PreventivePlan
	var active int
	var lastCompleted string
	if err := row.Scan(&p.ID, &p.EquipmentID, &p.FrequencyDays, &p.NextDueDate, &p.Activities, &active, &lastCompleted); err != nil {
		return nil, err
	}
	p.Active = active != 0
	if lastCompleted != "" {
		ts, err := parseTime(lastCompleted)
		if err != nil {
			return nil, fmt.Errorf("plan %d: bad last_completed_at %q: %w", p.ID, lastCompleted, err)
		}
		p.LastCompletedAt = &ts
	}
	return &p, nil
}

// CreatePreventivePlan inserts p and returns its new id.
// p.NextDueDate must already be in YYYY-MM-DD form.
func CreatePreventivePlan(p *models.PreventivePlan) (int64, error) {
	if _, err := time.Parse(dateLayout, p.NextDueDate); err != nil {
		return 0, fmt.Errorf("next_due_date %q: %w", p.NextDueDate, err)
	}

	result, err := DB.Exec(`
		INSERT INTO preventive_plans (equipment_id, frequency_days, next_due_date, activities, active)
		VALUES (?, ?, ?, ?, ?)`,
		p.EquipmentID, p.FrequencyDays, p.NextDueDate, p.Activities, boolToInt(p.Active))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetPreventivePlanByID returns the plan with id, or ErrNotFound
func GetPreventivePlanByID(id int64) (*models.PreventivePlan, error) {
	p, err := scanPlan(DB.QueryRow(`SELECT `+planColumns+` FROM preventive_plans WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// GetPreventivePlans lists plans ordered by id, narrowed by filter
func GetPreventivePlans(filter models.PlanFilter) ([]models.PreventivePlan, error) {
	query := `SELECT ` + planColumns + ` FROM preventive_plans WHERE 1=1`
	args := []interface{}{}

	if filter.EquipmentID != 0 {
		query += " AND equipment_id = ?"
		args = append(args, filter.EquipmentID)
	}
	if filter.DueBefore != "" {
		query += " AND active = 1 AND next_due_date <= ?"
		args = append(args, filter.DueBefore)
	}
	query += " ORDER BY id ASC"

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []models.PreventivePlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// CompletePreventivePlan marks the plan as executed at `at` and moves its
// due date forward by whole frequency periods until it falls after the
// completion day.
func CompletePreventivePlan(id int64, at time.Time) (*models.PreventivePlan, error) {
	tx, err := DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := scanPlan(tx.QueryRow(`SELECT `+planColumns+` FROM preventive_plans WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}

	next, err := NextDueDate(p.NextDueDate, p.FrequencyDays, at)
	if err != nil {
		return nil, err
	}

	completedAt := at.UTC()
	if _, err := tx.Exec(`UPDATE preventive_plans SET next_due_date = ?, last_completed_at = ? WHERE id = ?`,
		next, formatTime(completedAt), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	p.NextDueDate = next
	p.LastCompletedAt = &completedAt
	return p, nil
}

// NextDueDate advances due (YYYY-MM-DD) by frequencyDays at least once and
// until it is strictly after the calendar day of `at`.
func NextDueDate(due string, frequencyDays int, at time.Time) (string, error) {
	if frequencyDays <= 0 {
		return "", fmt.Errorf("frequency_days must be positive, got %d", frequencyDays)
	}
	d, err := time.Parse(dateLayout, due)
	if err != nil {
		return "", fmt.Errorf("next_due_date %q: %w", due, err)
	}
	u := at.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	d = d.AddDate(0, 0, frequencyDays)
	if d.After(day) {
		return formatDate(d)
	}
	// jump straight to the first period after day
	periods := int(day.Sub(d).Hours()/24)/frequencyDays + 1
	d = d.AddDate(0, 0, periods*frequencyDays)
	return formatDate(d)
}

func formatDate(d time.Time) (string, error) {
	if !storable(d) {
		return "", ErrDateOutOfRange
	}
	return d.Format(dateLayout), nil
}

// SetPreventivePlanActive toggles a plan on or off
func SetPreventivePlanActive(id int64, active bool) error {
	res, err := DB.Exec(`UPDATE preventive_plans SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
