package database

import (
	"fmt"
	"time"

	"maintenance/app/internal/models"
)

const recordColumns = `id, equipment_id, description, failure_start, repair_end, root_cause, actions_taken, created_at`

func scanRecord(row rowScanner) (*models.CorrectiveRecord, error) {
	var r models.CorrectiveRecord
	var start, end, created string
	if err := row.Scan(&r.ID, &r.EquipmentID, &r.Description, &start, &end, &r.RootCause, &r.ActionsTaken, &created); err != nil {
		return nil, err
	}

	var err error
	if r.FailureStart, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("record %d: bad failure_start %q: %w", r.ID, start, err)
	}
	if r.RepairEnd, err = parseTime(end); err != nil {
		return nil, fmt.Errorf("record %d: bad repair_end %q: %w", r.ID, end, err)
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("record %d: bad created_at %q: %w", r.ID, created, err)
	}
	return &r, nil
}

// CreateCorrectiveRecord inserts r and returns its new id.
// Callers validate RepairEnd >= FailureStart before storing.
func CreateCorrectiveRecord(r *models.CorrectiveRecord) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if !storable(r.FailureStart) || !storable(r.RepairEnd) {
		return 0, ErrDateOutOfRange
	}

	result, err := DB.Exec(`
		INSERT INTO corrective_records (equipment_id, description, failure_start, repair_end, root_cause, actions_taken, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.EquipmentID, r.Description, formatTime(r.FailureStart), formatTime(r.RepairEnd),
		r.RootCause, r.ActionsTaken, formatTime(r.CreatedAt))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetCorrectiveRecords returns records ordered by failure start. An
// equipmentID of 0 returns records for every equipment.
func GetCorrectiveRecords(equipmentID int64) ([]models.CorrectiveRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM corrective_records`
	args := []interface{}{}
	if equipmentID != 0 {
		query += ` WHERE equipment_id = ?`
		args = append(args, equipmentID)
	}
	query += ` ORDER BY failure_start ASC, id ASC`

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.CorrectiveRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// GetEquipmentIDsWithRecords returns, in ascending order, the ids of every
// equipment that has at least one corrective record
func GetEquipmentIDsWithRecords() ([]int64, error) {
	rows, err := DB.Query(`SELECT equipment_id FROM corrective_records GROUP BY equipment_id ORDER BY equipment_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
