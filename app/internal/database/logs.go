package database

import (
	"database/sql"
	"time"

	"maintenance/app/internal/models"
)

// ============================================
// Activity log
// ============================================

// Level constants
const (
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Category constants
const (
	LogCategoryEquipment  = "equipment"
	LogCategoryPlan       = "plan"
	LogCategoryCorrective = "corrective"
	LogCategoryReport     = "report"
	LogCategorySystem     = "system"
)

// InsertActivity adds an activity entry. equipmentID 0 means none.
func InsertActivity(level, category string, equipmentID int64, message, details string) error {
	var eq any
	if equipmentID != 0 {
		eq = equipmentID
	}
	_, err := DB.Exec(`INSERT INTO activity_log (timestamp, level, category, equipment_id, message, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(time.Now()), level, category, eq, message, details)
	return err
}

// GetActivity retrieves entries newest first with optional filtering
func GetActivity(limit int, category string, equipmentID int64, offset int) ([]models.ActivityEntry, error) {
	query := `SELECT id, timestamp, level, category, equipment_id, message, COALESCE(details, '')
		FROM activity_log WHERE 1=1`
	args := []interface{}{}

	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if equipmentID != 0 {
		query += " AND equipment_id = ?"
		args = append(args, equipmentID)
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		var eq sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Category, &eq, &e.Message, &e.Details); err != nil {
			return nil, err
		}
		if eq.Valid {
			id := eq.Int64
			e.EquipmentID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneActivity keeps only the newest keepCount entries
func PruneActivity(keepCount int) error {
	_, err := DB.Exec(`DELETE FROM activity_log WHERE id NOT IN (
		SELECT id FROM activity_log ORDER BY timestamp DESC, id DESC LIMIT ?
	)`, keepCount)
	return err
}
