package database

import (
	"database/sql"
	"fmt"
	"time"

	"maintenance/app/internal/models"
)

const equipmentColumns = `id, name, category, serial_number, location, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*models.Equipment, error) {
	var e models.Equipment
	var createdAt string
	if err := row.Scan(&e.ID, &e.Name, &e.Category, &e.SerialNumber, &e.Location, &createdAt); err != nil {
		return nil, err
	}
	ts, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("equipment %d: bad created_at %q: %w", e.ID, createdAt, err)
	}
	e.CreatedAt = ts
	return &e, nil
}

// CreateEquipment inserts e and returns its new id. CreatedAt is set to now
// when zero. A reused serial number yields ErrDuplicate.
func CreateEquipment(e *models.Equipment) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	result, err := DB.Exec(`
		INSERT INTO equipments (name, category, serial_number, location, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.Name, e.Category, e.SerialNumber, e.Location, formatTime(e.CreatedAt))
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetEquipmentByID returns the equipment with id, or ErrNotFound
func GetEquipmentByID(id int64) (*models.Equipment, error) {
	e, err := scanEquipment(DB.QueryRow(`SELECT `+equipmentColumns+` FROM equipments WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// GetEquipmentBySerial returns the equipment with the serial number, or ErrNotFound
func GetEquipmentBySerial(serial string) (*models.Equipment, error) {
	e, err := scanEquipment(DB.QueryRow(`SELECT `+equipmentColumns+` FROM equipments WHERE serial_number = ?`, serial))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// EquipmentExists reports whether an equipment row with id exists
func EquipmentExists(id int64) (bool, error) {
	var one int
	err := DB.QueryRow(`SELECT 1 FROM equipments WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetAllEquipment returns every equipment ordered by id
func GetAllEquipment() ([]models.Equipment, error) {
	rows, err := DB.Query(`SELECT ` + equipmentColumns + ` FROM equipments ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// GetEquipmentCount returns the number of equipment rows
func GetEquipmentCount() (int, error) {
	var count int
	err := DB.QueryRow(`SELECT COUNT(*) FROM equipments`).Scan(&count)
	return count, err
}
