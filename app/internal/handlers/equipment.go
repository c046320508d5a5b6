package handlers

import (
	"errors"
	"net/http"
	"strings"

	"maintenance/app/internal/database"
	"maintenance/app/internal/metrics"
	"maintenance/app/internal/models"

	"github.com/sirupsen/logrus"
)

type equipmentRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	SerialNumber string `json:"serial_number"`
	Location     string `json:"location"`
}

// HandleCreateEquipment registers a new piece of equipment
func HandleCreateEquipment(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req equipmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, r, log, err)
			return
		}
		if err := required(
			[2]string{"name", req.Name},
			[2]string{"category", req.Category},
			[2]string{"serial_number", req.SerialNumber},
			[2]string{"location", req.Location},
		); err != nil {
			writeErr(w, r, log, err)
			return
		}

		e := &models.Equipment{
			Name:         strings.TrimSpace(req.Name),
			Category:     strings.TrimSpace(req.Category),
			SerialNumber: strings.TrimSpace(req.SerialNumber),
			Location:     strings.TrimSpace(req.Location),
		}
		id, err := database.CreateEquipment(e)
		if errors.Is(err, database.ErrDuplicate) {
			writeDuplicateSerial(w, r, log, e.SerialNumber)
			return
		}
		if err != nil {
			writeErr(w, r, log, err)
			return
		}

		metrics.RecordCreated(metrics.KindEquipment)
		logActivity(log, database.LogCategoryEquipment, id, "Equipment registered", e.Name+" ("+e.SerialNumber+")")
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

// HandleListEquipment returns every equipment ordered by id
func HandleListEquipment(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := database.GetAllEquipment()
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// HandleGetEquipment returns one equipment
func HandleGetEquipment(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		e, err := database.GetEquipmentByID(id)
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "equipment not found")
			return
		}
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// writeDuplicateSerial answers 409 with the id already holding serial
func writeDuplicateSerial(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, serial string) {
	body := map[string]any{"error": "serial_number already registered"}
	existing, err := database.GetEquipmentBySerial(serial)
	if err != nil {
		log.WithError(err).WithField("request_id", RequestID(r.Context())).Warn("Lookup of conflicting serial failed")
	} else {
		body["id"] = existing.ID
	}
	writeJSON(w, http.StatusConflict, body)
}

// requireEquipment checks that equipmentID refers to a stored equipment and
// writes the error response when it does not.
func requireEquipment(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, equipmentID int64) bool {
	if equipmentID <= 0 {
		writeError(w, http.StatusBadRequest, "equipment_id is required")
		return false
	}
	ok, err := database.EquipmentExists(equipmentID)
	if err != nil {
		writeErr(w, r, log, err)
		return false
	}
	if !ok {
		writeError(w, http.StatusNotFound, "equipment not found")
		return false
	}
	return true
}

// logActivity records an audit entry; failures only reach the process log
func logActivity(log logrus.FieldLogger, category string, equipmentID int64, message, details string) {
	if err := database.InsertActivity(database.LogLevelInfo, category, equipmentID, message, details); err != nil {
		log.WithError(err).WithField("category", category).Warn("Failed to write activity log")
	}
}
