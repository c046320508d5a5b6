package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"maintenance/app/internal/database"
	"maintenance/app/internal/metrics"
	"maintenance/app/internal/models"
	"maintenance/app/internal/stats"

	"github.com/sirupsen/logrus"
)

type recordRequest struct {
	EquipmentID  int64  `json:"equipment_id"`
	Description  string `json:"description"`
	FailureStart string `json:"failure_start"`
	RepairEnd    string `json:"repair_end"`
	RootCause    string `json:"root_cause"`
	ActionsTaken string `json:"actions_taken"`
}

// HandleCreateRecord stores a corrective maintenance record and drops the
// equipment's cached indicators.
func HandleCreateRecord(svc *stats.Service, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, r, log, err)
			return
		}
		if err := required(
			[2]string{"description", req.Description},
			[2]string{"failure_start", req.FailureStart},
			[2]string{"repair_end", req.RepairEnd},
			[2]string{"root_cause", req.RootCause},
			[2]string{"actions_taken", req.ActionsTaken},
		); err != nil {
			writeErr(w, r, log, err)
			return
		}

		start, err := parseTimestamp("failure_start", req.FailureStart)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		end, err := parseTimestamp("repair_end", req.RepairEnd)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		if end.Before(start) {
			writeError(w, http.StatusBadRequest, "repair_end must be later than failure_start")
			return
		}
		if !requireEquipment(w, r, log, req.EquipmentID) {
			return
		}

		rec := &models.CorrectiveRecord{
			EquipmentID:  req.EquipmentID,
			Description:  strings.TrimSpace(req.Description),
			FailureStart: start,
			RepairEnd:    end,
			RootCause:    strings.TrimSpace(req.RootCause),
			ActionsTaken: strings.TrimSpace(req.ActionsTaken),
		}
		id, err := database.CreateCorrectiveRecord(rec)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		svc.Invalidate(r.Context(), rec.EquipmentID)

		metrics.RecordCreated(metrics.KindCorrective)
		logActivity(log, database.LogCategoryCorrective, rec.EquipmentID, "Corrective record created",
			fmt.Sprintf("%s, down %.2fh", rec.Description, end.Sub(start).Hours()))
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

// HandleListRecords lists records ordered by failure start
func HandleListRecords(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eq, err := queryID(r, "equipment_id")
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		records, err := database.GetCorrectiveRecords(eq)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}
