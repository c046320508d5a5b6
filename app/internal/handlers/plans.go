package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"maintenance/app/internal/database"
	"maintenance/app/internal/metrics"
	"maintenance/app/internal/models"

	"github.com/sirupsen/logrus"
)

// maxFrequencyDays caps a plan's period at ten years
const maxFrequencyDays = 3650

type planRequest struct {
	EquipmentID   int64  `json:"equipment_id"`
	FrequencyDays int    `json:"frequency_days"`
	NextDueDate   string `json:"next_due_date"`
	Activities    string `json:"activities"`
	Active        *bool  `json:"active"`
}

type completeRequest struct {
	CompletedAt string `json:"completed_at"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func writePlanNotFound(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "preventive plan not found")
		return
	}
	writeErr(w, r, log, err)
}

// HandleCreatePlan stores a recurring preventive maintenance plan
func HandleCreatePlan(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, r, log, err)
			return
		}
		if req.FrequencyDays <= 0 || req.FrequencyDays > maxFrequencyDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("frequency_days must be between 1 and %d", maxFrequencyDays))
			return
		}
		if err := required(
			[2]string{"next_due_date", req.NextDueDate},
			[2]string{"activities", req.Activities},
		); err != nil {
			writeErr(w, r, log, err)
			return
		}
		due, err := parseDate("next_due_date", req.NextDueDate)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		if !requireEquipment(w, r, log, req.EquipmentID) {
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}
		p := &models.PreventivePlan{
			EquipmentID:   req.EquipmentID,
			FrequencyDays: req.FrequencyDays,
			NextDueDate:   due,
			Activities:    strings.TrimSpace(req.Activities),
			Active:        active,
		}
		id, err := database.CreatePreventivePlan(p)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}

		metrics.RecordCreated(metrics.KindPlan)
		logActivity(log, database.LogCategoryPlan, p.EquipmentID, "Preventive plan created",
			fmt.Sprintf("every %d days, next due %s", p.FrequencyDays, p.NextDueDate))
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

// HandleListPlans lists plans, optionally by equipment or due date
func HandleListPlans(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eq, err := queryID(r, "equipment_id")
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		filter := models.PlanFilter{EquipmentID: eq}
		if raw := r.URL.Query().Get("due_before"); raw != "" {
			if filter.DueBefore, err = parseDate("due_before", raw); err != nil {
				writeErr(w, r, log, err)
				return
			}
		}

		plans, err := database.GetPreventivePlans(filter)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, plans)
	}
}

// HandleGetPlan returns one plan
func HandleGetPlan(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		p, err := database.GetPreventivePlanByID(id)
		if err != nil {
			writePlanNotFound(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// HandleCompletePlan records an execution of the plan and schedules the next
func HandleCompletePlan(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}

		at := time.Now().UTC()
		var req completeRequest
		if err := decodeOptionalJSON(r, &req); err != nil {
			writeErr(w, r, log, err)
			return
		}
		if req.CompletedAt != "" {
			if at, err = parseTimestamp("completed_at", req.CompletedAt); err != nil {
				writeErr(w, r, log, err)
				return
			}
		}

		p, err := database.CompletePreventivePlan(id, at)
		if errors.Is(err, database.ErrDateOutOfRange) {
			writeError(w, http.StatusUnprocessableEntity, "next due date would pass year 9999")
			return
		}
		if err != nil {
			writePlanNotFound(w, r, log, err)
			return
		}

		logActivity(log, database.LogCategoryPlan, p.EquipmentID, "Preventive plan completed",
			fmt.Sprintf("plan %d, next due %s", p.ID, p.NextDueDate))
		writeJSON(w, http.StatusOK, p)
	}
}

// HandleSetPlanActive switches a plan on or off
func HandleSetPlanActive(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		var req activeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, r, log, err)
			return
		}
		if req.Active == nil {
			writeError(w, http.StatusBadRequest, "active is required")
			return
		}

		if err := database.SetPreventivePlanActive(id, *req.Active); err != nil {
			writePlanNotFound(w, r, log, err)
			return
		}
		p, err := database.GetPreventivePlanByID(id)
		if err != nil {
			writePlanNotFound(w, r, log, err)
			return
		}

		state := "deactivated"
		if p.Active {
			state = "activated"
		}
		logActivity(log, database.LogCategoryPlan, p.EquipmentID, "Preventive plan "+state, fmt.Sprintf("plan %d", p.ID))
		writeJSON(w, http.StatusOK, p)
	}
}
