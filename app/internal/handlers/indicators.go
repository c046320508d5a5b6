package handlers

import (
	"net/http"

	"maintenance/app/internal/models"
	"maintenance/app/internal/stats"

	"github.com/sirupsen/logrus"
)

// HandleIndicators returns MTBF/MTTR for one equipment when equipment_id is
// given, otherwise one entry per equipment that has corrective records.
func HandleIndicators(svc *stats.Service, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eq, err := queryID(r, "equipment_id")
		if err != nil {
			writeErr(w, r, log, err)
			return
		}

		if eq != 0 {
			res, err := svc.ForEquipment(r.Context(), eq)
			if err != nil {
				writeErr(w, r, log, err)
				return
			}
			writeJSON(w, http.StatusOK, models.IndicatorReport{EquipmentID: eq, Result: res})
			return
		}

		reports, err := svc.Grouped(r.Context())
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, reports)
	}
}
