package handlers

import (
	"net/http"

	"maintenance/app/internal/database"

	"github.com/sirupsen/logrus"
)

// HandleHealth reports liveness and the number of registered equipments
func HandleHealth(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := database.GetEquipmentCount()
		if err != nil {
			log.WithError(err).Error("Health check query failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "equipments": count})
	}
}
