package handlers

import (
	"net/http"
	"strconv"

	"maintenance/app/internal/database"

	"github.com/sirupsen/logrus"
)

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

// HandleActivity returns recent activity entries, newest first
func HandleActivity(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := defaultActivityLimit
		if l := q.Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		if limit > maxActivityLimit {
			limit = maxActivityLimit
		}

		offset := 0
		if o := q.Get("offset"); o != "" {
			if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
				offset = parsed
			}
		}

		eq, err := queryID(r, "equipment_id")
		if err != nil {
			writeErr(w, r, log, err)
			return
		}

		entries, err := database.GetActivity(limit, q.Get("category"), eq, offset)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
