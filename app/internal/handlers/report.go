package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"maintenance/app/internal/database"
	"maintenance/app/internal/report"
	"maintenance/app/internal/stats"

	"github.com/sirupsen/logrus"
)

// HandleReportPDF renders the maintenance report for every equipment
func HandleReportPDF(svc *stats.Service, title string, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		equipments, err := database.GetAllEquipment()
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		results, err := svc.ForAll(r.Context(), equipments)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}

		rows := make([]report.Row, len(equipments))
		for i, e := range equipments {
			rows[i] = report.Row{Equipment: e, Indicators: results[e.ID]}
		}

		var buf bytes.Buffer
		if err := report.RenderPDF(&buf, title, rows, time.Now()); err != nil {
			writeErr(w, r, log, err)
			return
		}

		body := buf.Bytes()
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"`+report.Checksum(body)+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)

		logActivity(log, database.LogCategoryReport, 0, "PDF report generated", strconv.Itoa(len(rows))+" equipments")
	}
}
