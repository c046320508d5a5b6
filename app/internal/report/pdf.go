package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"maintenance/app/internal/indicators"
	"maintenance/app/internal/models"

	"github.com/go-pdf/fpdf"
	"golang.org/x/crypto/blake2b"
)

// Filename is the attachment name used when the report is downloaded.
const Filename = "maintenance_report.pdf"

// Row is one equipment line of the report.
type Row struct {
	Equipment  models.Equipment
	Indicators indicators.Result
}

// Line formats a row as printed in the document.
func (r Row) Line() string {
	return fmt.Sprintf("#%d - %s | Location: %s | MTBF: %s | MTTR: %s",
		r.Equipment.ID, r.Equipment.Name, r.Equipment.Location,
		hours(r.Indicators.MTBFHours), hours(r.Indicators.MTTRHours))
}

func hours(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64) + "h"
}

// RenderPDF writes an A4 report with a title, the generation time and one
// line per row.
func RenderPDF(w io.Writer, title string, rows []Row, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated at "+generatedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	if len(rows) == 0 {
		pdf.CellFormat(0, 6, "No equipment registered.", "", 1, "L", false, 0, "")
	}
	for _, row := range rows {
		pdf.MultiCell(0, 6, tr(row.Line()), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return pdf.Output(w)
}

// Checksum returns the BLAKE2b-256 hex digest of b.
func Checksum(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}
