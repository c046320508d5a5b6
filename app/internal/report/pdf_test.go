package report

import (
	"bytes"
	"testing"
	"time"

	"maintenance/app/internal/indicators"
	"maintenance/app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestRowLine(t *testing.T) {
	row := Row{
		Equipment:  models.Equipment{ID: 3, Name: "Compressor", Location: "Hall B"},
		Indicators: indicators.Result{MTBFHours: f(51), MTTRHours: f(3.33), Failures: 3},
	}
	assert.Equal(t, "#3 - Compressor | Location: Hall B | MTBF: 51.00h | MTTR: 3.33h", row.Line())
}

func TestRowLine_Undefined(t *testing.T) {
	row := Row{
		Equipment:  models.Equipment{ID: 1, Name: "Lathe", Location: "Shop"},
		Indicators: indicators.Result{MTTRHours: f(2), Failures: 1},
	}
	assert.Equal(t, "#1 - Lathe | Location: Shop | MTBF: n/a | MTTR: 2.00h", row.Line())

	empty := Row{Equipment: models.Equipment{ID: 2, Name: "Press", Location: "Shop"}}
	assert.Contains(t, empty.Line(), "MTBF: n/a | MTTR: n/a")
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{Equipment: models.Equipment{ID: 1, Name: "Bomba d'água", Location: "Área 2"}, Indicators: indicators.Result{MTTRHours: f(1)}},
		{Equipment: models.Equipment{ID: 2, Name: "Press", Location: "Shop"}},
	}

	err := RenderPDF(&buf, "Maintenance Report", rows, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderPDF_ManyRowsPaginates(t *testing.T) {
	var buf bytes.Buffer
	rows := make([]Row, 200)
	for i := range rows {
		rows[i] = Row{Equipment: models.Equipment{ID: int64(i + 1), Name: "Unit", Location: "Line"}}
	}

	require.NoError(t, RenderPDF(&buf, "Report", rows, time.Now()))
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")), 1)
}

func TestRenderPDF_NoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, "Report", nil, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("report"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Checksum([]byte("report")))
	assert.NotEqual(t, a, Checksum([]byte("report2")))
}
