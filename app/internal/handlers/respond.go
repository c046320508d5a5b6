package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"maintenance/app/internal/database"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// errBadRequest marks client input errors; its message is returned verbatim
type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return errBadRequest{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps err onto a status code. Internal errors are logged and
// replaced by a generic message.
func writeErr(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var br errBadRequest
	switch {
	case errors.As(err, &br):
		writeError(w, http.StatusBadRequest, br.msg)
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, database.ErrDateOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, "date outside years 0001-9999")
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": RequestID(r.Context()),
		}).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a single JSON object into dst
func decodeJSON(r *http.Request, dst any) error {
	return decodeBody(r, dst, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be absent.
// An empty body, chunked or not, leaves dst untouched.
func decodeOptionalJSON(r *http.Request, dst any) error {
	return decodeBody(r, dst, true)
}

func decodeBody(r *http.Request, dst any, optional bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if optional {
			return nil
		}
		return badRequest("invalid JSON body")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return badRequest("request body too large")
		}
		return badRequest("invalid JSON body")
	}
	return nil
}

// pathID parses the {id} route variable
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id")
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter. Absent or 0
// yields 0.
func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, badRequest("%s must be a positive integer", name)
	}
	return id, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// parseTimestamp accepts RFC 3339 and zone-less ISO forms; zone-less values
// are read as UTC. The instant must fall in years 0001-9999 once converted
// to UTC, the range the store can read back.
func parseTimestamp(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if y := t.UTC().Year(); y < 1 || y > 9999 {
			return time.Time{}, badRequest("%s must fall between years 0001 and 9999 in UTC", field)
		}
		return t, nil
	}
	return time.Time{}, badRequest("%s must be an ISO 8601 timestamp", field)
}

// parseDate accepts YYYY-MM-DD or any timestamp parseTimestamp accepts and
// returns the calendar date.
func parseDate(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Format("2006-01-02"), nil
	}
	t, err := parseTimestamp(field, s)
	if err != nil {
		return "", badRequest("%s must be a date (YYYY-MM-DD)", field)
	}
	return t.Format("2006-01-02"), nil
}

// required returns a 400 error naming the first empty field
func required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return badRequest("%s is required", f[0])
		}
	}
	return nil
}
