/*
Package transfer implements the CSV import/export pipeline for time records.

PURPOSE:
  Round-trips records through German-Excel-compatible CSV:
  - Delimiter: semicolon (comma auto-detected on import)
  - Encoding: UTF-8 with BOM
  - Headers: German column names (English accepted on import)
  - Dates YYYY-MM-DD, clock times HH:MM, absence categories as German labels

VALIDATION:
  Import performs the structural validation the calculation engine assumes:
  paired clock times, end after start, non-negative break, known absence
  label. Bad rows are reported with their line number and never abort the
  rest of the file.
*/
package transfer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verk/timetrack/tracking"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// German column headers, export order.
var headers = []string{"Datum", "Startzeit", "Endzeit", "Pause (Min)", "Abwesenheit", "Notizen"}

var absenceLabels = map[tracking.Absence]string{
	tracking.AbsenceNone:     "Keine",
	tracking.AbsenceVacation: "Urlaub",
	tracking.AbsenceSick:     "Krank",
	tracking.AbsenceHoliday:  "Feiertag",
	tracking.AbsenceFlexTime: "Gleitzeit",
}

var labelAbsences = func() map[string]tracking.Absence {
	m := make(map[string]tracking.Absence, len(absenceLabels))
	for k, v := range absenceLabels {
		m[v] = k
	}
	return m
}()

// =============================================================================
// EXPORT
// =============================================================================

// Export writes records as semicolon-delimited CSV with a UTF-8 BOM, the
// framing German Excel expects.
func Export(records []tracking.TimeRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{
			r.Date.String(),
			clockString(r.Start),
			clockString(r.End),
			strconv.Itoa(r.BreakMinutes),
			absenceLabel(r.Absence),
			r.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func clockString(c *tracking.ClockTime) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func absenceLabel(a tracking.Absence) string {
	if label, ok := absenceLabels[a]; ok {
		return label
	}
	return "Keine"
}

// =============================================================================
// IMPORT
// =============================================================================

// RowError is a rejected import row with its 1-based line number.
type RowError struct {
	Line    int
	Message string
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }

// Result is the outcome of parsing one file: the well-formed rows and the
// rejected ones. Duplicate handling against existing records is the
// caller's concern.
type Result struct {
	Records []tracking.TimeRecord
	Errors  []RowError
}

// Import parses CSV content into records for one user. Accepts German or
// English headers and semicolon or comma delimiters. Structural problems
// are collected per row; only an unreadable file returns an error.
func Import(content []byte, userID int64) (Result, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	delimiter := byte(';')
	if line, _, _ := bytes.Cut(content, []byte("\n")); !bytes.ContainsRune(line, ';') {
		delimiter = ','
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = rune(delimiter)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		if isBlank(row) {
			continue
		}

		rec, rowErr := parseRow(row, cols, userID)
		if rowErr != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: rowErr.Error()})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// columns maps logical fields to their position in the file, -1 when absent.
type columns struct {
	date, start, end, breakMin, absence, notes int
}

func mapHeader(header []string) (columns, error) {
	cols := columns{date: -1, start: -1, end: -1, breakMin: -1, absence: -1, notes: -1}

	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "Datum", "work_date":
			cols.date = i
		case "Startzeit", "start_time":
			cols.start = i
		case "Endzeit", "end_time":
			cols.end = i
		case "Pause (Min)", "break_minutes":
			cols.breakMin = i
		case "Abwesenheit", "absence":
			cols.absence = i
		case "Notizen", "notes":
			cols.notes = i
		}
	}

	if cols.date < 0 {
		return cols, fmt.Errorf("unrecognized CSV header: no date column")
	}
	return cols, nil
}

func parseRow(row []string, cols columns, userID int64) (tracking.TimeRecord, error) {
	rec := tracking.TimeRecord{
		UserID:  userID,
		Absence: tracking.AbsenceNone,
		Status:  tracking.StatusDraft,
	}

	date, err := tracking.ParseDate(field(row, cols.date))
	if err != nil {
		return rec, err
	}
	rec.Date = date

	startStr, endStr := field(row, cols.start), field(row, cols.end)
	if (startStr == "") != (endStr == "") {
		return rec, fmt.Errorf("start and end time must both be set or both be empty")
	}
	if startStr != "" {
		start, err := tracking.ParseClock(startStr)
		if err != nil {
			return rec, err
		}
		end, err := tracking.ParseClock(endStr)
		if err != nil {
			return rec, err
		}
		if end <= start {
			return rec, fmt.Errorf("end time %s is not after start time %s", end, start)
		}
		rec.Start, rec.End = &start, &end
	}

	if s := field(row, cols.breakMin); s != "" {
		breakMin, err := strconv.Atoi(s)
		if err != nil {
			return rec, fmt.Errorf("invalid break minutes %q", s)
		}
		if breakMin < 0 {
			return rec, fmt.Errorf("break minutes must not be negative")
		}
		rec.BreakMinutes = breakMin
	}

	if s := field(row, cols.absence); s != "" {
		if absence, ok := labelAbsences[s]; ok {
			rec.Absence = absence
		} else if tracking.ValidAbsence(s) {
			rec.Absence = tracking.Absence(s)
		} else {
			return rec, fmt.Errorf("unknown absence category %q", s)
		}
	}

	rec.Notes = field(row, cols.notes)
	return rec, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
