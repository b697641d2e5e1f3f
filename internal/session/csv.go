package session

import (
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
)

// Attendance CSV columns. The header must carry exactly these, in any order.
const (
	ColPlayerID = "player_id"
	ColAttended = "attended"
	ColScore    = "score"
)

var attendanceColumns = []string{ColPlayerID, ColAttended, ColScore}

// AttendanceRow is one raw data row. Row is the 1-based record number with
// the header as row 1.
type AttendanceRow struct {
	Row      int
	PlayerID string
	Attended string
	Score    string
}

// ParseAttendanceCSV reads the header and every data row. Values stay raw so
// that each row can be rejected on its own during import; only a malformed
// file or header fails the whole parse.
func ParseAttendanceCSV(r io.Reader) ([]AttendanceRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Validation("CSV is empty")
	}
	if err != nil {
		return nil, apperr.Validation("malformed CSV: %v", err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []AttendanceRow
	for n := 2; ; n++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation("malformed CSV: %v", err)
		}
		rows = append(rows, AttendanceRow{
			Row:      n,
			PlayerID: field(rec, index[ColPlayerID]),
			Attended: field(rec, index[ColAttended]),
			Score:    field(rec, index[ColScore]),
		})
	}
	return rows, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; dup {
			return nil, columnsError()
		}
		index[name] = i
	}
	if len(index) != len(attendanceColumns) {
		return nil, columnsError()
	}
	for _, col := range attendanceColumns {
		if _, ok := index[col]; !ok {
			return nil, columnsError()
		}
	}
	return index, nil
}

func columnsError() error {
	cols := append([]string(nil), attendanceColumns...)
	sort.Strings(cols)
	return apperr.Validation("CSV must have columns: %s", strings.Join(cols, ", "))
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

// writeTemplate writes the header and one row per player code, prefilled as
// absent with the lowest valid score so an unedited template imports cleanly.
func writeTemplate(w io.Writer, playerCodes []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attendanceColumns); err != nil {
		return err
	}
	for _, code := range playerCodes {
		if err := cw.Write([]string{code, "0", "1"}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
