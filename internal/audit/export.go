package audit

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"id", "created_at", "action", "severity", "sheet", "row", "column", "value",
	"outcome", "group_id", "rows", "detail", "error", "actor", "ip_address",
}

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			e.ID,
			e.CreatedAt.Format(time.RFC3339),
			string(e.Action),
			string(e.Severity),
			e.Sheet,
			itoaOrEmpty(e.Row),
			e.Column,
			e.Value,
			e.Outcome,
			e.GroupID,
			itoaOrEmpty(e.Rows),
			e.Detail,
			e.Error,
			e.Actor,
			e.IPAddress,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func itoaOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
