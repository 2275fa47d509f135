package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/logging"
)

// auditFilter reads the journal filter from the query string:
// action, sheet, since (RFC 3339) and limit.
func auditFilter(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	f := audit.Filter{
		Action: audit.Action(q.Get("action")),
		Sheet:  q.Get("sheet"),
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("%w: since: %v", errBadRequest, err)
		}
		f.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: limit %q", errBadRequest, v)
		}
		f.Limit = n
	}
	return f, nil
}

// handleListAudit returns journal entries, newest first, as JSON or as a
// CSV download with format=csv.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var entries []audit.Entry
	if s.journal != nil {
		entries, err = s.journal.List(r.Context(), f)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	if r.URL.Query().Get("format") == "csv" {
		filename := fmt.Sprintf("audit_%s.csv", time.Now().UTC().Format("20060102_150405"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := audit.WriteCSV(w, entries); err != nil {
			logging.FromContext(r.Context()).Error("audit csv export failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
