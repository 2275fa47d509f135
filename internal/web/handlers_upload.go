package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/upload"
)

type importResponse struct {
	upload.Result
	Notifications []edit.Notification `json:"notifications"`
}

// importBody returns the CSV stream of the request: the "file" part of a
// multipart form, or the raw body otherwise.
func importBody(r *http.Request) (io.Reader, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: multipart form has no file part", errBadRequest)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}

// handleImport appends the rows of an uploaded CSV file to a sheet.
// With ?dry_run=true it only returns the preview.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sheet := urlParam(r, "sheet")

	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: dry_run %q", errBadRequest, v))
			return
		}
		dryRun = b
	}

	body, err := importBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := s.passContext(r)
	defer cancel()
	rec := &edit.Recorder{}
	ctx = edit.ContextWithNotifier(ctx, rec)

	res, err := s.importer.Import(ctx, sheet, body, upload.Options{
		DryRun:   dryRun,
		MaxBytes: s.cfg.Import.MaxBytes,
		MaxRows:  s.cfg.Import.MaxRows,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := importResponse{Result: res, Notifications: rec.Notifications()}
	if resp.Notifications == nil {
		resp.Notifications = []edit.Notification{}
	}
	writeJSON(w, http.StatusOK, resp)
}
