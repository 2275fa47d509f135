package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/logging"
	"github.com/JonMunkholm/provtab/internal/minitable"
	"github.com/JonMunkholm/provtab/internal/web/templates"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// passContext bounds an edit or configuration pass and tags it with the
// request metadata.
func (s *Server) passContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := WithRequestMetadata(r.Context(), r)
	if s.cfg.Edit.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Edit.Timeout)
	}
	return context.WithCancel(ctx)
}

// urlParam returns the unescaped path parameter.
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// handleStatus renders the workbook overview page.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sheets, err := s.sheetViews(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	layers, err := s.orch.LayerStatuses(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Status(statusView(sheets, layers, s.orch.Gate().Status())).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render status page", "error", err)
	}
}

type editRequest struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

type editResponse struct {
	Outcome       edit.Outcome        `json:"outcome"`
	Notifications []edit.Notification `json:"notifications"`
	Error         *ErrorResponse      `json:"error,omitempty"`
}

// handleEdit writes one cell and runs the edit pass for it.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	req.Sheet = strings.TrimSpace(req.Sheet)
	if req.Sheet == "" || req.Column == "" || req.Row < 1 {
		s.respondError(w, r, fmt.Errorf("%w: sheet, column and a data row are required", errBadRequest))
		return
	}

	ctx, cancel := s.passContext(r)
	defer cancel()

	ev := edit.Event{Sheet: req.Sheet, Row: req.Row, Column: req.Column, Value: req.Value}
	if err := edit.WriteCell(ctx, s.store, ev); err != nil {
		s.respondError(w, r, err)
		return
	}

	rec := &edit.Recorder{}
	ctx = edit.ContextWithNotifier(ctx, rec)
	outcome, err := s.orch.HandleEdit(ctx, ev)

	resp := editResponse{Outcome: outcome, Notifications: rec.Notifications()}
	if resp.Notifications == nil {
		resp.Notifications = []edit.Notification{}
	}
	if err != nil {
		status := statusFor(err)
		msg := core.MapError(err)
		logging.FromContext(ctx).Error("edit failed",
			"sheet", req.Sheet,
			"row", req.Row,
			"column", req.Column,
			"status", status,
			"error", err.Error(),
			"code", msg.Code,
		)
		e := newErrorResponse(msg)
		resp.Error = &e
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type configureResponse struct {
	Report        edit.Report         `json:"report"`
	Notifications []edit.Notification `json:"notifications"`
}

// handleConfigure runs the configuration pass, for one layer when ?layer= is given.
func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.passContext(r)
	defer cancel()

	rec := &edit.Recorder{}
	ctx = edit.ContextWithNotifier(ctx, rec)

	var (
		report edit.Report
		err    error
	)
	if layer := r.URL.Query().Get("layer"); layer != "" {
		report, err = s.orch.ConfigureLayer(ctx, core.Layer(layer))
	} else {
		report, err = s.orch.Configure(ctx)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := configureResponse{Report: report, Notifications: rec.Notifications()}
	if resp.Notifications == nil {
		resp.Notifications = []edit.Notification{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type columnView struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Generated bool   `json:"generated,omitempty"`
}

type sheetView struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Family  core.Family  `json:"family"`
	Layer   core.Layer   `json:"layer"`
	Special bool         `json:"special,omitempty"`
	Columns []columnView `json:"columns"`
	Present bool         `json:"present"`
	Rows    int          `json:"rows"`
}

// sheetViews describes every registered sheet and whether the store has it.
func (s *Server) sheetViews(ctx context.Context) ([]sheetView, error) {
	defs := core.All()
	out := make([]sheetView, 0, len(defs))
	for _, def := range defs {
		v := sheetView{
			Key:     def.Info.Key,
			Label:   def.Info.Label,
			Family:  def.Info.Family,
			Layer:   def.Info.Layer,
			Special: def.Special,
		}
		for _, c := range def.Columns {
			v.Columns = append(v.Columns, columnView{
				Name:      c.Name,
				Type:      core.FieldTypeName(c.Type),
				Generated: c.Generated,
			})
		}

		t, err := s.store.Table(ctx, def.Info.Key)
		switch {
		case errors.Is(err, core.ErrTableNotFound):
		case err != nil:
			return nil, err
		default:
			v.Present = true
			if v.Rows, err = t.LastRow(ctx); err != nil {
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	views, err := s.sheetViews(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSheetRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.orch.SheetRules(r.Context(), urlParam(r, "sheet"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	templates, err := s.orch.Workflows(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if templates == nil {
		templates = []minitable.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

type workflowView struct {
	Name    string           `json:"name"`
	GroupID string           `json:"groupId,omitempty"`
	Steps   []minitable.Step `json:"steps,omitempty"`
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	steps, err := s.orch.Workflow(r.Context(), name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workflowView{Name: name, Steps: steps})
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req workflowView
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := s.passContext(r)
	defer cancel()

	id, err := s.orch.CreateWorkflow(ctx, req.Name, req.Steps)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, workflowView{Name: strings.TrimSpace(req.Name), GroupID: id, Steps: req.Steps})
}

func (s *Server) handleListLayers(w http.ResponseWriter, r *http.Request) {
	layers, err := s.orch.LayerStatuses(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layers)
}

// handleSetLayer switches a layer on or off. Body: {"enabled": true}.
func (s *Server) handleSetLayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Enabled == nil {
		s.respondError(w, r, fmt.Errorf("%w: enabled is required", errBadRequest))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	layer := core.Layer(urlParam(r, "layer"))

	var err error
	if *req.Enabled {
		err = s.orch.EnableLayer(ctx, layer)
	} else {
		err = s.orch.DisableLayer(ctx, layer)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edit.LayerStatus{Layer: layer, Enabled: *req.Enabled, Sheets: sheetKeys(layer)})
}

func sheetKeys(layer core.Layer) []string {
	var keys []string
	for _, def := range core.ByLayer(layer) {
		keys = append(keys, def.Info.Key)
	}
	return keys
}

// handleReset drops every sheet and property.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.reset.ResetAll(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(ctx).Warn("workbook reset over http",
		"actor", core.ActorFromContext(ctx),
		"ip", core.IPAddressFromContext(ctx),
		"tables", len(res.Dropped),
	)
	writeJSON(w, http.StatusOK, res)
}
