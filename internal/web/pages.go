package web

import (
	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/edit"
	"github.com/JonMunkholm/provtab/internal/web/templates"
)

// statusView maps workbook state onto the status page template.
func statusView(views []sheetView, layers []edit.LayerStatus, gate core.EditGateStatus) templates.StatusData {
	d := templates.StatusData{GateActive: gate.Active, GateRejected: gate.Rejected}
	for _, l := range layers {
		d.Layers = append(d.Layers, templates.LayerRow{
			Name:    string(l.Layer),
			Enabled: l.Enabled,
			Sheets:  len(l.Sheets),
		})
	}
	for _, v := range views {
		d.Sheets = append(d.Sheets, templates.SheetRow{
			Label:   v.Label,
			Layer:   string(v.Layer),
			Present: v.Present,
			Rows:    v.Rows,
		})
	}
	return d
}
