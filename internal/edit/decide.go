package edit

import (
	"strings"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
	"github.com/JonMunkholm/provtab/internal/rules"
)

// Action is the structural change an edit triggers.
type Action string

const (
	ActionNone        Action = "none"
	ActionScaffold    Action = "scaffold"
	ActionInstantiate Action = "instantiate"
)

// Event is one cell edit reported by the host. The host has already
// written Value into the cell when the event is handled.
type Event struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// RowState is everything Decide needs to know about the edited row.
type RowState struct {
	Def    core.SheetDefinition
	Header []string
	Values []string
	Styles []core.Style

	Event Event

	// Rule is the stored rule of the edited column, nil when none is set.
	Rule *core.ColumnRule
}

// StyleChange restyles a run of cells in one row. Background and FontColor
// are the resolved hex colors, filled in when the change is applied.
type StyleChange struct {
	Range      core.Range `json:"range"`
	Style      core.Style `json:"style"`
	Background string     `json:"background,omitempty"`
	FontColor  string     `json:"fontColor,omitempty"`
}

// Decision is the computed effect of one edit.
type Decision struct {
	Styles   []StyleChange
	Invalid  error
	Action   Action
	Workflow string

	// GroupID is the row's current group id.
	GroupID string
}

// Decide computes what an edit should change. It reads nothing and writes
// nothing; apply performs the result.
func Decide(reg *rules.Registry, st RowState) Decision {
	idx := core.MakeHeaderIndex(st.Header)
	cell := func(name string) string {
		if name == "" {
			return ""
		}
		pos, ok := idx.Position(name)
		if !ok {
			return ""
		}
		return core.CellAt(st.Values, pos-1)
	}

	discriminant := canonical(st.Def, cell(st.Def.Discriminant))
	groupID := cell(st.Def.KeyColumn)
	memberRow := st.Def.HasMiniTables() && groupID != "" && !core.IsHeaderFlag(cell(st.Def.HeaderFlagColumn))

	dec := Decision{
		Action:  ActionNone,
		GroupID: groupID,
		Styles:  visibility(reg, st, discriminant, memberRow),
	}

	if st.Rule != nil {
		if err := core.ValidateCell(st.Event.Value, *st.Rule); err != nil {
			dec.Invalid = core.ValidationError{
				Field:   st.Event.Column,
				Value:   st.Event.Value,
				Message: err.Error(),
			}
		}
	}

	value := core.CleanCell(st.Event.Value)
	switch {
	case value == "":
	case isWorkflowReference(st.Def, st.Event.Column, discriminant):
		dec.Action = ActionInstantiate
		dec.Workflow = value
	case st.Def.HasMiniTables() && !st.Def.Special && groupID == "":
		dec.Action = ActionScaffold
	}
	return dec
}

// canonical returns the declared spelling of an enum discriminant value, so
// classification and instantiation see "Process Specification" the way the
// rule that accepted it does. Values outside the declared set are returned
// unchanged.
func canonical(def core.SheetDefinition, value string) string {
	spec, ok := def.Column(def.Discriminant)
	if !ok {
		return value
	}
	for _, v := range spec.EnumValues {
		if strings.EqualFold(v, value) {
			return v
		}
	}
	return value
}

// isWorkflowReference reports whether an edit picks a reporting workflow
// for a process specification row.
func isWorkflowReference(def core.SheetDefinition, column, discriminant string) bool {
	return def.Info.Key == sheets.WorkflowManagement &&
		strings.EqualFold(strings.TrimSpace(column), sheets.ColWorkflowReference) &&
		discriminant == sheets.RowTypeProcessSpecification
}

// visibility returns the style changes that bring the row in line with its
// rules. Cells already carrying the desired style are left alone, so a
// second pass over an unchanged row returns nothing.
func visibility(reg *rules.Registry, st RowState, discriminant string, memberRow bool) []StyleChange {
	var changes []StyleChange
	for i, name := range st.Header {
		name = core.CleanCell(name)
		if name == "" {
			continue
		}

		want := core.StyleDefault
		switch {
		case reg.Classify(rules.NewContextKey(name, discriminant)).Hidden():
			want = core.StyleHidden
		case memberRow:
			want = core.StyleGenerated
		}

		current := core.StyleDefault
		if i < len(st.Styles) {
			current = st.Styles[i].Normalize()
		}
		if current == want {
			continue
		}

		col := i + 1
		if n := len(changes); n > 0 && changes[n-1].Style == want && changes[n-1].Range.LastCol() == col-1 {
			changes[n-1].Range.NumCols++
			continue
		}
		changes = append(changes, StyleChange{Range: core.Cell(st.Event.Row, col), Style: want})
	}
	return changes
}
