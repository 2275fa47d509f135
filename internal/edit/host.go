package edit

import (
	"context"

	"github.com/JonMunkholm/provtab/internal/core"
)

// WriteCell stores an edit's value in its cell, as the grid host does before
// it reports the edit. It does not take the gate.
func WriteCell(ctx context.Context, store core.Store, ev Event) error {
	t, err := store.Table(ctx, ev.Sheet)
	if err != nil {
		return err
	}
	header, err := t.Header(ctx)
	if err != nil {
		return err
	}
	col, err := core.MakeHeaderIndex(header).MustPosition(ev.Sheet, ev.Column)
	if err != nil {
		return err
	}
	return t.SetValues(ctx, core.Cell(ev.Row, col), [][]string{{ev.Value}})
}
